package naver

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/HAAN6892/real-estate-monitor/internal/price"
)

// stringNumber accepts string or number JSON and stores it as text.
type stringNumber string

func (s *stringNumber) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = stringNumber(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*s = stringNumber(num.String())
	return nil
}

// Article is one entry of the mobile complex listing list.
type Article struct {
	ID            stringNumber `json:"atclNo"`
	Name          string       `json:"atclNm"`
	Building      string       `json:"bildNm"`
	DealType      string       `json:"tradTpNm"`
	PriceText     string       `json:"prcInfo"`
	AreaM2        stringNumber `json:"spc2"`
	Floor         string       `json:"flrInfo"`
	Direction     string       `json:"direction"`
	Description   string       `json:"atclFetrDesc"`
	Agent         string       `json:"rltrNm"`
	Tags          []string     `json:"tagList"`
	ConfirmedDate string       `json:"cfmYmd"`
}

type articleListResponse struct {
	Result struct {
		List  []Article    `json:"list"`
		Total stringNumber `json:"totAtclCnt"`
	} `json:"result"`
}

// Listing is the part of a normalized property one upstream response can
// supply. Empty strings and nil pointers mean "not reported".
type Listing struct {
	ComplexID     string
	Name          string
	Building      string
	Region        string
	Dong          string
	DealType      string
	Price         *int
	AreaM2        *float64
	Floor         string
	Direction     string
	Description   string
	Agent         string
	Tags          []string
	ConfirmedDate string
	BuiltYear     *int
	Households    *int
	Lat           *float64
	Lng           *float64
}

// Listing maps an article from the listing list.
func (a Article) Listing() Listing {
	l := Listing{
		Name:          strings.TrimSpace(a.Name),
		Building:      strings.TrimSpace(a.Building),
		DealType:      a.DealType,
		Floor:         a.Floor,
		Direction:     a.Direction,
		Description:   a.Description,
		Agent:         a.Agent,
		Tags:          append([]string(nil), a.Tags...),
		ConfirmedDate: a.ConfirmedDate,
	}
	if p, ok := price.Parse(a.PriceText); ok {
		l.Price = &p
	}
	if f, err := strconv.ParseFloat(string(a.AreaM2), 64); err == nil && f > 0 {
		area := Round1(f)
		l.AreaM2 = &area
	}
	return l
}

// SiblingListing keeps only what another listing of the same complex says
// about the target: the complex name and a reference price.
func (a Article) SiblingListing() Listing {
	l := Listing{Name: strings.TrimSpace(a.Name)}
	if p, ok := price.Parse(a.PriceText); ok {
		l.Price = &p
		l.DealType = a.DealType
	}
	return l
}

// Round1 rounds to one decimal place.
func Round1(f float64) float64 { return math.Round(f*10) / 10 }
