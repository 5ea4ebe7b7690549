package naver

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/HAAN6892/real-estate-monitor/internal/price"
)

// Candidates lists the keys one normalized field may arrive under, in
// preference order. The first key holding a non-empty, non-zero value wins.
type Candidates []string

// Field tables for the loosely typed complex/key/basic responses.
var (
	ComplexNameFields = Candidates{"complexName", "name", "hscpNm"}
	BuiltYearFields   = Candidates{"useApproveYmd", "useApproveYear", "approveYear", "useApproveDate"}
	HouseholdFields   = Candidates{"totalHouseholdCount", "householdCount", "totHsehCnt"}
	LatitudeFields    = Candidates{"latitude", "lat"}
	LongitudeFields   = Candidates{"longitude", "lng"}
	AddressFields     = Candidates{"address", "roadAddress", "cortarAddress"}
	KeyComplexFields  = Candidates{"complexNumber", "complexNo"}
	DealTypeFields    = Candidates{"tradeTypeName"}
	ArticleNameFields = Candidates{"complexName", "articleName"}
	PriceFields       = Candidates{"dealPrice", "price", "formattedPrice"}
	AreaFields        = Candidates{"exclusiveArea", "area2"}
	FloorFields       = Candidates{"floor", "floorInfo"}
	TotalFloorFields  = Candidates{"totalFloor", "maxFloor"}
	DongFields        = Candidates{"legalDivisionName", "dongName"}
	DirectionFields   = Candidates{"direction", "directionName"}
	RegionPartFields  = []string{"cityName", "divisionName", "sectionName"}
)

// Raw returns the first present value and the key it was found under.
func (c Candidates) Raw(body map[string]any) (any, string, bool) {
	for _, k := range c {
		v, ok := body[k]
		if !ok || isEmpty(v) {
			continue
		}
		return v, k, true
	}
	return nil, "", false
}

func (c Candidates) String(body map[string]any) string {
	v, _, ok := c.Raw(body)
	if !ok {
		return ""
	}
	return strings.TrimSpace(text(v))
}

func (c Candidates) Int(body map[string]any) (int, bool) {
	for _, k := range c {
		if n, ok := toInt(body[k]); ok && n != 0 {
			return n, true
		}
	}
	return 0, false
}

func (c Candidates) Float(body map[string]any) (float64, bool) {
	for _, k := range c {
		if f, ok := toFloat(body[k]); ok && f != 0 {
			return f, true
		}
	}
	return 0, false
}

// Unwrap returns the "result" envelope when the provider used one.
func Unwrap(body map[string]any) map[string]any {
	if inner, ok := body["result"].(map[string]any); ok {
		return inner
	}
	return body
}

// ComplexListing maps a complex-info body from either provider tier.
func ComplexListing(body map[string]any) Listing {
	body = Unwrap(body)
	l := Listing{
		Name:   ComplexNameFields.String(body),
		Region: AddressFields.String(body),
	}
	if raw := BuiltYearFields.String(body); len(raw) >= 4 {
		if y, err := strconv.Atoi(raw[:4]); err == nil && y > 0 {
			l.BuiltYear = &y
		}
	}
	if n, ok := HouseholdFields.Int(body); ok {
		l.Households = &n
	}
	if f, ok := LatitudeFields.Float(body); ok {
		l.Lat = &f
	}
	if f, ok := LongitudeFields.Float(body); ok {
		l.Lng = &f
	}
	return l
}

// KeyListing maps the secondary key-lookup body.
func KeyListing(body map[string]any) Listing {
	body = Unwrap(body)
	return Listing{
		ComplexID: KeyComplexFields.String(body),
		DealType:  DealTypeFields.String(body),
	}
}

// BasicListing maps the secondary listing-detail body.
func BasicListing(body map[string]any) Listing {
	body = Unwrap(body)
	l := Listing{
		Name:      ArticleNameFields.String(body),
		DealType:  DealTypeFields.String(body),
		Dong:      DongFields.String(body),
		Direction: DirectionFields.String(body),
	}
	if v, _, ok := PriceFields.Raw(body); ok {
		if p, ok := price.Parse(text(v)); ok {
			l.Price = &p
		}
	}
	if f, ok := AreaFields.Float(body); ok && f > 0 {
		area := Round1(f)
		l.AreaM2 = &area
	}
	if floor := FloorFields.String(body); floor != "" {
		if total := TotalFloorFields.String(body); total != "" {
			l.Floor = floor + "/" + total
		} else {
			l.Floor = floor
		}
	}
	var parts []string
	for _, k := range RegionPartFields {
		if s := strings.TrimSpace(text(body[k])); s != "" {
			parts = append(parts, s)
		}
	}
	l.Region = strings.Join(parts, " ")
	return l
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case float64:
		return t == 0
	case bool:
		return !t
	}
	return false
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), true
		}
		if f, err := t.Float64(); err == nil {
			return int(f), true
		}
	case float64:
		return int(t), true
	case int:
		return t, true
	case string:
		n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(t), ",", ""))
		return n, err == nil
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}
