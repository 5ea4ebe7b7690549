package resolver

import (
	"github.com/HAAN6892/real-estate-monitor/naver"
)

// Source names the upstream that supplied a field.
type Source string

const (
	SourceReference        Source = "reference"
	SourceListingList      Source = "mobile.article"
	SourceSiblingListing   Source = "mobile.sibling"
	SourceComplexPrimary   Source = Source(naver.ComplexFromPrimary)
	SourceComplexSecondary Source = Source(naver.ComplexFromSecondary)
	SourceArticleKey       Source = "finance.key"
	SourceArticleBasic     Source = "finance.basic"
	SourceURL              Source = "url"
)

const pyeongInM2 = 3.3058

// Property is the normalized record produced for one listing URL. Only
// ListingID and SourceURL are guaranteed; every other field may be empty.
type Property struct {
	ListingID     string   `json:"listing_id"`
	ComplexID     string   `json:"complex_id,omitempty"`
	SourceURL     string   `json:"source_url"`
	Name          string   `json:"name,omitempty"`
	Building      string   `json:"building,omitempty"`
	Region        string   `json:"region,omitempty"`
	Dong          string   `json:"dong,omitempty"`
	DealType      string   `json:"trade_type,omitempty"`
	Price         *int     `json:"price,omitempty"` // 만원
	AreaM2        *float64 `json:"area_m2,omitempty"`
	AreaPyeong    *float64 `json:"area_pyeong,omitempty"`
	Floor         string   `json:"floor,omitempty"`
	Direction     string   `json:"direction,omitempty"`
	Description   string   `json:"description,omitempty"`
	Agent         string   `json:"agent,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	ConfirmedDate string   `json:"confirmed_date,omitempty"`
	BuiltYear     *int     `json:"built_year,omitempty"`
	Households    *int     `json:"households,omitempty"`
	Lat           *float64 `json:"lat,omitempty"`
	Lng           *float64 `json:"lng,omitempty"`

	// Provenance maps a JSON field name to the source that set it.
	Provenance map[string]Source `json:"provenance,omitempty"`
}

// Resolved reports whether the record carries a name; records without one
// are degraded.
func (p Property) Resolved() bool { return p.Name != "" }

// Merge copies every field of l that is still unset on p. A field that already
// holds a value is never overwritten.
func (p *Property) Merge(l naver.Listing, src Source) {
	p.fill(fromListing(l), func(string) Source { return src })
}

// Fill copies fields still unset on p from o, keeping o's provenance.
func (p *Property) Fill(o Property) {
	p.fill(o, func(field string) Source {
		if s, ok := o.Provenance[field]; ok {
			return s
		}
		return SourceReference
	})
}

func fromListing(l naver.Listing) Property {
	return Property{
		ComplexID:     l.ComplexID,
		Name:          l.Name,
		Building:      l.Building,
		Region:        l.Region,
		Dong:          l.Dong,
		DealType:      l.DealType,
		Price:         l.Price,
		AreaM2:        l.AreaM2,
		Floor:         l.Floor,
		Direction:     l.Direction,
		Description:   l.Description,
		Agent:         l.Agent,
		Tags:          l.Tags,
		ConfirmedDate: l.ConfirmedDate,
		BuiltYear:     l.BuiltYear,
		Households:    l.Households,
		Lat:           l.Lat,
		Lng:           l.Lng,
	}
}

func (p *Property) fill(o Property, srcOf func(field string) Source) {
	if p.Provenance == nil {
		p.Provenance = map[string]Source{}
	}
	p.setString("complex_id", &p.ComplexID, o.ComplexID, srcOf)
	p.setString("name", &p.Name, o.Name, srcOf)
	p.setString("building", &p.Building, o.Building, srcOf)
	p.setString("region", &p.Region, o.Region, srcOf)
	p.setString("dong", &p.Dong, o.Dong, srcOf)
	p.setString("trade_type", &p.DealType, o.DealType, srcOf)
	setPtr(p, "price", &p.Price, o.Price, srcOf)
	setPtr(p, "area_m2", &p.AreaM2, o.AreaM2, srcOf)
	setPtr(p, "area_pyeong", &p.AreaPyeong, o.AreaPyeong, srcOf)
	if p.AreaM2 != nil && p.AreaPyeong == nil {
		py := naver.Round1(*p.AreaM2 / pyeongInM2)
		p.AreaPyeong = &py
		p.Provenance["area_pyeong"] = p.Provenance["area_m2"]
	}
	p.setString("floor", &p.Floor, o.Floor, srcOf)
	p.setString("direction", &p.Direction, o.Direction, srcOf)
	p.setString("description", &p.Description, o.Description, srcOf)
	p.setString("agent", &p.Agent, o.Agent, srcOf)
	if p.Tags == nil && len(o.Tags) > 0 {
		p.Tags = append([]string(nil), o.Tags...)
		p.Provenance["tags"] = srcOf("tags")
	}
	p.setString("confirmed_date", &p.ConfirmedDate, o.ConfirmedDate, srcOf)
	setPtr(p, "built_year", &p.BuiltYear, o.BuiltYear, srcOf)
	setPtr(p, "households", &p.Households, o.Households, srcOf)
	setPtr(p, "lat", &p.Lat, o.Lat, srcOf)
	setPtr(p, "lng", &p.Lng, o.Lng, srcOf)
}

func (p *Property) setString(field string, dst *string, v string, srcOf func(string) Source) {
	if *dst != "" || v == "" {
		return
	}
	*dst = v
	p.Provenance[field] = srcOf(field)
}

func setPtr[T any](p *Property, field string, dst **T, v *T, srcOf func(string) Source) {
	if *dst != nil || v == nil {
		return
	}
	c := *v
	*dst = &c
	p.Provenance[field] = srcOf(field)
}
