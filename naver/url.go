package naver

import (
	"regexp"
	"strconv"
)

// idMatcher is one recognized listing URL shape. listing and complex are
// submatch indexes; complex is 0 when the shape carries no complex id.
type idMatcher struct {
	name    string
	re      *regexp.Regexp
	listing int
	complex int
}

// Matchers are tried in order and the first match wins.
var idMatchers = []idMatcher{
	{
		name:    "complex_article",
		re:      regexp.MustCompile(`new\.land\.naver\.com/complexes/(\d+)\?.*articleNo=(\d+)`),
		listing: 2,
		complex: 1,
	},
	{
		name:    "article_path",
		re:      regexp.MustCompile(`fin\.land\.naver\.com/articles/(\d+)`),
		listing: 1,
	},
	{
		name:    "complex_info_article",
		re:      regexp.MustCompile(`m\.land\.naver\.com/complex/info/(\d+)\?.*articleNo=(\d+)`),
		listing: 2,
		complex: 1,
	},
	{
		name:    "article_param",
		re:      regexp.MustCompile(`m\.land\.naver\.com.*articleNo=(\d+)`),
		listing: 1,
	},
}

var reMapCenter = regexp.MustCompile(`[?&]ms=([0-9.]+),([0-9.]+)`)

// ListingReference identifies the listing a user pasted.
type ListingReference struct {
	ListingID string `json:"listing_id"`
	ComplexID string `json:"complex_id,omitempty"`
	SourceURL string `json:"source_url"`
}

// ExtractIDs returns the listing and complex ids encoded in rawURL. Both are
// empty when no known shape matches.
func ExtractIDs(rawURL string) (listingID, complexID string) {
	for _, m := range idMatchers {
		sub := m.re.FindStringSubmatch(rawURL)
		if sub == nil {
			continue
		}
		listingID = sub[m.listing]
		if m.complex > 0 {
			complexID = sub[m.complex]
		}
		return listingID, complexID
	}
	return "", ""
}

// ParseReference is ExtractIDs packaged as a ListingReference.
func ParseReference(rawURL string) (ListingReference, bool) {
	listingID, complexID := ExtractIDs(rawURL)
	ref := ListingReference{ListingID: listingID, ComplexID: complexID, SourceURL: rawURL}
	return ref, listingID != ""
}

// CoordinatesFromURL reads the map center from an "ms=lat,lng,zoom" parameter.
func CoordinatesFromURL(rawURL string) (lat, lng float64, ok bool) {
	sub := reMapCenter.FindStringSubmatch(rawURL)
	if sub == nil {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(sub[1], 64)
	lng, err2 := strconv.ParseFloat(sub[2], 64)
	if err1 != nil || err2 != nil || lat == 0 || lng == 0 {
		return 0, 0, false
	}
	return lat, lng, true
}
