package naver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractIDs(t *testing.T) {
	cases := []struct {
		name, url, listing, complex string
	}{
		{"new land complex", "https://new.land.naver.com/complexes/12345?ms=37.3,127.1,17&articleNo=2512345678", "2512345678", "12345"},
		{"fin land article", "https://fin.land.naver.com/articles/2498765432", "2498765432", ""},
		{"mobile complex info", "https://m.land.naver.com/complex/info/111?tradTpCd=A1&articleNo=999", "999", "111"},
		{"mobile article param", "https://m.land.naver.com/article/info?articleNo=777", "777", ""},
		{"unknown host", "https://example.com/listing/1?articleNo=5", "", ""},
		{"empty", "", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			listing, complex := ExtractIDs(tc.url)
			assert.Equal(t, tc.listing, listing)
			assert.Equal(t, tc.complex, complex)
		})
	}
}

func TestExtractIDsFirstMatcherWins(t *testing.T) {
	// Matches the complex+listing shape and, through the embedded redirect,
	// the mobile articleNo-only shape. The first shape decides.
	url := "https://new.land.naver.com/complexes/4321?back=m.land.naver.com/x&articleNo=8765"
	assert.True(t, idMatchers[3].re.MatchString("m.land.naver.com/x&articleNo=8765"))

	listing, complex := ExtractIDs(url)
	assert.Equal(t, "8765", listing)
	assert.Equal(t, "4321", complex)
}

func TestParseReference(t *testing.T) {
	ref, ok := ParseReference("https://fin.land.naver.com/articles/42")
	assert.True(t, ok)
	assert.Equal(t, ListingReference{ListingID: "42", SourceURL: "https://fin.land.naver.com/articles/42"}, ref)

	ref, ok = ParseReference("https://land.example.org")
	assert.False(t, ok)
	assert.Equal(t, "https://land.example.org", ref.SourceURL)
}

func TestCoordinatesFromURL(t *testing.T) {
	lat, lng, ok := CoordinatesFromURL("https://new.land.naver.com/complexes?ms=37.2705,127.1234,17&a=APT")
	assert.True(t, ok)
	assert.InDelta(t, 37.2705, lat, 1e-9)
	assert.InDelta(t, 127.1234, lng, 1e-9)

	_, _, ok = CoordinatesFromURL("https://new.land.naver.com/complexes/1?articleNo=2")
	assert.False(t, ok)
}
