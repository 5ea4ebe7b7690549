package price

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"4억 2,800", 42800, true},
		{"4억2800", 42800, true},
		{"2억", 20000, true},
		{"8,500", 8500, true},
		{"8,500만원", 8500, true},
		{" 12억 3,456만 ", 123456, true},
		{"1억/50", 10000, true},
		{"", 0, false},
		{"0", 0, false},
		{"가격 미확인", 0, false},
		{"4억 2천", 0, false},
		{"abc", 0, false},
		{"-500", 0, false},
		{"1844674407370956억", 0, false},
		{"922337203685477억 9999999", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tc := range cases {
		got, ok := Parse(tc.in)
		assert.Equal(t, tc.ok, ok, "ok for %q", tc.in)
		assert.Equal(t, tc.want, got, "value for %q", tc.in)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "4억 2,800", Format(42800))
	assert.Equal(t, "2억", Format(20000))
	assert.Equal(t, "8,500만원", Format(8500))
	assert.Equal(t, "12억 3,456", Format(123456))
	assert.Equal(t, Unknown, Format(0))
}

func TestRoundTrip(t *testing.T) {
	for _, p := range []int{8500, 20000, 42800, 123456, 1, 9999, 10001} {
		got, ok := Parse(Format(p))
		require.True(t, ok, "parse %q", Format(p))
		assert.Equal(t, p, got)
	}
	_, ok := Parse(Format(0))
	assert.False(t, ok)
}
