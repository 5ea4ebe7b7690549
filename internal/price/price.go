// Package price converts between listing price text and integer amounts in
// 만원 (10,000 KRW), the unit every provider quotes prices in.
package price

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// EokInMan is the number of 만원 in one 억.
	EokInMan = 10000

	eokMarker = "억"
	manSuffix = "만원"
	manShort  = "만"

	// Unknown is rendered for amounts that carry no price.
	Unknown = "가격 미확인"
)

var printer = message.NewPrinter(language.Korean)

// Parse turns "4억 2,800", "2억", "8,500" or "8,500만원" into 만원.
// Rent notation "1억/50" yields the deposit. The second return value is false
// for empty, zero or non-numeric input.
func Parse(text string) (int, bool) {
	s := strings.Join(strings.Fields(text), "")
	s = strings.ReplaceAll(s, ",", "")
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, manSuffix)
	s = strings.TrimSuffix(s, manShort)
	if s == "" {
		return 0, false
	}

	total := 0
	if major, minor, found := strings.Cut(s, eokMarker); found {
		if major != "" {
			n, ok := atoi(major)
			if !ok || n > math.MaxInt/EokInMan {
				return 0, false
			}
			total = n * EokInMan
		}
		if minor != "" {
			n, ok := atoi(minor)
			if !ok || n > math.MaxInt-total {
				return 0, false
			}
			total += n
		}
	} else {
		n, ok := atoi(s)
		if !ok {
			return 0, false
		}
		total = n
	}
	if total <= 0 {
		return 0, false
	}
	return total, true
}

// Format renders an amount in 만원 the way listings display it:
// 42800 -> "4억 2,800", 20000 -> "2억", 8500 -> "8,500만원".
func Format(amount int) string {
	if amount <= 0 {
		return Unknown
	}
	if amount < EokInMan {
		return Group(amount) + manSuffix
	}
	out := strconv.Itoa(amount/EokInMan) + eokMarker
	if rem := amount % EokInMan; rem > 0 {
		out += " " + Group(rem)
	}
	return out
}

// Group renders n with Korean thousands separators.
func Group(n int) string { return printer.Sprintf("%d", n) }

func atoi(s string) (int, bool) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
