package wishlist

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/HAAN6892/real-estate-monitor/internal/price"
)

// FormatCard renders the registration summary sent back to the user.
func FormatCard(res Result) string {
	it := res.Item
	if res.Duplicate {
		if it.Status == StatusURLOnly {
			return "⚠️ 이미 등록된 URL입니다."
		}
		return "⚠️ 이미 등록된 매물입니다: " + it.DisplayName()
	}
	if it.Status == StatusURLOnly {
		return fmt.Sprintf("📌 관심 매물 등록! (#%d)\n(상세 정보 파싱 실패, 링크만 저장)\n\n📎 %s\n\n현재 관심 매물: %d건",
			it.ID, it.SourceURL, res.Total)
	}

	lines := []string{
		fmt.Sprintf("📌 관심 매물 등록! (#%d)", it.ID),
		"",
		joinNonEmpty("🏠 "+it.DisplayName(), it.Region),
		joinNonEmpty("💰 "+dealText(it), areaText(it)),
	}

	var meta []string
	if it.BuiltYear != nil && *it.BuiltYear > 0 {
		meta = append(meta, strconv.Itoa(*it.BuiltYear)+"년")
	}
	if it.Households != nil && *it.Households > 0 {
		meta = append(meta, price.Group(*it.Households)+"세대")
	}
	if len(meta) > 0 {
		lines = append(lines, "🏗️ "+strings.Join(meta, " | "))
	}
	if it.Floor != "" {
		lines = append(lines, joinNonEmpty("📐 "+it.Floor+"층", it.Direction))
	}
	lines = append(lines,
		"📎 "+it.SourceURL,
		"",
		fmt.Sprintf("현재 관심 매물: %d건", res.Total),
	)
	return strings.Join(lines, "\n")
}

// FormatList renders one line per item in the order given.
func FormatList(items []Item) string {
	if len(items) == 0 {
		return "📋 등록된 관심 매물이 없습니다."
	}
	lines := []string{fmt.Sprintf("📋 관심 매물 (%d건)", len(items)), ""}
	for _, it := range items {
		parts := []string{fmt.Sprintf("#%d %s", it.ID, it.DisplayName())}
		if it.DealType != "" || priceOf(it) > 0 {
			parts = append(parts, dealText(it))
		}
		if it.AreaPyeong != nil && *it.AreaPyeong > 0 {
			parts = append(parts, fmt.Sprintf("%.0f평", *it.AreaPyeong))
		}
		lines = append(lines, "  "+strings.Join(parts, " | "))
	}
	return strings.Join(lines, "\n")
}

func dealText(it Item) string {
	return strings.TrimSpace(it.DealType + " " + price.Format(priceOf(it)))
}

func areaText(it Item) string {
	if it.AreaM2 == nil || *it.AreaM2 <= 0 {
		return ""
	}
	m2 := strconv.FormatFloat(*it.AreaM2, 'f', -1, 64)
	if it.AreaPyeong == nil || *it.AreaPyeong <= 0 {
		return "전용 " + m2 + "㎡"
	}
	return fmt.Sprintf("전용 %s㎡(%.0f평)", m2, *it.AreaPyeong)
}

func joinNonEmpty(head, tail string) string {
	if tail == "" {
		return head
	}
	return head + " | " + tail
}
