package extraction

import (
	"regexp"
	"strings"
)

// ParsedTask is the structured form of one task block. Empty fields mean the
// model did not supply that information.
type ParsedTask struct {
	Title    string `json:"title"`
	Time     string `json:"time"`
	Location string `json:"location"`
	KeyInfo  string `json:"keyInfo"`
}

// Courier brands users recognize on sight. When one appears anywhere in a
// task block it is folded into the location ("丰巢" + "西门柜机"), because
// "which counter" matters more than the bare place name.
var courierBrands = []string{"顺丰", "丰巢", "菜鸟", "京东", "EMS", "申通", "中通", "圆通", "安能"}

var (
	titleHeadingRe = regexp.MustCompile(`^##\s*`)
	clockTimeRe    = regexp.MustCompile(`\d{1,2}[:：]\d{2}`)
	codeInLineRe   = regexp.MustCompile(`[0-9]{2,}-[0-9A-Za-z-]{2,}|[0-9]{4,}`)
	bareCodeRe     = regexp.MustCompile(`^[0-9A-Za-z-]{4,}$`)
)

// ParseTaskBlock derives the structured fields from one raw task block.
// Deterministic; fallbackTitle is used when the block has no usable first
// line (callers pass something like "待办事项 3").
func ParseTaskBlock(raw, fallbackTitle string) ParsedTask {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			lines = append(lines, t)
		}
	}

	titleLine := fallbackTitle
	if len(lines) > 0 {
		titleLine = lines[0]
	}
	title := strings.TrimSpace(strings.ReplaceAll(titleHeadingRe.ReplaceAllString(titleLine, ""), "**", ""))

	var timeStr, locationStr, keyStr, brandStr string

	var rest []string
	if len(lines) > 1 {
		rest = lines[1:]
	}

	// Labeled pass: "- ⏰ 时间: ..." style lines, value after the last colon
	for _, line := range rest {
		l := strings.TrimSpace(strings.TrimPrefix(line, "-"))

		if brandStr == "" {
			brandStr = findBrand(l)
		}

		low := strings.ToLower(l)
		hasTimeLabel := strings.Contains(l, "时间") || strings.Contains(l, "⏰")
		hasLocationLabel := strings.Contains(l, "地点") || strings.Contains(l, "📍")
		hasKeyLabel := strings.Contains(l, "关键信息") || strings.Contains(l, "🔑") || strings.Contains(low, "key")

		switch {
		case hasTimeLabel && timeStr == "":
			timeStr = cleanValue(extractAfterColon(l))
		case hasLocationLabel && locationStr == "":
			locationStr = cleanValue(extractAfterColon(l))
		case hasKeyLabel && keyStr == "":
			keyStr = cleanValue(extractAfterColon(l))
		}
	}

	// Fallback pass for unlabeled lines (older prompt formats)
	if timeStr == "" || locationStr == "" || keyStr == "" {
		for _, l := range rest {
			low := strings.ToLower(l)
			isTime := clockTimeRe.MatchString(l) || strings.Contains(l, "月") ||
				strings.Contains(low, "今天") || strings.Contains(low, "明天") ||
				strings.Contains(low, "今晚") || strings.Contains(low, "尽快")
			looksLikeCode := codeInLineRe.MatchString(l) || bareCodeRe.MatchString(l)

			if timeStr == "" && isTime {
				timeStr = cleanValue(l)
			}
			if keyStr == "" && looksLikeCode {
				keyStr = cleanValue(l)
			}
			if locationStr == "" && !isTime && !looksLikeCode {
				locationStr = cleanValue(l)
			}
		}
	}

	if isPlaceholder(timeStr) {
		timeStr = ""
	}
	if isPlaceholder(locationStr) {
		locationStr = ""
	}
	if isPlaceholder(keyStr) {
		keyStr = ""
	}

	// Brand merge: fold the courier brand into the location
	if brandStr != "" {
		if locationStr != "" && findBrand(locationStr) == "" {
			locationStr = brandStr + locationStr
		} else if locationStr == "" {
			locationStr = brandStr
		}
	}

	return ParsedTask{
		Title:    title,
		Time:     timeStr,
		Location: locationStr,
		KeyInfo:  keyStr,
	}
}

// findBrand returns the first known courier brand contained in the line
func findBrand(s string) string {
	low := strings.ToLower(s)
	for _, brand := range courierBrands {
		if strings.Contains(low, strings.ToLower(brand)) {
			return brand
		}
	}
	return ""
}

func cleanValue(v string) string {
	v = strings.ReplaceAll(v, "**", "")
	v = strings.ReplaceAll(v, "（", "(")
	v = strings.ReplaceAll(v, "）", ")")
	return strings.TrimSpace(v)
}

// extractAfterColon returns the text after the last colon (ASCII or
// fullwidth) on the line, or the whole line when there is none.
func extractAfterColon(line string) string {
	cleaned := strings.TrimSpace(strings.TrimPrefix(line, "-"))

	idx := strings.LastIndex(cleaned, ":")
	width := 1
	if idxCn := strings.LastIndex(cleaned, "："); idxCn > idx {
		idx = idxCn
		width = len("：")
	}

	if idx >= 0 && idx+width < len(cleaned) {
		return strings.TrimSpace(cleaned[idx+width:])
	}
	return cleaned
}

// isPlaceholder recognizes values meaning "none": the model's explicit 无 /
// 未提及 and leftovers of the prompt's own placeholder instructions.
func isPlaceholder(v string) bool {
	if strings.TrimSpace(v) == "" {
		return true
	}
	s := strings.TrimSpace(strings.ReplaceAll(v, "**", ""))
	return s == "无" || s == "未提及" ||
		strings.Contains(s, "若无则留空") || strings.Contains(s, "若文本未给出")
}
