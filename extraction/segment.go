package extraction

import (
	"fmt"
	"regexp"
	"strings"
)

// Message separators, learned from real screenshots: notification shades and
// SMS apps render a timestamp line or the literal "SMS" between messages.
var (
	timestampLineRe = regexp.MustCompile(`(?i)^\s*(\d{1,2}:\d{2})(\s*[AP]M)?\s*$`)

	// Some OCR output glues consecutive same-shaped notifications together
	// with no separator at all. A line that reads like the opening of a new
	// package notification starts a new block even mid-stream.
	newMessageStarterRe = regexp.MustCompile(`(?i)^(you have|you've got|you\s+have\s+an|你有|您有).*(package|parcel|包裹|快递)`)
)

// Segment partitions cleaned OCR text into independent message blocks.
// Pure function of its input; the concatenation of the returned blocks
// preserves every non-blank input line in order.
func Segment(text string) []string {
	var blocks []string
	var current []string

	flush := func() {
		s := strings.TrimSpace(strings.Join(current, "\n"))
		if s != "" {
			blocks = append(blocks, s)
		}
		current = current[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		t := strings.TrimSpace(line)

		isSeparator := t == "" ||
			timestampLineRe.MatchString(t) ||
			strings.Contains(strings.ToUpper(t), "SMS")
		if isSeparator {
			flush()
			continue
		}

		if len(current) > 0 && newMessageStarterRe.MatchString(t) {
			flush()
		}
		current = append(current, t)
	}
	flush()

	return blocks
}

// FormatMultiMessage sanitizes OCR text and, when it contains more than one
// message, reassembles it into one labeled document ("消息 1:\n..." blocks)
// so the analysis model sees explicit message boundaries and cannot attach
// one message's pickup code to another message's task. A single-message text
// passes through without added framing.
func FormatMultiMessage(raw string) string {
	text := SanitizeForAnalysis(raw)
	if text == "" {
		return ""
	}

	blocks := Segment(text)
	if len(blocks) <= 1 {
		return text
	}

	var b strings.Builder
	for i, block := range blocks {
		fmt.Fprintf(&b, "消息 %d:\n%s", i+1, block)
		if i != len(blocks)-1 {
			b.WriteString("\n\n")
		}
	}
	return b.String()
}
