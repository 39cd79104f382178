// Package extraction holds the pure text pipeline between the two model
// calls: OCR output cleanup, message segmentation, and multi-task parsing.
// Everything here is a function of its input; no I/O, no state.
package extraction

import (
	"regexp"
	"strings"
)

// The OCR invoker asks the vision model to wrap its transcription in these
// tags so the actual text can be located unambiguously.
var ocrTagRe = regexp.MustCompile(`(?s)<OCR>\s*(.*?)\s*</OCR>`)

// Lines the vision model sometimes emits around the transcription instead of
// transcribing. Matched against whole trimmed lines.
var ocrDropLineRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^here'?s\s+a\s+text\s+message.*$`),
	regexp.MustCompile(`(?i)^the\s+time\s+is\s+.*$`),
	regexp.MustCompile(`(?i)^the\s+text\s+message\s+indicates.*$`),
}

var analysisDropLineRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^here'?s\s+a\s+text\s+message.*$`),
	regexp.MustCompile(`(?i)^the\s+time\s+is\s+.*$`),
	regexp.MustCompile(`(?i)^this\s+is\s+a\s+text\s+message.*$`),
}

// ExtractOCRText turns the raw vision-model response into clean OCR text:
// content between <OCR>...</OCR> (the whole text when the tags are absent),
// one layer of surrounding quotes removed, and known meta-narration lines
// dropped. Idempotent: applying it to its own output is a no-op.
func ExtractOCRText(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	normalized := strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n"))

	inside := normalized
	if m := ocrTagRe.FindStringSubmatch(normalized); m != nil {
		inside = m[1]
	}

	return cleanLines(removeSurrounding(inside, `"`), ocrDropLineRes)
}

// SanitizeForAnalysis strips wrapper quoting and meta-narration from OCR text
// before segmentation. Same cleanup as ExtractOCRText minus the tag match.
func SanitizeForAnalysis(raw string) string {
	text := strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n"))
	if text == "" {
		return ""
	}
	return cleanLines(removeSurrounding(text, `"`), analysisDropLineRes)
}

// cleanLines walks the text line by line, dropping lines that match any of
// the given patterns and trimming per-line quotes. Blank lines survive so
// downstream segmentation still sees message boundaries.
func cleanLines(text string, drop []*regexp.Regexp) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		t := strings.TrimSpace(line)
		if t == "" {
			out = append(out, "")
			continue
		}
		if matchesAny(t, drop) {
			continue
		}
		out = append(out, strings.Trim(t, `"`))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func matchesAny(s string, res []*regexp.Regexp) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// removeSurrounding strips one layer of the given quote from both ends,
// only when both are present.
func removeSurrounding(s, quote string) string {
	t := strings.TrimSpace(s)
	if len(t) >= 2*len(quote) && strings.HasPrefix(t, quote) && strings.HasSuffix(t, quote) {
		return strings.TrimSpace(t[len(quote) : len(t)-len(quote)])
	}
	return t
}

// Heuristics for rejecting "summarized" OCR output. Vision models tend to
// narrate small or dense UI text instead of transcribing it; a transcription
// has line breaks and punctuation, a narration reads like one sentence.
// Thresholds are empirical and tunable, not load-bearing.
const summaryMaxChars = 180

var summaryTriggers = []string{
	"indicates that",
	"the text message",
	"this message",
	"suggests that",
	"here's a text message",
	"the time is",
}

// LooksLikeSummary reports whether OCR output reads like a narrated summary
// rather than a verbatim transcription.
func LooksLikeSummary(text string) bool {
	low := strings.ToLower(text)
	for _, trigger := range summaryTriggers {
		if strings.Contains(low, trigger) {
			return true
		}
	}

	// A single line with digits but no punctuation tends to be a one-sentence
	// paraphrase of the screen, not its text.
	hasLineBreak := strings.Contains(text, "\n")
	hasDigits := strings.ContainsAny(text, "0123456789")
	hasPunctuation := strings.ContainsAny(text, ":：,，")
	if !hasLineBreak && hasDigits && !hasPunctuation && len([]rune(text)) < summaryMaxChars {
		return true
	}

	return false
}

// LooksIncomplete reports whether OCR output is suspiciously small: at most
// one non-blank line and under the summary length threshold.
func LooksIncomplete(text string) bool {
	nonBlank := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			nonBlank++
		}
	}
	return nonBlank <= 1 && len([]rune(text)) < summaryMaxChars
}
