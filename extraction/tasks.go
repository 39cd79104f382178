package extraction

import (
	"regexp"
	"strings"
)

// NoTaskSentinel is what the analysis model outputs when it finds nothing
// actionable.
const NoTaskSentinel = "无任务"

var (
	headingRe   = regexp.MustCompile(`(?m)^##\s+`)
	openFenceRe = regexp.MustCompile("(?s)^```[a-zA-Z0-9_-]*\\s*")
	endFenceRe  = regexp.MustCompile("(?s)```$")
	paragraphRe = regexp.MustCompile(`\n{2,}`)
)

// TasksFromModelOutput splits the analysis model's markdown response into one
// raw block per task. Preferred format is one "## " section per task; output
// from older prompts without headings falls back to blank-line paragraphs.
// Returns nil for the explicit no-task sentinel and for anything that cannot
// be read as blocks at all — malformed output degrades to zero tasks.
func TasksFromModelOutput(raw string) []string {
	normalized := strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n"))
	if normalized == "" {
		return nil
	}

	// Common wrappers and prefixes
	stripped := removeSurrounding(normalized, `"`)
	stripped = strings.TrimPrefix(stripped, "输出：")
	stripped = strings.TrimPrefix(stripped, "Output:")
	stripped = strings.TrimPrefix(stripped, "Task:")
	stripped = strings.TrimSpace(stripped)

	// Some models wrap everything in a code fence
	unfenced := openFenceRe.ReplaceAllString(stripped, "")
	unfenced = endFenceRe.ReplaceAllString(unfenced, "")
	unfenced = strings.TrimSpace(unfenced)

	if unfenced == "" {
		return nil
	}

	// Explicit "nothing to do"
	var lines []string
	for _, line := range strings.Split(unfenced, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			lines = append(lines, t)
		}
	}
	if len(lines) == 1 && lines[0] == NoTaskSentinel {
		return nil
	}
	if containsLine(lines, NoTaskSentinel) && !anyHasPrefix(lines, "## ") {
		return nil
	}

	// Main path: split at "## " headings
	if matches := headingRe.FindAllStringIndex(unfenced, -1); len(matches) > 0 {
		var blocks []string
		for i, m := range matches {
			end := len(unfenced)
			if i+1 < len(matches) {
				end = matches[i+1][0]
			}
			block := strings.TrimSpace(unfenced[m[0]:end])
			if block != "" && block != NoTaskSentinel {
				blocks = append(blocks, block)
			}
		}
		return blocks
	}

	// Fallback: blank-line separated paragraphs
	var blocks []string
	for _, part := range paragraphRe.Split(unfenced, -1) {
		part = strings.TrimSpace(part)
		if part != "" && part != NoTaskSentinel {
			blocks = append(blocks, part)
		}
	}
	return blocks
}

func containsLine(lines []string, s string) bool {
	for _, l := range lines {
		if l == s {
			return true
		}
	}
	return false
}

func anyHasPrefix(lines []string, prefix string) bool {
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}
