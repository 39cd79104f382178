package vendors

import (
	"context"
	"strings"
)

// ExtractTasks sends the segmented OCR text to the analysis model using the
// given prompt template. One call, no retry; the caller decides what a
// failure means for the capture.
func ExtractTasks(ctx context.Context, client ChatClient, template, segmented string) (string, error) {
	var b strings.Builder
	b.WriteString(template)
	b.WriteString("\n\n待处理文字：\n")
	b.WriteString(segmented)

	raw, err := client.ChatText(ctx, "", b.String())
	if err != nil {
		return "", err
	}

	logger.Debug().Int("length", len(raw)).Msg("analysis model answered")
	return raw, nil
}
