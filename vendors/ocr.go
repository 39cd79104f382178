package vendors

import (
	"context"
	"errors"
	"image"

	"github.com/snaptodo/snaptodo/capture"
	"github.com/snaptodo/snaptodo/extraction"
)

// ErrEmptyOCRResult means the model returned nothing usable for the frame.
var ErrEmptyOCRResult = errors.New("ocr result empty or too short")

// A cleaned result of at most this many characters is treated as empty.
const minOCRLength = 5

// strictSuffix is appended to the user prompt on the first attempt. The tag
// wrapper lets us extract the body and detect summary-style answers.
const strictSuffix = `IMPORTANT:
- You are doing OCR. Output ONLY the raw text in the image.
- Do NOT describe, summarize, or explain.
- Do NOT translate.
- Preserve line breaks.
- Wrap the final result strictly between tags:
<OCR>
...
</OCR>`

// hardPrompt replaces the user prompt on the retry attempt. Shorter and
// blunter, to stop the model from summarizing instead of transcribing.
const hardPrompt = `You are an OCR engine.
Return ONLY the text you can read from the image.
No extra words.
No summary.
No translation.
Preserve line breaks.

<OCR>
...text from image...
</OCR>`

// Recognize runs OCR over the frame and returns the extracted text. Small
// text is sensitive to JPEG artifacts, so the first attempt uses standard
// quality and escalates once to high quality when the answer looks like a
// summary or an incomplete transcription. The escalated result is accepted
// as-is; there is no third attempt.
func Recognize(ctx context.Context, client ChatClient, frame image.Image, userPrompt string) (string, error) {
	text, retry, err := recognizeAttempt(ctx, client, frame, userPrompt, 1)
	if err != nil {
		return "", err
	}
	if !retry {
		return text, nil
	}

	logger.Warn().Msg("ocr output looks like a summary, retrying at high quality")
	text, _, err = recognizeAttempt(ctx, client, frame, userPrompt, 2)
	return text, err
}

func recognizeAttempt(ctx context.Context, client ChatClient, frame image.Image, userPrompt string, attempt int) (text string, retry bool, err error) {
	prompt := hardPrompt
	quality := capture.QualityHigh
	if attempt <= 1 {
		prompt = userPrompt + "\n\n" + strictSuffix
		quality = capture.QualityStandard
	}

	jpegData, err := capture.EncodeJPEG(frame, quality)
	if err != nil {
		return "", false, err
	}

	raw, err := client.ChatVision(ctx, prompt, jpegData)
	if err != nil {
		return "", false, err
	}

	extracted := extraction.ExtractOCRText(raw)
	length := len([]rune(extracted))
	logger.Debug().
		Int("attempt", attempt).
		Int("quality", quality).
		Int("length", length).
		Msg("ocr attempt finished")

	// Length is in characters, not bytes: two CJK characters are six bytes
	// but still an empty result.
	if length <= minOCRLength {
		return "", false, ErrEmptyOCRResult
	}

	if attempt == 1 && (extraction.LooksLikeSummary(extracted) || extraction.LooksIncomplete(extracted)) {
		return "", true, nil
	}
	return extracted, false, nil
}
