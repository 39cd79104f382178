package vendors

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"
)

// fakeChat returns scripted vision responses in order and records prompts
type fakeChat struct {
	responses []string
	prompts   []string
	payloads  [][]byte
	err       error
}

func (f *fakeChat) ChatText(ctx context.Context, system, user string) (string, error) {
	return "", errors.New("unexpected text call")
}

func (f *fakeChat) ChatVision(ctx context.Context, prompt string, jpegData []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.prompts = append(f.prompts, prompt)
	f.payloads = append(f.payloads, jpegData)
	i := len(f.prompts) - 1
	if i >= len(f.responses) {
		return "", errors.New("no scripted response")
	}
	return f.responses[i], nil
}

const goodOCR = "<OCR>\n丰巢 取件码: 889901\n西门柜机\n</OCR>"

// Single line with digits and no punctuation reads like a paraphrase
const summaryOCR = "<OCR>a message about package 889901 arriving</OCR>"

func TestRecognize_AcceptsFirstAttempt(t *testing.T) {
	chat := &fakeChat{responses: []string{goodOCR}}

	text, err := Recognize(context.Background(), chat, testFrame(), "transcribe")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "889901") {
		t.Errorf("text = %q", text)
	}
	if len(chat.prompts) != 1 {
		t.Fatalf("expected 1 call, got %d", len(chat.prompts))
	}
	if !strings.HasPrefix(chat.prompts[0], "transcribe\n\n") {
		t.Errorf("user prompt not carried: %q", chat.prompts[0])
	}
	if !strings.Contains(chat.prompts[0], "<OCR>") {
		t.Errorf("strict suffix missing: %q", chat.prompts[0])
	}
}

func TestRecognize_EscalatesExactlyOnceOnSummary(t *testing.T) {
	chat := &fakeChat{responses: []string{summaryOCR, goodOCR}}

	text, err := Recognize(context.Background(), chat, testFrame(), "transcribe")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "889901") {
		t.Errorf("text = %q", text)
	}
	if len(chat.prompts) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(chat.prompts))
	}
	// Retry swaps in the hard prompt and a higher-quality jpeg
	if strings.HasPrefix(chat.prompts[1], "transcribe") {
		t.Errorf("retry should not reuse user prompt: %q", chat.prompts[1])
	}
	if len(chat.payloads[1]) < len(chat.payloads[0]) {
		t.Errorf("retry payload (%d bytes) smaller than first (%d bytes)", len(chat.payloads[1]), len(chat.payloads[0]))
	}
}

func TestRecognize_SecondAttemptAcceptedAsIs(t *testing.T) {
	// Both attempts look like summaries. The second one must still be returned.
	chat := &fakeChat{responses: []string{summaryOCR, summaryOCR}}

	text, err := Recognize(context.Background(), chat, testFrame(), "transcribe")
	if err != nil {
		t.Fatal(err)
	}
	if text == "" {
		t.Error("escalated result discarded")
	}
	if len(chat.prompts) != 2 {
		t.Fatalf("expected exactly 2 calls, got %d", len(chat.prompts))
	}
}

func TestRecognize_EmptyResult(t *testing.T) {
	chat := &fakeChat{responses: []string{"<OCR>ab</OCR>"}}

	_, err := Recognize(context.Background(), chat, testFrame(), "transcribe")
	if !errors.Is(err, ErrEmptyOCRResult) {
		t.Fatalf("err = %v, want ErrEmptyOCRResult", err)
	}
}

func TestRecognize_EmptyResultCJK(t *testing.T) {
	// Five CJK characters are fifteen bytes; the threshold counts characters.
	chat := &fakeChat{responses: []string{"<OCR>你好取件码</OCR>"}}

	_, err := Recognize(context.Background(), chat, testFrame(), "transcribe")
	if !errors.Is(err, ErrEmptyOCRResult) {
		t.Fatalf("err = %v, want ErrEmptyOCRResult", err)
	}
}

func TestRecognize_NetworkErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	chat := &fakeChat{err: boom}

	_, err := Recognize(context.Background(), chat, testFrame(), "transcribe")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want network error", err)
	}
}

func TestExtractTasks_AppendsInputAfterTemplate(t *testing.T) {
	var gotUser string
	chat := &textFake{fn: func(system, user string) (string, error) {
		gotUser = user
		return "无任务", nil
	}}

	out, err := ExtractTasks(context.Background(), chat, "TEMPLATE", "消息 1:\nhello")
	if err != nil {
		t.Fatal(err)
	}
	if out != "无任务" {
		t.Errorf("out = %q", out)
	}
	if !strings.HasPrefix(gotUser, "TEMPLATE\n\n待处理文字：\n消息 1:") {
		t.Errorf("prompt assembled wrong: %q", gotUser)
	}
}

type textFake struct {
	fn func(system, user string) (string, error)
}

func (f *textFake) ChatText(ctx context.Context, system, user string) (string, error) {
	return f.fn(system, user)
}

func (f *textFake) ChatVision(ctx context.Context, prompt string, jpegData []byte) (string, error) {
	return "", errors.New("unexpected vision call")
}

func testFrame() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 8), uint8(y * 8), 128, 255})
		}
	}
	return img
}
