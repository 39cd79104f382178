// Package pipeline runs the capture-to-task flow: acquire a frame, OCR it,
// segment the text, ask the analysis model for task blocks, and append the
// results to the task list with incremental notification updates.
package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/snaptodo/snaptodo/capture"
	"github.com/snaptodo/snaptodo/extraction"
	"github.com/snaptodo/snaptodo/log"
	"github.com/snaptodo/snaptodo/models"
	"github.com/snaptodo/snaptodo/notifications"
	"github.com/snaptodo/snaptodo/tasks"
	"github.com/snaptodo/snaptodo/vendors"
)

// ResultCodeGranted is the code a granted capture authorization carries.
const ResultCodeGranted = -1

var (
	// ErrCaptureInFlight means a capture is already being processed.
	// Requests are rejected, never queued behind a running one.
	ErrCaptureInFlight = errors.New("capture already in flight")
	// ErrNotAuthorized means the authorization handoff was not granted.
	ErrNotAuthorized = errors.New("capture not authorized")
)

var logger = log.GetLogger("Pipeline")

// Authorization is the handoff from the capture consent flow
type Authorization struct {
	ResultCode int    `json:"resultCode"`
	Token      string `json:"token"`
}

// Granted reports whether the handoff allows a capture to proceed
func (a Authorization) Granted() bool {
	return a.ResultCode == ResultCodeGranted && a.Token != ""
}

// ConfigLoader supplies the AI configuration for one capture. Loaded fresh
// per capture so settings edits apply to the next run without a restart.
type ConfigLoader func() (*models.AIConfig, error)

// ClientFactory builds a chat client for one model endpoint
type ClientFactory func(models.ModelConfig) (vendors.ChatClient, error)

type job struct {
	session *capture.Session
}

// Runner owns the single capture worker goroutine
type Runner struct {
	store      *tasks.Store
	center     *notifications.Center
	loadConfig ConfigLoader
	newClient  ClientFactory
	opts       capture.Options

	stopChan chan struct{}
	wg       sync.WaitGroup
	// Unbuffered by design: a send succeeds only while the worker is idle,
	// which is exactly the reject-while-in-flight contract.
	queue chan job

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewRunner creates a capture runner with its dependencies
func NewRunner(store *tasks.Store, center *notifications.Center, loadConfig ConfigLoader) *Runner {
	return &Runner{
		store:      store,
		center:     center,
		loadConfig: loadConfig,
		newClient: func(cfg models.ModelConfig) (vendors.ChatClient, error) {
			return vendors.NewClient(cfg)
		},
		opts:     capture.DefaultOptions(),
		stopChan: make(chan struct{}),
		queue:    make(chan job),
	}
}

// Start launches the worker goroutine
func (r *Runner) Start() {
	r.wg.Add(1)
	go r.loop()
	logger.Info().Msg("capture runner started")
}

// Stop cancels any in-flight capture and waits for the worker to exit
func (r *Runner) Stop() {
	close(r.stopChan)
	r.CancelCurrent()
	r.wg.Wait()
	logger.Info().Msg("capture runner stopped")
}

// CancelCurrent aborts the capture being processed, if any. The frame source
// is closed and any result still in flight from a model is discarded.
func (r *Runner) CancelCurrent() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Submit hands a granted authorization and frame source to the worker.
// Rejected with ErrCaptureInFlight while a capture is running.
func (r *Runner) Submit(auth Authorization, src capture.Source) (string, error) {
	if !auth.Granted() {
		src.Close()
		return "", ErrNotAuthorized
	}

	session := capture.NewSession(src)
	select {
	case r.queue <- job{session: session}:
		return session.ID, nil
	default:
		src.Close()
		return "", ErrCaptureInFlight
	}
}

func (r *Runner) loop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.stopChan:
			return
		case j := <-r.queue:
			ctx, cancel := context.WithCancel(context.Background())
			r.mu.Lock()
			r.cancel = cancel
			r.mu.Unlock()

			r.process(ctx, j.session)

			r.mu.Lock()
			r.cancel = nil
			r.mu.Unlock()
			cancel()
		}
	}
}

// process runs one capture end to end. Every failure is local to this
// capture: a status line replaces the summary text and the task list is
// left untouched.
func (r *Runner) process(ctx context.Context, session *capture.Session) {
	sessionLog := logger.With().Str("session", session.ID).Logger()

	r.center.SetStatus("正在处理截屏...")

	frame, err := capture.Acquire(ctx, session.Source, r.opts)
	if err != nil {
		if ctx.Err() != nil {
			sessionLog.Info().Msg("capture cancelled during acquisition")
			r.center.RefreshSummary()
			return
		}
		if errors.Is(err, capture.ErrNoFrameAvailable) {
			sessionLog.Error().Msg("no frame after retries")
			r.center.SetStatus("无法获取屏幕画面")
			return
		}
		sessionLog.Error().Err(err).Msg("frame acquisition failed")
		r.center.SetStatus("图片处理失败")
		return
	}
	frame = capture.ScaleToWidth(frame, session.Width)

	cfg, err := r.loadConfig()
	if err != nil {
		sessionLog.Error().Err(err).Msg("failed to load ai config")
		r.center.SetStatus("配置加载失败")
		return
	}
	if cfg.OCR.APIKey == "" {
		r.center.SetStatus("请设置 OCR API Key")
		return
	}

	ocrClient, err := r.newClient(cfg.OCR)
	if err != nil {
		sessionLog.Error().Err(err).Msg("ocr client init failed")
		r.center.SetStatus("请设置 OCR API Key")
		return
	}

	r.center.SetStatus("正在识别文字...")
	text, err := vendors.Recognize(ctx, ocrClient, frame, cfg.OCRPrompt)
	if err != nil {
		if ctx.Err() != nil {
			sessionLog.Info().Msg("capture cancelled during ocr, result discarded")
			r.center.RefreshSummary()
			return
		}
		if errors.Is(err, vendors.ErrEmptyOCRResult) {
			r.center.SetStatus("未识别到有效文字")
			return
		}
		sessionLog.Error().Err(err).Msg("ocr failed")
		r.center.SetStatus("网络错误: " + err.Error())
		return
	}

	if cfg.Analysis.APIKey == "" {
		r.center.SetStatus("请设置分析模型 API Key")
		return
	}
	analysisClient, err := r.newClient(cfg.Analysis)
	if err != nil {
		sessionLog.Error().Err(err).Msg("analysis client init failed")
		r.center.SetStatus("请设置分析模型 API Key")
		return
	}

	r.center.SetStatus("正在智能分析...")
	segmented := extraction.FormatMultiMessage(text)
	raw, err := vendors.ExtractTasks(ctx, analysisClient, cfg.AnalysisPrompt, segmented)
	if err != nil {
		if ctx.Err() != nil {
			sessionLog.Info().Msg("capture cancelled during analysis, result discarded")
			r.center.RefreshSummary()
			return
		}
		sessionLog.Error().Err(err).Msg("analysis failed")
		r.center.SetStatus("分析失败: " + err.Error())
		return
	}
	if raw == "" {
		r.center.SetStatus("分析无结果")
		return
	}

	// Cancellation after the remote call still discards the result
	if ctx.Err() != nil {
		sessionLog.Info().Msg("capture cancelled, analysis result discarded")
		r.center.RefreshSummary()
		return
	}

	blocks := extraction.TasksFromModelOutput(raw)
	if len(blocks) == 0 {
		sessionLog.Info().Msg("no actionable tasks in analysis output")
		r.center.Rebuild()
		return
	}

	rng, err := r.store.Append(blocks)
	if err != nil {
		sessionLog.Error().Err(err).Msg("failed to append tasks")
		r.center.Rebuild()
		return
	}

	sessionLog.Info().Int("tasks", len(blocks)).Int("start", rng.Start).Msg("capture produced tasks")

	// Incremental: publish only the new entries, then update the count
	for _, idx := range rng.Indices() {
		r.center.PostTask(idx)
	}
	r.center.RefreshSummary()
}
