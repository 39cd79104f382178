package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/snaptodo/snaptodo/capture"
	"github.com/snaptodo/snaptodo/config"
	"github.com/snaptodo/snaptodo/log"
	"github.com/snaptodo/snaptodo/pipeline"
)

var captureLogger = log.GetLogger("ApiCapture")

// Uploaded frames are decoded in memory; anything bigger than this is
// not a screenshot.
const maxFrameBytes = 32 << 20

// captureRequest is the JSON form of the authorization handoff
type captureRequest struct {
	ResultCode int    `json:"resultCode"`
	Token      string `json:"token"`
}

// PostCapture handles POST /api/capture.
//
// Two shapes are accepted: a JSON authorization handoff, in which case the
// frame is picked up from the configured drop path, or a multipart form with
// the handoff fields plus an uploaded frame (JPEG, PNG or HEIC).
func (h *Handlers) PostCapture(c *gin.Context) {
	auth, src, err := parseCaptureRequest(c)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	sessionID, err := h.Runner.Submit(auth, src)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrNotAuthorized):
			RespondForbidden(c, "capture not authorized")
		case errors.Is(err, pipeline.ErrCaptureInFlight):
			RespondConflict(c, "a capture is already being processed")
		default:
			captureLogger.Error().Err(err).Msg("capture submit failed")
			RespondInternalError(c, "failed to start capture")
		}
		return
	}

	captureLogger.Info().Str("session", sessionID).Msg("capture accepted")
	c.JSON(http.StatusAccepted, gin.H{"sessionId": sessionID})
}

func parseCaptureRequest(c *gin.Context) (pipeline.Authorization, capture.Source, error) {
	contentType := c.ContentType()
	if contentType == "application/json" {
		var req captureRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return pipeline.Authorization{}, nil, errors.New("invalid capture request body")
		}
		auth := pipeline.Authorization{ResultCode: req.ResultCode, Token: req.Token}
		return auth, capture.NewFileSource(config.Get().FrameDropPath), nil
	}

	// Multipart: handoff fields plus an uploaded frame
	resultCode, err := strconv.Atoi(c.PostForm("resultCode"))
	if err != nil {
		return pipeline.Authorization{}, nil, errors.New("resultCode missing or not a number")
	}
	auth := pipeline.Authorization{ResultCode: resultCode, Token: c.PostForm("token")}

	file, err := c.FormFile("frame")
	if err != nil {
		return auth, capture.NewFileSource(config.Get().FrameDropPath), nil
	}
	if file.Size > maxFrameBytes {
		return pipeline.Authorization{}, nil, errors.New("frame too large")
	}

	f, err := file.Open()
	if err != nil {
		return pipeline.Authorization{}, nil, errors.New("failed to read frame upload")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return pipeline.Authorization{}, nil, errors.New("failed to read frame upload")
	}

	img, err := capture.DecodeFrame(data, file.Header.Get("Content-Type"))
	if err != nil {
		return pipeline.Authorization{}, nil, errors.New("unsupported frame format")
	}

	return auth, capture.NewMemorySource(img), nil
}
