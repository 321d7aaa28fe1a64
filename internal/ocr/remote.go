package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
)

// RemoteEngine calls an HTTP OCR service instead of the local tesseract
// binary. The service contract is strict: it must answer with a JSON array
// of detections, each carrying exactly one (text, confidence) pair; any
// other shape is rejected at this boundary so the core never sees it.
type RemoteEngine struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

type remoteRequest struct {
	Image  string `json:"image"` // base64-encoded photo bytes
	Locale string `json:"locale,omitempty"`
}

type remoteResponse struct {
	Detections []Detection `json:"detections"`
}

func NewRemoteEngine(url string, client *http.Client, logger *slog.Logger) *RemoteEngine {
	if client == nil {
		client = &http.Client{Timeout: 45 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteEngine{url: url, client: client, logger: logger}
}

// Detect posts the photo and validates the response against the detection
// schema before decoding it.
func (r *RemoteEngine) Detect(ctx context.Context, path string) ([]Detection, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}

	body, status, err := r.sendJSON(ctx, remoteRequest{
		Image: base64.StdEncoding.EncodeToString(raw),
	})
	if err != nil {
		return nil, fmt.Errorf("remote ocr (status %d): %w", status, err)
	}

	if err := validateDetectionResponse(body); err != nil {
		return nil, fmt.Errorf("remote ocr contract: %w", err)
	}

	var resp remoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode remote ocr response: %w", err)
	}
	return resp.Detections, nil
}

// sendJSON posts a JSON body and returns the raw response. Logged with a
// request id so a misbehaving OCR service can be traced per call.
func (r *RemoteEngine) sendJSON(ctx context.Context, body any) ([]byte, int, error) {
	reqID := uuid.New().String()
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("encode json: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(bs))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	r.logger.Debug("ocr.http.request", "req_id", reqID, "url", r.url, "content_length", len(bs))

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error("ocr.http.send_error", "req_id", reqID, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			r.logger.Warn("ocr.http.response_body_close_error", "req_id", reqID, "error", cerr)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)

	r.logger.Debug("ocr.http.response", "req_id", reqID, "status", resp.StatusCode,
		"bytes", len(raw), "elapsed_ms", time.Since(start).Milliseconds())

	if resp.StatusCode/100 != 2 {
		return raw, resp.StatusCode, fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}
	return raw, resp.StatusCode, nil
}
