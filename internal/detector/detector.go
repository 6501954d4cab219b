package detector

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/12Rushikesh/damage-agent/internal/config"
)

// Detector produces per-label confidences and bounding boxes for an image.
type Detector interface {
	Detect(ctx context.Context, imagePath string) (*Result, error)
}

// HTTPDetector calls an external object-detection endpoint. The endpoint
// receives the base64-encoded image and answers with predictions, boxes and
// the image dimensions.
type HTTPDetector struct {
	baseURL string
	client  *http.Client
}

// NewHTTPDetector creates a detector client for the configured endpoint.
func NewHTTPDetector(cfg config.DetectorConfig) *HTTPDetector {
	return &HTTPDetector{
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

type detectRequest struct {
	Image string `json:"image"`
	Name  string `json:"name"`
}

func (d *HTTPDetector) Detect(ctx context.Context, imagePath string) (*Result, error) {
	raw, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("reading image %s: %w", imagePath, err)
	}

	body, err := json.Marshal(detectRequest{
		Image: base64.StdEncoding.EncodeToString(raw),
		Name:  filepath.Base(imagePath),
	})
	if err != nil {
		return nil, fmt.Errorf("marshalling detect request: %w", err)
	}

	url := d.baseURL + "/detect"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating detect request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := d.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("detector request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading detector response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detector returned status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var result Result
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshalling detector response: %w", err)
	}
	if result.Predictions == nil {
		result.Predictions = Summary{}
	}
	return &result, nil
}
