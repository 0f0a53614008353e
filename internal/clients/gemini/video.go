package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/funwriting/ai-agents/internal/pkg/errors"
)

// Veo generation runs as a long-running operation: start the job, poll at a
// fixed interval up to a fixed budget, then download the finished clip.
const defaultVideoDurationSeconds = 8

type longRunningOperation struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Response json.RawMessage `json:"response"`
}

// The finished operation has shown up in two shapes across API revisions;
// both are accepted.
type videoOperationResult struct {
	GenerateVideoResponse *struct {
		GeneratedSamples []struct {
			Video struct {
				URI string `json:"uri"`
			} `json:"video"`
		} `json:"generatedSamples"`
	} `json:"generateVideoResponse"`
	GeneratedVideos []struct {
		Video struct {
			URI string `json:"uri"`
		} `json:"video"`
	} `json:"generatedVideos"`
}

func (c *client) GenerateVideo(ctx context.Context, prompt string) (VideoGeneration, error) {
	var out VideoGeneration
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return out, errors.New("video prompt required")
	}

	startReq := map[string]any{
		"instances": []map[string]any{{"prompt": prompt}},
	}
	var op longRunningOperation
	startPath := fmt.Sprintf("/v1beta/models/%s:predictLongRunning", c.videoModel)
	if err := c.doOnce(ctx, "POST", startPath, startReq, &op); err != nil {
		return out, fmt.Errorf("%w: %v", apperrors.ErrUpstream, err)
	}
	if op.Name == "" {
		return out, fmt.Errorf("%w: video operation missing name", apperrors.ErrUpstream)
	}
	c.log.Info("Video generation started", "operation", op.Name)

	polls := 0
	for !op.Done {
		if polls >= c.maxPolls {
			return out, fmt.Errorf("%w: not done after %d polls", apperrors.ErrGenerationTimeout, polls)
		}
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		case <-time.After(c.pollInterval):
		}
		polls++

		op = longRunningOperation{Name: op.Name}
		if err := c.doOnce(ctx, "GET", "/v1beta/"+strings.TrimPrefix(op.Name, "/"), nil, &op); err != nil {
			return out, fmt.Errorf("%w: poll operation: %v", apperrors.ErrUpstream, err)
		}
	}
	if op.Error != nil {
		return out, fmt.Errorf("%w: video operation failed: %s", apperrors.ErrUpstream, op.Error.Message)
	}
	c.log.Info("Video generation completed", "operation", op.Name, "polls", polls)

	var result videoOperationResult
	if len(op.Response) > 0 {
		if err := json.Unmarshal(op.Response, &result); err != nil {
			return out, fmt.Errorf("%w: decode operation response: %v", apperrors.ErrUpstream, err)
		}
	}
	uri := firstVideoURI(result)
	if uri == "" {
		return out, fmt.Errorf("%w: no generated video in operation response", apperrors.ErrUpstream)
	}

	raw, contentType, err := c.downloadBytes(ctx, uri)
	if err != nil {
		return out, fmt.Errorf("%w: download generated video: %v", apperrors.ErrUpstream, err)
	}
	out.Bytes = raw
	out.MimeType = strings.TrimSpace(strings.Split(contentType, ";")[0])
	if out.MimeType == "" || out.MimeType == "application/octet-stream" {
		out.MimeType = sniffVideoMime(raw)
	}
	out.DurationSeconds = defaultVideoDurationSeconds
	return out, nil
}

func firstVideoURI(result videoOperationResult) string {
	if result.GenerateVideoResponse != nil {
		for _, s := range result.GenerateVideoResponse.GeneratedSamples {
			if s.Video.URI != "" {
				return s.Video.URI
			}
		}
	}
	for _, v := range result.GeneratedVideos {
		if v.Video.URI != "" {
			return v.Video.URI
		}
	}
	return ""
}

func (c *client) downloadBytes(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", err
	}
	if !u.IsAbs() {
		rawURL = c.baseURL + "/" + strings.TrimPrefix(rawURL, "/")
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, "", readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &geminiHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, strings.TrimSpace(resp.Header.Get("Content-Type")), nil
}

func sniffVideoMime(b []byte) string {
	if len(b) >= 12 && bytes.Contains(b[:12], []byte("ftyp")) {
		return "video/mp4"
	}
	if len(b) >= 4 && b[0] == 0x1A && b[1] == 0x45 && b[2] == 0xDF && b[3] == 0xA3 {
		return "video/webm"
	}
	return "video/mp4"
}
