package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/funwriting/ai-agents/internal/logger"
	apperrors "github.com/funwriting/ai-agents/internal/pkg/errors"
)

// ImageGeneration is the raw output of an image generation call.
type ImageGeneration struct {
	Bytes    []byte
	MimeType string
}

// VideoGeneration is the raw output of a video generation call.
type VideoGeneration struct {
	Bytes           []byte
	MimeType        string
	DurationSeconds int
}

// Client is the gateway to the generative capability. It normalizes request
// construction and error classification; callers own all fallback policy.
// No retries happen at this layer.
type Client interface {
	// Plain text completion.
	GenerateText(ctx context.Context, system string, user string) (string, error)

	// Multimodal: user prompt + one raster image -> plain text. The image is
	// checked for decodability before the capability is invoked.
	GenerateTextWithImage(ctx context.Context, system string, user string, imageData []byte, mimeType string) (string, error)

	// Image generation. aspectRatio is e.g. "16:9" or "2:3".
	GenerateImage(ctx context.Context, prompt string, aspectRatio string) (ImageGeneration, error)

	// Video generation. Long-running: starts a job, polls to completion, then
	// downloads the result. Honors ctx cancellation between polls.
	GenerateVideo(ctx context.Context, prompt string) (VideoGeneration, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	textModel  string
	imageModel string
	videoModel string
	httpClient *http.Client

	pollInterval time.Duration
	maxPolls     int
}

func NewClient(log *logger.Logger) (Client, error) {
	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
	}
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY (or GOOGLE_API_KEY)")
	}

	baseURL := strings.TrimSpace(os.Getenv("GEMINI_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	textModel := strings.TrimSpace(os.Getenv("GEMINI_TEXT_MODEL"))
	if textModel == "" {
		textModel = "gemini-2.5-flash"
	}
	imageModel := strings.TrimSpace(os.Getenv("GEMINI_IMAGE_MODEL"))
	if imageModel == "" {
		imageModel = "gemini-2.5-flash-image"
	}
	videoModel := strings.TrimSpace(os.Getenv("GEMINI_VIDEO_MODEL"))
	if videoModel == "" {
		videoModel = "veo-3.1-fast-generate-preview"
	}

	timeoutSec := 180
	if v := os.Getenv("GEMINI_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	return &client{
		log:          log.With("client", "gemini"),
		baseURL:      baseURL,
		apiKey:       apiKey,
		textModel:    textModel,
		imageModel:   imageModel,
		videoModel:   videoModel,
		httpClient:   &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		pollInterval: 5 * time.Second,
		maxPolls:     120,
	}, nil
}

type geminiHTTPError struct {
	StatusCode int
	Body       string
}

func (e *geminiHTTPError) Error() string {
	return fmt.Sprintf("gemini http %d: %s", e.StatusCode, e.Body)
}

func (e *geminiHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// -------------------- wire types --------------------

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type wireContent struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type generationConfig struct {
	Temperature *float64     `json:"temperature,omitempty"`
	ImageConfig *imageConfig `json:"imageConfig,omitempty"`
}

type generateContentRequest struct {
	SystemInstruction *wireContent      `json:"systemInstruction,omitempty"`
	Contents          []wireContent     `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content      wireContent `json:"content"`
		FinishReason string      `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// -------------------- transport --------------------

func (c *client) doOnce(ctx context.Context, method, path string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &geminiHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out == nil {
		return nil
	}
	if uErr := json.Unmarshal(raw, out); uErr != nil {
		return fmt.Errorf("gemini decode error: %w; raw=%s", uErr, string(raw))
	}
	return nil
}

func (c *client) generateContent(ctx context.Context, model string, req generateContentRequest) (generateContentResponse, error) {
	var resp generateContentResponse
	path := fmt.Sprintf("/v1beta/models/%s:generateContent", model)
	if err := c.doOnce(ctx, "POST", path, req, &resp); err != nil {
		return resp, fmt.Errorf("%w: %v", apperrors.ErrUpstream, err)
	}
	return resp, nil
}

// blockedReason inspects provider safety feedback before any text extraction.
func blockedReason(resp generateContentResponse) string {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return resp.PromptFeedback.BlockReason
	}
	for _, cand := range resp.Candidates {
		switch cand.FinishReason {
		case "SAFETY", "PROHIBITED_CONTENT", "BLOCKLIST":
			return cand.FinishReason
		}
	}
	return ""
}

func extractText(resp generateContentResponse) string {
	var out strings.Builder
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.Text != "" {
				out.WriteString(p.Text)
			}
		}
		break
	}
	return strings.TrimSpace(out.String())
}

func systemContent(system string) *wireContent {
	system = strings.TrimSpace(system)
	if system == "" {
		return nil
	}
	return &wireContent{Parts: []part{{Text: system}}}
}

func ptrFloat(v float64) *float64 { return &v }

// -------------------- text --------------------

func (c *client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	req := generateContentRequest{
		SystemInstruction: systemContent(system),
		Contents: []wireContent{
			{Role: "user", Parts: []part{{Text: user}}},
		},
		GenerationConfig: &generationConfig{Temperature: ptrFloat(0.2)},
	}

	resp, err := c.generateContent(ctx, c.textModel, req)
	if err != nil {
		return "", err
	}
	if reason := blockedReason(resp); reason != "" {
		return "", fmt.Errorf("%w: %s", apperrors.ErrContentBlocked, reason)
	}
	text := extractText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: no text in model response", apperrors.ErrUpstream)
	}
	return text, nil
}

func (c *client) GenerateTextWithImage(ctx context.Context, system string, user string, imageData []byte, mimeType string) (string, error) {
	if len(imageData) == 0 {
		return "", fmt.Errorf("%w: empty image payload", apperrors.ErrInvalidImage)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(imageData)); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrInvalidImage, err)
	}
	if strings.TrimSpace(mimeType) == "" {
		mimeType = http.DetectContentType(imageData)
	}

	req := generateContentRequest{
		SystemInstruction: systemContent(system),
		Contents: []wireContent{
			{Role: "user", Parts: []part{
				{Text: user},
				{InlineData: &inlineData{
					MimeType: mimeType,
					Data:     base64Encode(imageData),
				}},
			}},
		},
		GenerationConfig: &generationConfig{Temperature: ptrFloat(0.2)},
	}

	resp, err := c.generateContent(ctx, c.textModel, req)
	if err != nil {
		return "", err
	}
	if reason := blockedReason(resp); reason != "" {
		return "", fmt.Errorf("%w: %s", apperrors.ErrContentBlocked, reason)
	}
	text := extractText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: no text in model response", apperrors.ErrUpstream)
	}
	return text, nil
}
