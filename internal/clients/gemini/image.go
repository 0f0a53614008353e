package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/funwriting/ai-agents/internal/pkg/errors"
)

func base64Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// GenerateImage asks the image model for a single illustration. The response
// is multi-part; the first inline binary part wins. Inline payloads arrive as
// base64 text on the REST surface and must decode cleanly — anything else is
// an error, never a silent fallback.
func (c *client) GenerateImage(ctx context.Context, prompt string, aspectRatio string) (ImageGeneration, error) {
	var out ImageGeneration
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return out, errors.New("image prompt required")
	}

	req := generateContentRequest{
		Contents: []wireContent{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
	}
	if strings.TrimSpace(aspectRatio) != "" {
		req.GenerationConfig = &generationConfig{
			ImageConfig: &imageConfig{AspectRatio: strings.TrimSpace(aspectRatio)},
		}
	}

	resp, err := c.generateContent(ctx, c.imageModel, req)
	if err != nil {
		return out, err
	}
	if reason := blockedReason(resp); reason != "" {
		return out, fmt.Errorf("%w: %s", apperrors.ErrContentBlocked, reason)
	}
	if len(resp.Candidates) == 0 {
		return out, fmt.Errorf("%w: no candidates in image response", apperrors.ErrUpstream)
	}

	for _, p := range resp.Candidates[0].Content.Parts {
		if p.InlineData == nil || p.InlineData.Data == "" {
			continue
		}
		raw, decErr := base64.StdEncoding.DecodeString(p.InlineData.Data)
		if decErr != nil || len(raw) == 0 {
			return out, fmt.Errorf("%w: decode inline image payload: %v", apperrors.ErrInvalidImage, decErr)
		}
		out.Bytes = raw
		out.MimeType = p.InlineData.MimeType
		if out.MimeType == "" {
			out.MimeType = "image/png"
		}
		return out, nil
	}
	return out, fmt.Errorf("%w: no inline image data in response", apperrors.ErrUpstream)
}
