package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/funwriting/ai-agents/internal/logger"
	apperrors "github.com/funwriting/ai-agents/internal/pkg/errors"
)

func testClient(t *testing.T, baseURL string) *client {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return &client{
		log:          log,
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       "test-key",
		textModel:    "gemini-2.5-flash",
		imageModel:   "gemini-2.5-flash-image",
		videoModel:   "veo-3.1-fast-generate-preview",
		httpClient:   &http.Client{Timeout: 5 * time.Second},
		pollInterval: time.Millisecond,
		maxPolls:     3,
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func textResponse(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
}

func TestGenerateText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-2.5-flash:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		var req generateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.SystemInstruction == nil || req.SystemInstruction.Parts[0].Text != "sys" {
			t.Errorf("system instruction not forwarded: %+v", req.SystemInstruction)
		}
		_ = json.NewEncoder(w).Encode(textResponse(`{"ok":true}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	got, err := c.GenerateText(context.Background(), "sys", "user prompt")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if got != `{"ok":true}` {
		t.Fatalf("got %q", got)
	}
}

func TestGenerateTextUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.GenerateText(context.Background(), "", "hi")
	if !errors.Is(err, apperrors.ErrUpstream) {
		t.Fatalf("want ErrUpstream, got %v", err)
	}
}

func TestGenerateTextBlocked(t *testing.T) {
	cases := []struct {
		name string
		body map[string]any
	}{
		{
			name: "prompt_feedback",
			body: map[string]any{
				"promptFeedback": map[string]any{"blockReason": "SAFETY"},
			},
		},
		{
			name: "finish_reason",
			body: map[string]any{
				"candidates": []map[string]any{
					{"finishReason": "SAFETY", "content": map[string]any{}},
				},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(tc.body)
			}))
			defer srv.Close()

			c := testClient(t, srv.URL)
			_, err := c.GenerateText(context.Background(), "", "hi")
			if !errors.Is(err, apperrors.ErrContentBlocked) {
				t.Fatalf("want ErrContentBlocked, got %v", err)
			}
		})
	}
}

func TestGenerateTextWithImageRejectsUndecodable(t *testing.T) {
	c := testClient(t, "http://unused.invalid")
	_, err := c.GenerateTextWithImage(context.Background(), "", "look", []byte("not an image"), "")
	if !errors.Is(err, apperrors.ErrInvalidImage) {
		t.Fatalf("want ErrInvalidImage, got %v", err)
	}
}

func TestGenerateTextWithImage(t *testing.T) {
	img := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateContentRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		parts := req.Contents[0].Parts
		if len(parts) != 2 || parts[1].InlineData == nil {
			t.Errorf("expected text+inline parts, got %+v", parts)
		} else if parts[1].InlineData.MimeType != "image/png" {
			t.Errorf("mime=%q", parts[1].InlineData.MimeType)
		}
		_ = json.NewEncoder(w).Encode(textResponse(`{"isSafe":true}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	got, err := c.GenerateTextWithImage(context.Background(), "sys", "check", img, "image/png")
	if err != nil {
		t.Fatalf("GenerateTextWithImage: %v", err)
	}
	if got == "" {
		t.Fatal("empty response text")
	}
}

func TestGenerateImage(t *testing.T) {
	img := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateContentRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.GenerationConfig == nil || req.GenerationConfig.ImageConfig == nil ||
			req.GenerationConfig.ImageConfig.AspectRatio != "2:3" {
			t.Errorf("aspect ratio not forwarded: %+v", req.GenerationConfig)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{
					{"text": "here is your image"},
					{"inlineData": map[string]any{
						"mimeType": "image/png",
						"data":     base64.StdEncoding.EncodeToString(img),
					}},
				}}},
			},
		})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	out, err := c.GenerateImage(context.Background(), "a friendly dragon", "2:3")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if !bytes.Equal(out.Bytes, img) {
		t.Fatal("decoded bytes do not match")
	}
	if out.MimeType != "image/png" {
		t.Fatalf("mime=%q", out.MimeType)
	}
}

func TestGenerateImageNoInlineData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(textResponse("no image, sorry"))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.GenerateImage(context.Background(), "a dragon", "16:9")
	if !errors.Is(err, apperrors.ErrUpstream) {
		t.Fatalf("want ErrUpstream, got %v", err)
	}
}

func TestGenerateVideoPollsToCompletion(t *testing.T) {
	var polls int
	mp4 := append([]byte{0, 0, 0, 0x18}, []byte("ftypisom....")...)

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/v1beta/models/veo-3.1-fast-generate-preview:predictLongRunning", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-1", "done": false})
	})
	mux.HandleFunc("/v1beta/operations/op-1", func(w http.ResponseWriter, r *http.Request) {
		polls++
		if polls < 2 {
			_ = json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-1", "done": false})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name": "operations/op-1",
			"done": true,
			"response": map[string]any{
				"generateVideoResponse": map[string]any{
					"generatedSamples": []map[string]any{
						{"video": map[string]any{"uri": srv.URL + "/files/clip.mp4"}},
					},
				},
			},
		})
	})
	mux.HandleFunc("/files/clip.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write(mp4)
	})

	c := testClient(t, srv.URL)
	out, err := c.GenerateVideo(context.Background(), "a dragon flying")
	if err != nil {
		t.Fatalf("GenerateVideo: %v", err)
	}
	if !bytes.Equal(out.Bytes, mp4) {
		t.Fatal("video bytes do not match")
	}
	if out.DurationSeconds != 8 {
		t.Fatalf("duration=%d, want 8", out.DurationSeconds)
	}
	if out.MimeType != "video/mp4" {
		t.Fatalf("mime=%q", out.MimeType)
	}
}

func TestGenerateVideoTimesOut(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/v1beta/models/veo-3.1-fast-generate-preview:predictLongRunning", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-2", "done": false})
	})
	mux.HandleFunc("/v1beta/operations/op-2", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-2", "done": false})
	})

	c := testClient(t, srv.URL)
	_, err := c.GenerateVideo(context.Background(), "never finishes")
	if !errors.Is(err, apperrors.ErrGenerationTimeout) {
		t.Fatalf("want ErrGenerationTimeout, got %v", err)
	}
}

func TestGenerateVideoHonorsContextCancel(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/v1beta/models/veo-3.1-fast-generate-preview:predictLongRunning", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-3", "done": false})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := testClient(t, srv.URL)
	c.pollInterval = time.Hour
	_, err := c.GenerateVideo(ctx, "cancelled")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
