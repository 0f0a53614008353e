package safety

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func pngImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 120, G: 180, B: 240, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func imageServer(t *testing.T, data []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(data)
		case "/broken.png":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEvaluateImageSafe(t *testing.T) {
	srv := imageServer(t, pngImage(t))
	model := &fakeModel{imageResponse: `{"isSafe": true, "riskLevel": "none", "issues": [], "recommendation": "approve", "reasoning": "Cheerful scene.", "visualDescription": "A blue square."}`}
	e := NewImageEvaluator(testLogger(t), model)

	v := e.EvaluateImage(context.Background(), srv.URL+"/ok.png", "7-8", "a story about squares")
	if !v.IsSafe {
		t.Fatal("expected safe verdict")
	}
	if v.AlertMessage != nil {
		t.Errorf("alert message = %q, want nil for safe image", *v.AlertMessage)
	}
	if v.ImageURL != srv.URL+"/ok.png" {
		t.Errorf("image url = %q", v.ImageURL)
	}
	if v.VisualDescription != "A blue square." {
		t.Errorf("visual description = %q", v.VisualDescription)
	}
	if model.lastMime != "image/png" {
		t.Errorf("mime = %q, want image/png", model.lastMime)
	}
	if !strings.Contains(model.lastUser, "Story context: a story about squares") {
		t.Error("prompt missing story context")
	}
}

func TestEvaluateImageUnsafe(t *testing.T) {
	srv := imageServer(t, pngImage(t))
	model := &fakeModel{imageResponse: `{
		"isSafe": false,
		"riskLevel": "medium",
		"issues": [{"category": "disturbing", "severity": "medium", "description": "shadowy figure", "location": "background"}],
		"recommendation": "regenerate",
		"reasoning": "Background figure may frighten younger readers."
	}`}
	e := NewImageEvaluator(testLogger(t), model)

	v := e.EvaluateImage(context.Background(), srv.URL+"/ok.png", "7-8", "")
	if v.IsSafe {
		t.Fatal("expected unsafe verdict")
	}
	if v.Recommendation != RecommendRegenerate {
		t.Errorf("recommendation = %q, want regenerate", v.Recommendation)
	}
	if len(v.Issues) != 1 || v.Issues[0].Location != "background" {
		t.Errorf("issues = %+v", v.Issues)
	}
	if v.AlertMessage == nil {
		t.Fatal("unsafe verdict must carry an alert message")
	}
	if !strings.Contains(*v.AlertMessage, "flagged and will be reviewed") {
		t.Errorf("alert message = %q", *v.AlertMessage)
	}
}

func TestEvaluateImageFailsClosedOnDownloadError(t *testing.T) {
	srv := imageServer(t, pngImage(t))
	model := &fakeModel{imageResponse: `{"isSafe": true}`}
	e := NewImageEvaluator(testLogger(t), model)

	v := e.EvaluateImage(context.Background(), srv.URL+"/broken.png", "9-10", "")
	if v.IsSafe {
		t.Fatal("image safety must fail closed on download failure")
	}
	if v.RiskLevel != RiskUnknown {
		t.Errorf("risk level = %q, want unknown", v.RiskLevel)
	}
	if v.AlertMessage == nil || !strings.Contains(*v.AlertMessage, "held for manual review") {
		t.Errorf("alert message = %v", v.AlertMessage)
	}
}

func TestEvaluateImageFailsClosedOnUndecodableData(t *testing.T) {
	srv := imageServer(t, []byte("this is not an image"))
	model := &fakeModel{imageResponse: `{"isSafe": true}`}
	e := NewImageEvaluator(testLogger(t), model)

	v := e.EvaluateImage(context.Background(), srv.URL+"/ok.png", "7-8", "")
	if v.IsSafe {
		t.Fatal("image safety must fail closed on undecodable image data")
	}
	if model.lastMime != "" {
		t.Error("model should not be invoked for undecodable data")
	}
}

func TestEvaluateImageFailsClosedOnModelError(t *testing.T) {
	srv := imageServer(t, pngImage(t))
	model := &fakeModel{imageErr: errors.New("capability down")}
	e := NewImageEvaluator(testLogger(t), model)

	v := e.EvaluateImage(context.Background(), srv.URL+"/ok.png", "7-8", "")
	if v.IsSafe {
		t.Fatal("image safety must fail closed on model failure")
	}
	if v.RiskLevel != RiskUnknown || v.Recommendation != RecommendReview {
		t.Errorf("got risk=%q recommendation=%q", v.RiskLevel, v.Recommendation)
	}
}

func TestEvaluateBatchPreservesOrderAndAggregates(t *testing.T) {
	srv := imageServer(t, pngImage(t))
	model := &fakeModel{imageResponse: `{"isSafe": true, "riskLevel": "none", "recommendation": "approve"}`}
	e := NewImageEvaluator(testLogger(t), model)

	urls := []string{
		srv.URL + "/ok.png",
		srv.URL + "/broken.png", // fails closed
		srv.URL + "/ok.png",
	}
	batch := e.EvaluateBatch(context.Background(), urls, "7-8", "")

	if batch.TotalImages != 3 || len(batch.Results) != 3 {
		t.Fatalf("total=%d results=%d, want 3", batch.TotalImages, len(batch.Results))
	}
	for i, u := range urls {
		if batch.Results[i].ImageURL != u {
			t.Errorf("result %d url = %q, want %q", i, batch.Results[i].ImageURL, u)
		}
	}
	if batch.AllSafe {
		t.Error("batch with a failed image must not be all-safe")
	}
	if batch.FlaggedImages != 1 {
		t.Errorf("flagged = %d, want 1", batch.FlaggedImages)
	}
	if !batch.Results[0].IsSafe || batch.Results[1].IsSafe || !batch.Results[2].IsSafe {
		t.Errorf("per-result safety = %v %v %v", batch.Results[0].IsSafe, batch.Results[1].IsSafe, batch.Results[2].IsSafe)
	}
}

func TestEvaluateBatchEmpty(t *testing.T) {
	model := &fakeModel{}
	e := NewImageEvaluator(testLogger(t), model)

	batch := e.EvaluateBatch(context.Background(), nil, "7-8", "")
	if !batch.AllSafe {
		t.Error("empty batch should be all-safe")
	}
	if batch.TotalImages != 0 || batch.FlaggedImages != 0 || batch.TotalIssues != 0 {
		t.Errorf("counts = %d/%d/%d, want zeros", batch.TotalImages, batch.FlaggedImages, batch.TotalIssues)
	}
}
