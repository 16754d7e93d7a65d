package resolve

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"autoshorts-pipeline/config"
	"autoshorts-pipeline/store"
	"autoshorts-pipeline/types"
)

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	t.Setenv("PEXELS_API_KEY", "")
	t.Setenv("PIXABAY_API_KEY", "")

	dir := t.TempDir()
	st, err := store.New(dir, dir)
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	cfg := config.Default()
	render, err := cfg.RenderConfigFor(config.ModeShorts)
	if err != nil {
		t.Fatalf("render config: %v", err)
	}
	// Small frames keep placeholder generation fast in tests.
	render.Width, render.Height = 108, 192
	return New(cfg.Resolve, render, st)
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		in     string
		query  string
		wantAI bool
	}{
		{"AI: haunted mansion at night", "haunted mansion at night", true},
		{"ai: lowercase marker", "lowercase marker", true},
		{"[AI] cyberpunk city", "cyberpunk city", true},
		{"dark forest", "dark forest", false},
		{"  padded query  ", "padded query", false},
		{"aircraft carrier", "aircraft carrier", false},
	}
	for _, tt := range tests {
		q, ai := ParseQuery(tt.in)
		if q != tt.query || ai != tt.wantAI {
			t.Errorf("ParseQuery(%q) = (%q, %v), want (%q, %v)", tt.in, q, ai, tt.query, tt.wantAI)
		}
	}
}

func TestResolveTotality(t *testing.T) {
	// Every provider down: no API keys, image generation returning 500.
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer down.Close()

	r := testResolver(t)
	r.imageGenURL = down.URL
	r.imageGenBackup = down.URL

	asset := r.Resolve(context.Background(), types.Scene{Index: 0, VisualQuery: "anything"}, "1234")
	if asset.Kind != types.AssetPlaceholder {
		t.Fatalf("expected placeholder, got %+v", asset)
	}
	if !asset.Still() {
		t.Error("placeholder should be a still image")
	}
	info, err := os.Stat(asset.Path)
	if err != nil {
		t.Fatalf("placeholder file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("placeholder file is empty")
	}
}

func TestResolveAIQuota(t *testing.T) {
	body := bytes.Repeat([]byte("png"), 100)
	gen := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer gen.Close()

	r := testResolver(t)
	r.imageGenURL = gen.URL
	r.imageGenBackup = ""
	r.aiBudget = 1

	first := r.Resolve(context.Background(), types.Scene{Index: 0, VisualQuery: "AI: scene one"}, "1234")
	if first.Kind != types.AssetAIImage {
		t.Fatalf("first AI request should succeed, got %+v", first)
	}

	// Budget is spent: the next AI request degrades down the chain.
	second := r.Resolve(context.Background(), types.Scene{Index: 1, VisualQuery: "AI: scene two"}, "1234")
	if second.Kind == types.AssetAIImage {
		t.Errorf("quota exhausted but AI image returned: %+v", second)
	}
	if second.Kind != types.AssetPlaceholder {
		t.Errorf("with stock providers down expected placeholder, got %+v", second)
	}
}

func TestResolveUnmarkedQueryNeverGenerates(t *testing.T) {
	// Generation is gated on the explicit marker: a plain stock query must
	// not burn quota on the image generator even with stock providers down.
	genHits := 0
	gen := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		genHits++
		w.Write(bytes.Repeat([]byte("png"), 100))
	}))
	defer gen.Close()

	r := testResolver(t)
	r.imageGenURL = gen.URL
	r.imageGenBackup = gen.URL
	budget := r.aiBudget

	asset := r.Resolve(context.Background(), types.Scene{Index: 0, VisualQuery: "dark forest"}, "1234")
	if asset.Kind == types.AssetAIImage {
		t.Fatalf("unmarked query produced an AI image: %+v", asset)
	}
	if asset.Kind != types.AssetPlaceholder {
		t.Errorf("with stock providers down expected placeholder, got %+v", asset)
	}
	if genHits != 0 {
		t.Errorf("image generator was called %d times for an unmarked query", genHits)
	}
	if r.aiBudget != budget {
		t.Errorf("quota changed %d -> %d without a marked query", budget, r.aiBudget)
	}
}

func TestResolveBrokenWorkDirKeepsKind(t *testing.T) {
	r := testResolver(t)

	// Replace the work dir with a plain file so even the placeholder write
	// fails. The asset must still carry its kind for the scene.
	work := r.st.WorkDir()
	if err := os.RemoveAll(work); err != nil {
		t.Fatalf("remove work dir: %v", err)
	}
	if err := os.WriteFile(work, []byte("x"), 0644); err != nil {
		t.Fatalf("block work dir: %v", err)
	}

	asset := r.Resolve(context.Background(), types.Scene{Index: 0, VisualQuery: "anything"}, "1234")
	if asset.Kind != types.AssetPlaceholder {
		t.Errorf("expected placeholder kind on broken work dir, got %+v", asset)
	}
	if asset.Path != "" {
		t.Errorf("no file could exist, got path %q", asset.Path)
	}
}

func TestResolveImageGenBackup(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer primary.Close()

	var backupModel string
	backup := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backupModel = r.URL.Query().Get("model")
		w.Write(bytes.Repeat([]byte("x"), 200))
	}))
	defer backup.Close()

	r := testResolver(t)
	r.imageGenURL = primary.URL
	r.imageGenBackup = backup.URL

	asset := r.Resolve(context.Background(), types.Scene{Index: 2, VisualQuery: "[AI] fallback art"}, "1234")
	if asset.Kind != types.AssetAIImage {
		t.Fatalf("backup endpoint should have served, got %+v", asset)
	}
	if backupModel != "turbo" {
		t.Errorf("backup should request the turbo model, got %q", backupModel)
	}
}

func TestPexelsVideoAspectFilter(t *testing.T) {
	fileServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte("v"), 500))
	}))
	defer fileServer.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			http.Error(w, "no auth", http.StatusUnauthorized)
			return
		}
		fmt.Fprintf(w, `{"videos":[
			{"width":1920,"height":1080,"duration":10,"video_files":[
				{"width":1920,"height":1080,"quality":"hd","link":"%s/landscape.mp4"}]},
			{"width":1080,"height":1920,"duration":2,"video_files":[
				{"width":1080,"height":1920,"quality":"hd","link":"%s/short.mp4"}]},
			{"width":1080,"height":1920,"duration":12,"video_files":[
				{"width":1080,"height":1920,"quality":"hd","link":"%s/good.mp4"}]}
		]}`, fileServer.URL, fileServer.URL, fileServer.URL)
	}))
	defer api.Close()

	r := testResolver(t)
	r.pexelsKey = "test-key"
	r.pexelsVideoURL = api.URL

	path, err := r.pexelsVideo(context.Background(), "city", "1234", 0)
	if err != nil {
		t.Fatalf("pexelsVideo: %v", err)
	}
	// Only the 12s portrait clip passes the duration and aspect filters.
	if _, err := os.Stat(path); err != nil {
		t.Errorf("downloaded clip missing: %v", err)
	}
}

func TestPexelsVideoNoKey(t *testing.T) {
	r := testResolver(t)
	if _, err := r.pexelsVideo(context.Background(), "city", "1234", 0); err != errNoResult {
		t.Errorf("missing key should report errNoResult, got %v", err)
	}
}
