// Package resolve maps a scene's visual query to a local media file,
// trying stock video and stock photos before falling back to a generated
// placeholder frame. AI image generation serves only queries carrying an
// explicit generation marker, under a per-run quota. Resolution is total:
// every scene gets some asset.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"autoshorts-pipeline/config"
	"autoshorts-pipeline/store"
	"autoshorts-pipeline/types"
)

// errNoResult signals a provider had nothing usable, as opposed to a
// transport failure. Both advance the fallback chain.
var errNoResult = errors.New("no usable result")

type Resolver struct {
	cfg    config.ResolveConfig
	render config.RenderConfig
	st     *store.Store

	httpClient *http.Client
	genClient  *http.Client

	pexelsKey  string
	pixabayKey string

	// Overridable endpoints for tests.
	pexelsVideoURL string
	pexelsPhotoURL string
	pixabayURL     string
	imageGenURL    string
	imageGenBackup string

	aiBudget int
}

func New(cfg config.ResolveConfig, render config.RenderConfig, st *store.Store) *Resolver {
	return &Resolver{
		cfg:            cfg,
		render:         render,
		st:             st,
		httpClient:     &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second},
		genClient:      &http.Client{Timeout: time.Duration(cfg.ImageGenTimeoutSec) * time.Second},
		pexelsKey:      os.Getenv("PEXELS_API_KEY"),
		pixabayKey:     os.Getenv("PIXABAY_API_KEY"),
		pexelsVideoURL: "https://api.pexels.com/videos/search",
		pexelsPhotoURL: "https://api.pexels.com/v1/search",
		pixabayURL:     "https://pixabay.com/api/videos/",
		imageGenURL:    cfg.ImageGenURL,
		imageGenBackup: cfg.ImageGenBackupURL,
		aiBudget:       render.AIQuota,
	}
}

// Resolve finds a visual for one scene. It never returns an error: the last
// rung of the ladder is a locally generated placeholder frame.
func (r *Resolver) Resolve(ctx context.Context, scene types.Scene, session string) types.SceneAsset {
	query, wantAI := ParseQuery(scene.VisualQuery)
	if query == "" {
		query = "abstract background"
	}

	if wantAI {
		if r.aiBudget > 0 {
			path, err := r.generateImage(ctx, query, session, scene.Index)
			if err == nil {
				r.aiBudget--
				log.Printf("[resolve] ✅ scene %d: AI image for %q", scene.Index, query)
				return types.SceneAsset{Path: path, Kind: types.AssetAIImage}
			}
			log.Printf("[resolve] ⚠️ scene %d: AI generation failed: %v", scene.Index, err)
		} else {
			log.Printf("[resolve] ⚠️ scene %d: AI budget spent, using stock for %q", scene.Index, query)
		}
	}

	if path, err := r.pexelsVideo(ctx, query, session, scene.Index); err == nil {
		log.Printf("[resolve] ✅ scene %d: stock video for %q", scene.Index, query)
		return types.SceneAsset{Path: path, Kind: types.AssetVideo}
	} else if !errors.Is(err, errNoResult) {
		log.Printf("[resolve] ⚠️ scene %d: pexels video: %v", scene.Index, err)
	}

	if path, err := r.pixabayVideo(ctx, query, session, scene.Index); err == nil {
		log.Printf("[resolve] ✅ scene %d: pixabay video for %q", scene.Index, query)
		return types.SceneAsset{Path: path, Kind: types.AssetVideo}
	} else if !errors.Is(err, errNoResult) {
		log.Printf("[resolve] ⚠️ scene %d: pixabay video: %v", scene.Index, err)
	}

	if path, err := r.pexelsPhoto(ctx, query, session, scene.Index); err == nil {
		log.Printf("[resolve] ✅ scene %d: stock photo for %q", scene.Index, query)
		return types.SceneAsset{Path: path, Kind: types.AssetPhoto}
	} else if !errors.Is(err, errNoResult) {
		log.Printf("[resolve] ⚠️ scene %d: pexels photo: %v", scene.Index, err)
	}

	path, err := r.placeholder(session, scene.Index)
	if err != nil {
		// Last rung writes a local PNG; failure here means the work dir
		// itself is broken. The asset keeps its kind with no path so the
		// scene still resolves, and the compositor drops it downstream.
		log.Printf("[resolve] ⚠️ scene %d: placeholder failed, work dir unusable: %v", scene.Index, err)
		return types.SceneAsset{Kind: types.AssetPlaceholder}
	}
	log.Printf("[resolve] ⚠️ scene %d: placeholder frame for %q", scene.Index, query)
	return types.SceneAsset{Path: path, Kind: types.AssetPlaceholder}
}

// ParseQuery strips the AI-generation marker from a visual query and reports
// whether it was present. Accepted markers: an "AI:" prefix or a leading
// "[AI]" tag, case-insensitive.
func ParseQuery(q string) (query string, wantAI bool) {
	q = strings.TrimSpace(q)
	upper := strings.ToUpper(q)
	switch {
	case strings.HasPrefix(upper, "AI:"):
		return strings.TrimSpace(q[3:]), true
	case strings.HasPrefix(upper, "[AI]"):
		return strings.TrimSpace(q[4:]), true
	}
	return q, false
}

// download streams a remote file to path, removing partial output on failure.
func (r *Resolver) download(ctx context.Context, client *http.Client, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n < 100 {
		err = fmt.Errorf("download %s: suspiciously small (%d bytes)", url, n)
	}
	if err != nil {
		os.Remove(path)
		return err
	}
	return nil
}
