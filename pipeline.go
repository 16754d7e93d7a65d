package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"

	synth "autoshorts-pipeline/01_synth"
	resolve "autoshorts-pipeline/02_resolve"
	composite "autoshorts-pipeline/03_composite"
	stitch "autoshorts-pipeline/04_stitch"
	rescue "autoshorts-pipeline/05_rescue"
	"autoshorts-pipeline/config"
	"autoshorts-pipeline/store"
	"autoshorts-pipeline/types"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

// hindiVoices is the roster for the secondary-language twin render.
var hindiVoices = []string{"hi-IN-SwaraNeural", "hi-IN-MadhurNeural"}

func main() {
	// Load .env (local dev only — CI uses Secrets)
	_ = godotenv.Load()

	var (
		mode       = flag.String("mode", config.ModeShorts, "render mode: Shorts or Long")
		timeline   = flag.String("timeline", "timeline.json", "path to the timeline JSON")
		mood       = flag.String("music", "Upbeat", "background music mood")
		resume     = flag.String("resume", "", "session ID to resume instead of starting fresh")
		translated = flag.String("translated", "", "translated timeline JSON; renders the Hindi twin when set")
		configPath = flag.String("config", "config.yaml", "path to config file")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *mode != config.ModeShorts && *mode != config.ModeLong {
		log.Fatalf("Unknown mode %q (want %s or %s)", *mode, config.ModeShorts, config.ModeLong)
	}
	if _, ok := cfg.Music.Moods[*mood]; !ok {
		log.Printf("⚠️ Unknown mood %q, falling back to Upbeat", *mood)
		*mood = "Upbeat"
	}

	st, err := store.New(cfg.Paths.Work, cfg.Paths.Output)
	if err != nil {
		log.Fatalf("Failed to prepare work dirs: %v", err)
	}

	render, err := cfg.RenderConfigFor(*mode)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	ctx := context.Background()

	if *resume != "" {
		if err := resumeSession(ctx, cfg, st, render, *mood, *resume); err != nil {
			log.Fatalf("❌ Resume failed: %v", err)
		}
		return
	}

	session := fmt.Sprintf("%d", 1000+rand.Intn(9000))
	log.Printf("🎬 Pipeline starting — mode %s, session %s", *mode, session)

	tl, err := types.LoadTimeline(*timeline)
	if err != nil {
		log.Fatalf("Failed to load timeline: %v", err)
	}
	if len(tl) > render.MaxScenes {
		log.Printf("⚠️ Timeline has %d scenes, capping at %d", len(tl), render.MaxScenes)
		tl = tl[:render.MaxScenes]
	}
	if len(tl) == 0 {
		log.Fatal("Timeline is empty")
	}

	// ─────────────────────────────────────────────
	// STAGE 1+2: Narration and visuals, in parallel
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 1+2: Narration + Visuals ━━━")
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return synth.New(cfg.Synth, st).Run(gctx, tl, session)
	})
	g.Go(func() error {
		resolver := resolve.New(cfg.Resolve, render, st)
		for _, scene := range tl {
			resolver.Resolve(gctx, scene, session)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Fatalf("❌ Asset stage failed: %v", err)
	}

	// ─────────────────────────────────────────────
	// STAGE 3: Scene rendering
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 3: Scene Rendering ━━━")
	comp := composite.New(render, cfg.Render, st, cfg.Paths.Assets)
	scenes, err := comp.Run(ctx, tl, session, session)
	if err != nil {
		log.Fatalf("❌ Scene rendering failed: %v", err)
	}

	// ─────────────────────────────────────────────
	// STAGE 4: Stitch + Music
	// ─────────────────────────────────────────────
	log.Println("\n━━━ STAGE 4: Stitch + Music ━━━")
	stitcher := stitch.New(render, cfg.Music, st, cfg.Paths.Assets, cfg.Paths.Songs)
	finished, err := stitcher.Run(ctx, scenes, *mood, session)
	if err != nil {
		log.Fatalf("❌ Stitching failed: %v", err)
	}
	log.Printf("✅ Pipeline complete! Video: %s", finished)

	if *translated != "" {
		if err := renderSecondary(ctx, cfg, st, render, *mood, *translated, session); err != nil {
			log.Printf("⚠️ Hindi twin failed: %v", err)
		}
	}
}

// renderSecondary produces the Hindi twin from a translated timeline: the
// Devanagari audio_text is spoken, the roman text is captioned, and the
// visuals already downloaded for the English session are reused untouched.
func renderSecondary(ctx context.Context, cfg *config.Config, st *store.Store, render config.RenderConfig, mood, timelinePath, visualSession string) error {
	session := visualSession + "_HINDI"
	log.Printf("\n━━━ HINDI TWIN: session %s ━━━", session)

	tl, err := types.LoadTimeline(timelinePath)
	if err != nil {
		return fmt.Errorf("load translated timeline: %w", err)
	}
	if len(tl) > render.MaxScenes {
		tl = tl[:render.MaxScenes]
	}

	syn := synth.New(cfg.Synth, st)
	syn.Voices = hindiVoices
	if err := syn.Run(ctx, tl, session); err != nil {
		return err
	}

	comp := composite.New(render, cfg.Render, st, cfg.Paths.Assets)
	scenes, err := comp.Run(ctx, tl, session, visualSession)
	if err != nil {
		return err
	}

	stitcher := stitch.New(render, cfg.Music, st, cfg.Paths.Assets, cfg.Paths.Songs)
	finished, err := stitcher.Run(ctx, scenes, mood, session)
	if err != nil {
		return err
	}
	log.Printf("✅ Hindi twin complete! Video: %s", finished)
	return nil
}

// resumeSession restarts an interrupted session at the furthest stage its
// surviving artifacts support.
func resumeSession(ctx context.Context, cfg *config.Config, st *store.Store, render config.RenderConfig, mood, session string) error {
	log.Printf("🎬 Resuming session %s", session)
	res := rescue.Scan(st, session)

	switch res.Stage {
	case rescue.StageFinished:
		log.Printf("✅ Nothing to do: %s", res.FinishedPath)
		return nil

	case rescue.StageStitch:
		scenes := make([]types.RenderedScene, len(res.SceneFiles))
		for i, p := range res.SceneFiles {
			scenes[i] = types.RenderedScene{Index: i, Path: p}
		}
		stitcher := stitch.New(render, cfg.Music, st, cfg.Paths.Assets, cfg.Paths.Songs)
		finished, err := stitcher.Run(ctx, scenes, mood, session)
		if err != nil {
			return err
		}
		log.Printf("✅ Resume complete! Video: %s", finished)
		return nil

	case rescue.StageRender:
		if len(res.Timeline) == 0 {
			return fmt.Errorf("no recoverable artifacts for session %s", session)
		}
		comp := composite.New(render, cfg.Render, st, cfg.Paths.Assets)
		scenes, err := comp.Run(ctx, res.Timeline, session, session)
		if err != nil {
			return err
		}
		stitcher := stitch.New(render, cfg.Music, st, cfg.Paths.Assets, cfg.Paths.Songs)
		finished, err := stitcher.Run(ctx, scenes, mood, session)
		if err != nil {
			return err
		}
		log.Printf("✅ Resume complete! Video: %s", finished)
		return nil
	}
	return fmt.Errorf("unknown resume stage %q", res.Stage)
}
