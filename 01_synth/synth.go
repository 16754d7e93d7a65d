// Package synth turns timeline scenes into narration audio with
// word-level timings snapped to the real duration of each file.
package synth

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"autoshorts-pipeline/config"
	"autoshorts-pipeline/media"
	"autoshorts-pipeline/store"
	"autoshorts-pipeline/types"
)

type Synthesizer struct {
	cfg    config.SynthConfig
	st     *store.Store
	client *Client

	// Voices overrides the configured roster when non-empty, used for
	// secondary-language renders.
	Voices []string
}

func New(cfg config.SynthConfig, st *store.Store) *Synthesizer {
	return &Synthesizer{cfg: cfg, st: st, client: NewClient()}
}

// Run synthesizes every scene in the timeline. A scene whose synthesis fails
// is logged and skipped; downstream stages drop that index, not the tail.
func (s *Synthesizer) Run(ctx context.Context, timeline types.Timeline, session string) error {
	voices := s.Voices
	if len(voices) == 0 {
		voices = s.cfg.Voices
	}
	if len(voices) == 0 {
		return fmt.Errorf("synth: no voices configured")
	}
	voice := voices[rand.Intn(len(voices))]
	rate := s.cfg.DefaultRate
	if strings.HasPrefix(voice, "hi-") {
		rate = s.cfg.HindiRate
	}
	log.Printf("[synth] voice %s rate %s for %d scenes", voice, rate, len(timeline))

	done := 0
	for _, scene := range timeline {
		if err := s.synthesizeScene(ctx, scene, session, voice, rate); err != nil {
			log.Printf("[synth] ⚠️ scene %d failed: %v", scene.Index, err)
			continue
		}
		done++
	}
	if done == 0 {
		return fmt.Errorf("synth: no scene produced audio")
	}
	log.Printf("[synth] ✅ %d/%d scenes narrated", done, len(timeline))
	return nil
}

func (s *Synthesizer) synthesizeScene(ctx context.Context, scene types.Scene, session, voice, rate string) error {
	text := Sanitize(scene.NarrationText())
	if text == "" {
		return fmt.Errorf("empty narration")
	}

	audioPath := s.st.AudioPath(session, scene.Index)
	f, err := os.Create(audioPath)
	if err != nil {
		return fmt.Errorf("create audio: %w", err)
	}

	sceneCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	timings, err := s.client.Synthesize(sceneCtx, text, voice, rate, f)
	cancel()
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(audioPath)
		return err
	}

	trueDur, err := media.Duration(audioPath)
	if err != nil {
		log.Printf("[synth] ⚠️ scene %d: probe failed, keeping raw timings: %v", scene.Index, err)
	} else {
		timings = ElasticSync(timings, trueDur)
	}

	if err := s.st.SaveTimings(session, scene.Index, timings); err != nil {
		log.Printf("[synth] ⚠️ scene %d: timings not saved: %v", scene.Index, err)
	}
	return nil
}

// ElasticSync stretches word boundaries so the last word ends exactly at the
// probed file duration. Service offsets drift from the encoded audio; captions
// keyed to raw offsets lag visibly by the end of a scene.
func ElasticSync(words []types.WordTiming, trueDuration float64) []types.WordTiming {
	if len(words) == 0 || trueDuration <= 0 {
		return words
	}
	last := words[len(words)-1].End
	if last <= 0 {
		return words
	}
	stretch := trueDuration / last
	out := make([]types.WordTiming, len(words))
	for i, w := range words {
		out[i] = types.WordTiming{
			Word:  w.Word,
			Start: w.Start * stretch,
			End:   w.End * stretch,
		}
	}
	return out
}

// Sanitize strips markup characters the narrator would read aloud.
func Sanitize(text string) string {
	text = strings.NewReplacer("#", "", "*", "").Replace(text)
	return strings.TrimSpace(text)
}
