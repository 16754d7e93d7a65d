// Package rescue reconstructs an interrupted session from whatever
// artifacts survive on disk, so a crashed run resumes at the furthest
// completed stage instead of starting over.
package rescue

import (
	"log"
	"os"
	"strings"

	"autoshorts-pipeline/store"
	"autoshorts-pipeline/types"
)

// Stage names the furthest pipeline stage the scanned artifacts support.
type Stage string

const (
	// StageFinished means the final video already exists.
	StageFinished Stage = "finished"
	// StageStitch means rendered scene clips exist and only joining remains.
	StageStitch Stage = "stitch"
	// StageRender means audio/visual pairs exist but scenes must be rendered.
	StageRender Stage = "render"
)

// Result is everything recovered from a session's work directory.
type Result struct {
	Session      string
	Stage        Stage
	Timeline     types.Timeline
	SceneFiles   []string
	FinishedPath string
}

// Scan inspects a session's artifacts and reports where to resume. Audio and
// visual pairs are walked from index zero; the first incomplete pair ends the
// recovered timeline, since narration is the master clock and nothing past
// the gap can be trusted to line up.
func Scan(st *store.Store, session string) Result {
	res := Result{Session: session}

	finished := st.FinishedPath(session)
	if _, err := os.Stat(finished); err == nil {
		res.Stage = StageFinished
		res.FinishedPath = finished
		log.Printf("[rescue] session %s already finished: %s", session, finished)
		return res
	}

	for i := 0; ; i++ {
		if _, err := os.Stat(st.AudioPath(session, i)); err != nil {
			break
		}
		if _, ok := st.FindClip(session, i); !ok {
			break
		}
		res.Timeline = append(res.Timeline, types.Scene{
			Index:       i,
			Text:        recoveredText(st, session, i),
			VisualQuery: "recovered",
		})
	}

	if scenes, err := st.SceneFiles(session); err == nil && len(scenes) > 0 && len(scenes) >= len(res.Timeline) {
		res.Stage = StageStitch
		res.SceneFiles = scenes
		log.Printf("[rescue] session %s: %d rendered scenes found, resuming at stitch", session, len(scenes))
		return res
	}

	res.Stage = StageRender
	log.Printf("[rescue] session %s: %d audio scenes recovered, resuming at render", session, len(res.Timeline))
	return res
}

// recoveredText rebuilds a scene's narration from its saved word timings.
// Captions re-rendered from this text match what was spoken; the fallback
// placeholder only means estimated captions degrade to generic text.
func recoveredText(st *store.Store, session string, index int) string {
	words := st.LoadTimings(session, index)
	if len(words) == 0 {
		return "Scene audio."
	}
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.Word
	}
	return strings.Join(parts, " ")
}
