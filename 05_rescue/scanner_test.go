package rescue

import (
	"os"
	"testing"

	"autoshorts-pipeline/store"
	"autoshorts-pipeline/types"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	st, err := store.New(dir, dir)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	return st
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("touch %s: %v", path, err)
	}
}

// touchPair creates the audio+visual artifacts for one scene.
func touchPair(t *testing.T, st *store.Store, session string, index int) {
	t.Helper()
	touch(t, st.AudioPath(session, index))
	touch(t, st.ClipPath(session, index, "mp4"))
}

func TestScanFinishedSession(t *testing.T) {
	st := testStore(t)
	touch(t, st.FinishedPath("4242"))

	res := Scan(st, "4242")
	if res.Stage != StageFinished {
		t.Fatalf("stage = %s, want finished", res.Stage)
	}
	if res.FinishedPath == "" {
		t.Error("finished path not reported")
	}
}

func TestScanStopsAtAudioGap(t *testing.T) {
	st := testStore(t)
	touchPair(t, st, "4242", 0)
	touchPair(t, st, "4242", 1)
	// Index 2 has audio but no visual: not a pair, and index 3 must not be
	// picked up past the gap.
	touch(t, st.AudioPath("4242", 2))
	touchPair(t, st, "4242", 3)

	res := Scan(st, "4242")
	if res.Stage != StageRender {
		t.Fatalf("stage = %s, want render", res.Stage)
	}
	if len(res.Timeline) != 2 {
		t.Errorf("recovered %d scenes, want 2 (scan stops at first gap)", len(res.Timeline))
	}
	for i, sc := range res.Timeline {
		if sc.Index != i {
			t.Errorf("scene %d has index %d", i, sc.Index)
		}
	}
}

func TestScanRecoversTextFromTimings(t *testing.T) {
	st := testStore(t)
	touchPair(t, st, "4242", 0)
	err := st.SaveTimings("4242", 0, []types.WordTiming{
		{Word: "the", Start: 0, End: 0.2},
		{Word: "end", Start: 0.2, End: 0.5},
	})
	if err != nil {
		t.Fatalf("save timings: %v", err)
	}

	res := Scan(st, "4242")
	if len(res.Timeline) != 1 {
		t.Fatalf("recovered %d scenes, want 1", len(res.Timeline))
	}
	if res.Timeline[0].Text != "the end" {
		t.Errorf("recovered text = %q, want %q", res.Timeline[0].Text, "the end")
	}
}

func TestScanPlaceholderTextWithoutTimings(t *testing.T) {
	st := testStore(t)
	touchPair(t, st, "4242", 0)

	res := Scan(st, "4242")
	if res.Timeline[0].Text != "Scene audio." {
		t.Errorf("fallback text = %q", res.Timeline[0].Text)
	}
}

func TestScanResumesAtStitch(t *testing.T) {
	st := testStore(t)
	touchPair(t, st, "4242", 0)
	touchPair(t, st, "4242", 1)
	touch(t, st.ScenePath("4242", 0))
	touch(t, st.ScenePath("4242", 1))

	res := Scan(st, "4242")
	if res.Stage != StageStitch {
		t.Fatalf("stage = %s, want stitch", res.Stage)
	}
	if len(res.SceneFiles) != 2 {
		t.Errorf("scene files = %d, want 2", len(res.SceneFiles))
	}
}
