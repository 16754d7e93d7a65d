package composite

import (
	"strings"
	"testing"

	"autoshorts-pipeline/types"
)

func TestPerfectChunksCoverage(t *testing.T) {
	words := []types.WordTiming{
		{Word: "the", Start: 0.0, End: 0.1},
		{Word: "killer", Start: 0.1, End: 0.25},
		{Word: "was", Start: 0.25, End: 0.35},
		{Word: "never", Start: 0.35, End: 0.6},
		{Word: "found", Start: 0.6, End: 0.9},
	}

	chunks := PerfectChunks(words, 2)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}

	if chunks[0].Start != 0.0 {
		t.Errorf("first chunk should start at 0, got %f", chunks[0].Start)
	}
	last := chunks[len(chunks)-1]
	if last.End != 0.9 {
		t.Errorf("last chunk should end at last word (0.9), got %f", last.End)
	}

	// Chunks must tile the words without gaps or overlaps.
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Start < chunks[i-1].End {
			t.Errorf("chunk %d overlaps previous: %f < %f", i, chunks[i].Start, chunks[i-1].End)
		}
	}

	for _, c := range chunks {
		if c.Text != strings.ToUpper(c.Text) {
			t.Errorf("caption not uppercased: %q", c.Text)
		}
	}
}

func TestPerfectChunksMaxWords(t *testing.T) {
	// Tightly packed words never exceed the word cap.
	var words []types.WordTiming
	for i := 0; i < 9; i++ {
		s := float64(i) * 0.05
		words = append(words, types.WordTiming{Word: "w", Start: s, End: s + 0.05})
	}
	for _, c := range PerfectChunks(words, 3) {
		if n := len(strings.Fields(c.Text)); n > 3 {
			t.Errorf("chunk has %d words, cap is 3: %q", n, c.Text)
		}
	}
}

func TestPerfectChunksLongWordClosesEarly(t *testing.T) {
	words := []types.WordTiming{
		{Word: "extraordinary", Start: 0, End: 0.8},
		{Word: "case", Start: 0.8, End: 1.0},
	}
	chunks := PerfectChunks(words, 3)
	if len(chunks) != 2 {
		t.Fatalf("long word should close its chunk, got %d chunks", len(chunks))
	}
	if chunks[0].Text != "EXTRAORDINARY" {
		t.Errorf("unexpected first chunk %q", chunks[0].Text)
	}
}

func TestEstimatedChunksPairsAndLongWords(t *testing.T) {
	chunks := EstimatedChunks("the mysterious investigation began today", 10.0)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}

	// "mysterious" and "investigation" exceed seven characters and must
	// stand alone.
	for _, c := range chunks {
		fields := strings.Fields(c.Text)
		for _, f := range fields {
			if len(f) > 7 && len(fields) > 1 {
				t.Errorf("long word %q should be its own chunk: %q", f, c.Text)
			}
		}
	}

	last := chunks[len(chunks)-1]
	if last.End > 10.0 {
		t.Errorf("chunks exceed scene duration: %f", last.End)
	}
}

func TestEstimatedChunksMinimumDuration(t *testing.T) {
	// Ample audio: every proportional window clears the floor untouched.
	chunks := EstimatedChunks("one two three four five six", 10.0)
	for i, c := range chunks {
		if c.End-c.Start < minChunkDur-1e-9 {
			t.Errorf("chunk %d shorter than floor: %f", i, c.End-c.Start)
		}
	}
}

func TestEstimatedChunksTightAudioKeepsEveryWindow(t *testing.T) {
	// Far more words than the audio can cover at the floor: the windows
	// rescale instead of the tail chunks collapsing to zero width.
	text := strings.Repeat("word ", 20)
	chunks := EstimatedChunks(strings.TrimSpace(text), 1.0)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i, c := range chunks {
		if c.End <= c.Start {
			t.Errorf("chunk %d has no display window: [%f, %f]", i, c.Start, c.End)
		}
	}
	last := chunks[len(chunks)-1]
	if diff := last.End - 1.0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("chunks should cover the full scene, last ends at %f", last.End)
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Start != chunks[i-1].End {
			t.Errorf("chunk %d not contiguous: %f != %f", i, chunks[i].Start, chunks[i-1].End)
		}
	}
}

func TestEstimatedChunksEmpty(t *testing.T) {
	if got := EstimatedChunks("", 5.0); got != nil {
		t.Errorf("empty text should yield nil, got %v", got)
	}
	if got := EstimatedChunks("hello", 0); got != nil {
		t.Errorf("zero duration should yield nil, got %v", got)
	}
}
