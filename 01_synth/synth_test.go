package synth

import (
	"math"
	"testing"

	"autoshorts-pipeline/types"
)

func TestElasticSync(t *testing.T) {
	words := []types.WordTiming{
		{Word: "hello", Start: 0.0, End: 0.5},
		{Word: "world", Start: 0.5, End: 1.0},
	}

	// Real file is twice as long as the service claimed.
	synced := ElasticSync(words, 2.0)

	if len(synced) != 2 {
		t.Fatalf("expected 2 words, got %d", len(synced))
	}
	if math.Abs(synced[1].End-2.0) > 1e-9 {
		t.Errorf("last word should end at file duration, got %f", synced[1].End)
	}
	if math.Abs(synced[0].End-1.0) > 1e-9 {
		t.Errorf("intermediate boundaries should stretch proportionally, got %f", synced[0].End)
	}

	// Input must stay untouched.
	if words[1].End != 1.0 {
		t.Errorf("ElasticSync mutated its input: %f", words[1].End)
	}
}

func TestElasticSyncShrinks(t *testing.T) {
	words := []types.WordTiming{{Word: "long", Start: 0, End: 4.0}}
	synced := ElasticSync(words, 2.0)
	if math.Abs(synced[0].End-2.0) > 1e-9 {
		t.Errorf("timings should compress when audio is shorter, got %f", synced[0].End)
	}
}

func TestElasticSyncDegenerate(t *testing.T) {
	if got := ElasticSync(nil, 5.0); got != nil {
		t.Errorf("nil words should pass through, got %v", got)
	}

	words := []types.WordTiming{{Word: "x", Start: 0, End: 1}}
	if got := ElasticSync(words, 0); got[0].End != 1 {
		t.Errorf("non-positive duration should not rescale, got %f", got[0].End)
	}
	if got := ElasticSync([]types.WordTiming{{Word: "x"}}, 5.0); got[0].End != 0 {
		t.Errorf("zero-length timings should pass through, got %f", got[0].End)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"The **shocking** truth", "The shocking truth"},
		{"# Heading text", "Heading text"},
		{"  plain already  ", "plain already"},
		{"#*#*", ""},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
