package composite

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStyleForKeywords(t *testing.T) {
	tests := []struct {
		text  string
		color string
	}{
		{"STOP RIGHT THERE", "#FF0000"},
		{"MONEY TALKS", "#00FF00"},
		{"AI TAKEOVER", "#00FFFF"},
		{"A HIDDEN SECRET", "#DA70D6"},
		{"TEARS IN RAIN", "#00BFFF"},
		{"RUN FAST", "#FFA500"},
		{"TRUE LOVE", "#FF69B4"},
		{"BLOOD EVERYWHERE", "#DC143C"},
		{"ANCIENT HISTORY", "#8B4513"},
	}
	for _, tt := range tests {
		got := StyleFor(tt.text)
		if got.Color != tt.color {
			t.Errorf("StyleFor(%q).Color = %s, want %s", tt.text, got.Color, tt.color)
		}
		if got.Scale != 1.2 && got.Scale != 1.3 {
			t.Errorf("StyleFor(%q).Scale = %f, want pop scale", tt.text, got.Scale)
		}
	}
}

func TestStyleForDefault(t *testing.T) {
	got := StyleFor("ORDINARY WORDS TODAY")
	if got != DefaultStyle {
		t.Errorf("neutral text should get default style, got %+v", got)
	}
	if got.Color != "#FFD700" || got.Stroke != "black" || got.Scale != 1.0 {
		t.Errorf("default style changed: %+v", got)
	}
}

func TestStyleForSpecialModes(t *testing.T) {
	black := StyleFor("DEATH COMES")
	if black.Color != "#000000" || black.Stroke != "white" || black.Scale != 1.3 {
		t.Errorf("void mode wrong: %+v", black)
	}

	white := StyleFor("AN ANGEL APPEARS")
	if white.Color != "#FFFFFF" || white.Stroke != "black" || white.Scale != 1.2 {
		t.Errorf("holy mode wrong: %+v", white)
	}
}

func TestStyleForSubstringMatch(t *testing.T) {
	// Keywords longer than four characters match inside bigger words.
	got := StyleFor("THE KILLERS RETURN")
	if got.Color != "#DC143C" {
		t.Errorf("inflected keyword should match, got %+v", got)
	}

	// Short keywords must not match as substrings ("ai" inside "rain"
	// would misfire constantly).
	got = StyleFor("TRAINING DAY")
	if got.Color == "#00FFFF" {
		t.Error("short keyword matched as substring")
	}
}

func TestLoadStylesOverride(t *testing.T) {
	old := styleBuckets
	defer func() { styleBuckets = old }()

	p := filepath.Join(t.TempDir(), "styles.json")
	data := `[{"name":"red","color":"#AA0000","keywords":["custom"]}]`
	if err := os.WriteFile(p, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	if err := LoadStyles(p); err != nil {
		t.Fatalf("LoadStyles: %v", err)
	}
	if got := StyleFor("A CUSTOM WORD"); got.Color != "#AA0000" {
		t.Errorf("override palette not applied: %+v", got)
	}

	if err := LoadStyles(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing override should error")
	}
}

func TestStyleForBucketOrder(t *testing.T) {
	// "danger" (red) appears before any later bucket keyword; the first
	// matching bucket wins.
	got := StyleFor("DANGER MONEY")
	if got.Color != "#FF0000" {
		t.Errorf("first bucket should win, got %+v", got)
	}
}
