package composite

import (
	_ "embed"
	"encoding/json"
	"strings"
	"unicode"
)

//go:embed sfx_sounds.json
var sfxJSON []byte

//go:embed overlays.json
var overlaysJSON []byte

type sfxTable struct {
	Keywords map[string]string  `json:"keywords"`
	Volumes  map[string]float64 `json:"volumes"`
}

var (
	sfxSounds  = mustLoadSFX()
	overlayMap = mustLoadOverlays()
)

func mustLoadSFX() sfxTable {
	var t sfxTable
	if err := json.Unmarshal(sfxJSON, &t); err != nil {
		panic("composite: bad sfx_sounds.json: " + err.Error())
	}
	return t
}

func mustLoadOverlays() map[string]string {
	var m map[string]string
	if err := json.Unmarshal(overlaysJSON, &m); err != nil {
		panic("composite: bad overlays.json: " + err.Error())
	}
	return m
}

// SFXEvent schedules one sound effect inside a scene.
type SFXEvent struct {
	File   string
	At     float64
	Volume float64
}

// OverlayEvent schedules one emoji overlay pop inside a scene.
type OverlayEvent struct {
	File string
	At   float64
}

// sfxCooldownDefault spaces keyword hits so back-to-back triggers don't stack.
const sfxCooldownDefault = 2.0

// scanEvents walks the narration word by word at an even time step and emits
// sound effects and emoji overlays for keyword hits. Word timings are not
// used here: the estimate is close enough for accents and keeps the scan
// independent of the caption path.
func scanEvents(text string, duration float64, cooldown float64) ([]SFXEvent, []OverlayEvent) {
	if cooldown <= 0 {
		cooldown = sfxCooldownDefault
	}
	words := strings.Fields(stripPunct(strings.ToLower(text)))
	if len(words) == 0 || duration <= 0 {
		return nil, nil
	}
	step := duration / float64(len(words))

	var sfx []SFXEvent
	var overlays []OverlayEvent
	current := 0.0
	lastSFX := -5.0

	for _, w := range words {
		if file, ok := sfxSounds.Keywords[w]; ok && current-lastSFX > cooldown {
			vol := 1.0
			if v, ok := sfxSounds.Volumes[file]; ok {
				vol = v
			}
			sfx = append(sfx, SFXEvent{File: file, At: current, Volume: vol})
			lastSFX = current
		}
		if img, ok := overlayMap[w]; ok {
			overlays = append(overlays, OverlayEvent{File: img, At: current})
		}
		current += step
	}
	return sfx, overlays
}

func stripPunct(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '_' {
			return r
		}
		return -1
	}, s)
}
