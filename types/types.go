package types

import (
	"encoding/json"
	"fmt"
	"os"
)

// Scene is one narrative beat: a unit of narration text plus one visual query.
type Scene struct {
	Index       int    `json:"index"`
	Text        string `json:"text"`
	AudioText   string `json:"audio_text,omitempty"` // spoken script when it differs from the caption text (translated renders)
	VisualQuery string `json:"visual"`
}

// NarrationText returns the text the Synthesizer should speak.
func (s Scene) NarrationText() string {
	if s.AudioText != "" {
		return s.AudioText
	}
	return s.Text
}

// Timeline is the ordered list of Scenes for one video. Index values are
// contiguous from 0 and define playback order.
type Timeline []Scene

// WordTiming is one spoken word with start/end offsets in seconds.
type WordTiming struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// AssetKind tags how a scene's visual was obtained.
type AssetKind string

const (
	AssetVideo       AssetKind = "video"
	AssetPhoto       AssetKind = "photo"
	AssetAIImage     AssetKind = "ai_image"
	AssetPlaceholder AssetKind = "placeholder"
)

// SceneAsset is the resolved visual for one scene.
type SceneAsset struct {
	Path string
	Kind AssetKind
}

// Still reports whether the asset is a static image rather than a motion clip.
func (a SceneAsset) Still() bool {
	return a.Kind != AssetVideo
}

// RenderedScene is one fully composited, duration-matched scene file on disk.
type RenderedScene struct {
	Index    int
	Path     string
	Duration float64
}

// timelineFile matches both a bare JSON array of scenes and the object form
// the script generator emits ({"title": ..., "timeline": [...]}).
type timelineFile struct {
	Title    string `json:"title"`
	Timeline []struct {
		Text      string `json:"text"`
		AudioText string `json:"audio_text"`
		Visual    string `json:"visual"`
	} `json:"timeline"`
}

// LoadTimeline reads a timeline JSON file and assigns contiguous indices.
func LoadTimeline(path string) (Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tf timelineFile
	if err := json.Unmarshal(data, &tf); err != nil {
		// Bare array form
		if arrErr := json.Unmarshal(data, &tf.Timeline); arrErr != nil {
			return nil, fmt.Errorf("parse timeline: %w", err)
		}
	}
	if len(tf.Timeline) == 0 {
		return nil, fmt.Errorf("timeline file %s contains no scenes", path)
	}

	timeline := make(Timeline, 0, len(tf.Timeline))
	for i, s := range tf.Timeline {
		timeline = append(timeline, Scene{
			Index:       i,
			Text:        s.Text,
			AudioText:   s.AudioText,
			VisualQuery: s.Visual,
		})
	}
	return timeline, nil
}
