package composite

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed styles.json
var stylesJSON []byte

// Style is the drawtext treatment for one caption chunk.
type Style struct {
	Color  string
	Stroke string
	Scale  float64
}

// DefaultStyle is the gold standard-emphasis look.
var DefaultStyle = Style{Color: "#FFD700", Stroke: "black", Scale: 1.0}

type styleBucket struct {
	Name     string   `json:"name"`
	Color    string   `json:"color"`
	Keywords []string `json:"keywords"`
}

var styleBuckets = mustLoadStyles()

func mustLoadStyles() []styleBucket {
	var buckets []styleBucket
	if err := json.Unmarshal(stylesJSON, &buckets); err != nil {
		panic("composite: bad styles.json: " + err.Error())
	}
	return buckets
}

// LoadStyles replaces the embedded palette with an external styles file,
// letting channels retheme captions without a rebuild.
func LoadStyles(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var buckets []styleBucket
	if err := json.Unmarshal(data, &buckets); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if len(buckets) == 0 {
		return fmt.Errorf("%s defines no style buckets", path)
	}
	styleBuckets = buckets
	return nil
}

// StyleFor classifies a caption chunk by keyword. Bucket order matters: the
// first matching bucket wins. Short keywords must match as whole words; words
// longer than four characters may match as substrings, which catches
// inflections like "killers".
func StyleFor(text string) Style {
	lower := " " + strings.ToLower(text) + " "
	for _, b := range styleBuckets {
		if !bucketMatches(b, lower) {
			continue
		}
		switch b.Name {
		case "black":
			return Style{Color: b.Color, Stroke: "white", Scale: 1.3}
		case "white":
			return Style{Color: b.Color, Stroke: "black", Scale: 1.2}
		default:
			return Style{Color: b.Color, Stroke: "white", Scale: 1.2}
		}
	}
	return DefaultStyle
}

func bucketMatches(b styleBucket, padded string) bool {
	for _, k := range b.Keywords {
		if strings.Contains(padded, " "+k+" ") {
			return true
		}
		if len(k) > 4 && strings.Contains(padded, k) {
			return true
		}
	}
	return false
}
