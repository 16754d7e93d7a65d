// Package media wraps the probing and normalization calls every stage needs.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type probeFormat struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

func probe(path string) (*probeFormat, error) {
	out, err := ffmpeg.Probe(path)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", filepath.Base(path), err)
	}
	var pf probeFormat
	if err := json.Unmarshal([]byte(out), &pf); err != nil {
		return nil, fmt.Errorf("parse probe output for %s: %w", filepath.Base(path), err)
	}
	return &pf, nil
}

// Duration returns the playable duration of a media file in seconds.
func Duration(path string) (float64, error) {
	pf, err := probe(path)
	if err != nil {
		return 0, err
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(pf.Format.Duration), 64)
	if err != nil {
		return 0, fmt.Errorf("no duration for %s", filepath.Base(path))
	}
	return dur, nil
}

// Dimensions returns the pixel size of the first video stream.
func Dimensions(path string) (int, int, error) {
	pf, err := probe(path)
	if err != nil {
		return 0, 0, err
	}
	for _, st := range pf.Streams {
		if st.CodecType == "video" && st.Width > 0 && st.Height > 0 {
			return st.Width, st.Height, nil
		}
	}
	return 0, 0, fmt.Errorf("no video stream in %s", filepath.Base(path))
}

// NormalizeAudio converts any audio file to stereo 44.1kHz PCM WAV under
// outDir. Mixed mono/stereo inputs glitch the mixing stage, so everything is
// forced to one layout at the source. The unique suffix keeps parallel
// conversions of the same file apart.
func NormalizeAudio(ctx context.Context, path, outDir string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out := filepath.Join(outDir, base+"_"+uuid.NewString()[:8]+"_fixed.wav")
	err := ffmpeg.Input(path).
		Output(out, ffmpeg.KwArgs{
			"vn":     "",
			"acodec": "pcm_s16le",
			"ac":     "2",
			"ar":     "44100",
		}).
		OverWriteOutput().
		Silent(true).
		Run()
	if err != nil {
		return "", fmt.Errorf("normalize %s: %w", filepath.Base(path), err)
	}
	return out, nil
}
