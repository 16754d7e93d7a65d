package stitch

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"autoshorts-pipeline/config"
	"autoshorts-pipeline/media"
)

// candidateTracks pools every mp3 from the mood's own folder plus any
// Master_Library track whose filename carries one of the mood's keywords,
// deduplicated.
func candidateTracks(songsDir, mood string, keywords []string) []string {
	seen := map[string]bool{}
	var tracks []string

	addDir := func(dir string, filter bool) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".mp3") {
				continue
			}
			if filter {
				lower := strings.ToLower(e.Name())
				match := false
				for _, k := range keywords {
					if strings.Contains(lower, k) {
						match = true
						break
					}
				}
				if !match {
					continue
				}
			}
			p := filepath.Join(dir, e.Name())
			if !seen[p] {
				seen[p] = true
				tracks = append(tracks, p)
			}
		}
	}

	addDir(filepath.Join(songsDir, mood), false)
	addDir(filepath.Join(songsDir, "Master_Library"), true)
	return tracks
}

// buildMusicBed encodes a background track of exactly total seconds. Shorts
// loop one random track; long form builds a shuffled crossfaded playlist.
func (s *Stitcher) buildMusicBed(ctx context.Context, mood string, total float64, session string) (string, error) {
	keywords := s.music.Moods[mood]
	tracks := candidateTracks(s.songsDir, mood, keywords)
	if len(tracks) == 0 {
		return "", fmt.Errorf("no songs for mood %q", mood)
	}

	out := s.st.MusicPath(session)
	if s.cfg.Mode == config.ModeShorts || len(tracks) < 2 {
		return out, s.loopTrack(ctx, tracks[rand.Intn(len(tracks))], total, out)
	}
	return out, s.playlist(ctx, tracks, total, out)
}

// loopTrack repeats one song to cover the video and fades it out at the end.
func (s *Stitcher) loopTrack(ctx context.Context, track string, total float64, out string) error {
	fadeStart := total - 2
	if fadeStart < 0 {
		fadeStart = 0
	}
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-stream_loop", "-1",
		"-i", track,
		"-t", fmt.Sprintf("%.3f", total),
		"-af", fmt.Sprintf("afade=t=out:st=%.3f:d=2", fadeStart),
		"-c:a", "aac",
		out,
	)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("music loop: %w", err)
	}
	return nil
}

// playlist chains shuffled tracks with 2 second crossfades until the video
// is covered, reshuffling when the pool runs dry, then trims and fades out.
func (s *Stitcher) playlist(ctx context.Context, tracks []string, total float64, out string) error {
	shuffled := append([]string(nil), tracks...)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	var picks []string
	covered := 0.0
	idx := 0
	for covered < total {
		if idx >= len(shuffled) {
			idx = 0
			rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		}
		track := shuffled[idx]
		dur, err := media.Duration(track)
		if err != nil || dur <= 2 {
			idx++
			if len(picks) == 0 && idx >= len(shuffled) {
				return fmt.Errorf("no playable tracks")
			}
			continue
		}
		picks = append(picks, track)
		covered += dur - 2
		idx++
	}

	if len(picks) == 1 {
		return s.loopTrack(ctx, picks[0], total, out)
	}

	args := []string{"-y"}
	for _, p := range picks {
		args = append(args, "-i", p)
	}

	var filters []string
	prev := "[0:a]"
	for i := 1; i < len(picks); i++ {
		label := fmt.Sprintf("[x%d]", i)
		filters = append(filters, fmt.Sprintf("%s[%d:a]acrossfade=d=2%s", prev, i, label))
		prev = label
	}
	fadeStart := total - 3
	if fadeStart < 0 {
		fadeStart = 0
	}
	filters = append(filters, fmt.Sprintf("%satrim=0:%.3f,afade=t=out:st=%.3f:d=3[mout]",
		prev, total, fadeStart))

	args = append(args,
		"-filter_complex", strings.Join(filters, ";"),
		"-map", "[mout]",
		"-c:a", "aac",
		out,
	)
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("music playlist: %w", err)
	}
	return nil
}
