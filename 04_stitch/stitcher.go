// Package stitch joins rendered scene clips into the finished video:
// optional outro, concat re-encode, background music bed, and the
// opening chime, ending at finished_{session}.mp4.
package stitch

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"autoshorts-pipeline/config"
	"autoshorts-pipeline/media"
	"autoshorts-pipeline/store"
	"autoshorts-pipeline/types"
)

type Stitcher struct {
	cfg       config.RenderConfig
	music     config.MusicConfig
	st        *store.Store
	assetsDir string
	songsDir  string
}

func New(cfg config.RenderConfig, music config.MusicConfig, st *store.Store, assetsDir, songsDir string) *Stitcher {
	return &Stitcher{cfg: cfg, music: music, st: st, assetsDir: assetsDir, songsDir: songsDir}
}

// Run stitches the rendered scenes and layers music on top. Unlike scene
// rendering, a concat failure is fatal: there is nothing to publish without
// it. Music and chime failures degrade to a silent-bed final video.
func (s *Stitcher) Run(ctx context.Context, scenes []types.RenderedScene, mood, session string) (string, error) {
	if len(scenes) == 0 {
		return "", fmt.Errorf("stitch: no scenes to join")
	}

	files := make([]string, 0, len(scenes)+1)
	for _, sc := range scenes {
		files = append(files, sc.Path)
	}

	if outro, err := s.prepareOutro(ctx, session); err != nil {
		log.Printf("[stitch] ⚠️ outro skipped: %v", err)
	} else if outro != "" {
		files = append(files, outro)
	}

	stitched, err := s.concat(ctx, files, session)
	if err != nil {
		return "", err
	}

	total, err := media.Duration(stitched)
	if err != nil {
		return "", fmt.Errorf("probe stitched: %w", err)
	}

	finished := s.st.FinishedPath(session)
	musicPath, err := s.buildMusicBed(ctx, mood, total, session)
	if err != nil {
		log.Printf("[stitch] ⚠️ music bed failed, finishing without music: %v", err)
		musicPath = ""
	}

	if err := s.finalMix(ctx, stitched, musicPath, total, finished); err != nil {
		return "", err
	}
	log.Printf("[stitch] ✅ finished video: %s", finished)
	return finished, nil
}

// prepareOutro re-encodes assets/outro.mp4 to the render format so concat
// does not glitch on mismatched streams. Missing outro is not an error.
func (s *Stitcher) prepareOutro(ctx context.Context, session string) (string, error) {
	src := filepath.Join(s.assetsDir, "outro.mp4")
	if _, err := os.Stat(src); err != nil {
		return "", nil
	}

	out := s.st.OutroChunkPath(session)
	vf := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,fps=%d,setsar=1",
		s.cfg.Width, s.cfg.Height, s.cfg.Width, s.cfg.Height, s.cfg.FPS)

	// The anullsrc input guarantees an audio stream even for silent outros.
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", src,
		"-f", "lavfi", "-i", "anullsrc=channel_layout=stereo:sample_rate=44100",
		"-vf", vf,
		"-map", "0:v", "-map", "1:a",
		"-shortest",
		"-c:v", "libx264", "-preset", "ultrafast",
		"-c:a", "aac", "-ac", "2",
		"-pix_fmt", "yuv420p",
		out,
	)
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("outro encode: %w", err)
	}
	return out, nil
}

func (s *Stitcher) concat(ctx context.Context, files []string, session string) (string, error) {
	listPath := s.st.StitchListPath(session)
	var lines []string
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			abs = f
		}
		lines = append(lines, fmt.Sprintf("file '%s'", filepath.ToSlash(abs)))
	}
	if err := os.WriteFile(listPath, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write stitch list: %w", err)
	}

	out := s.st.StitchedPath(session)
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-c:a", "aac",
		out,
	)
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg concat: %w", err)
	}
	log.Printf("[stitch] ✅ %d clips joined", len(files))
	return out, nil
}

// finalMix lays the music bed and the opening chime under the stitched audio
// in one encode. Video is stream-copied: it was already standardized per
// scene.
func (s *Stitcher) finalMix(ctx context.Context, stitched, musicPath string, total float64, out string) error {
	args := []string{"-y", "-i", stitched}
	var filters []string
	labels := []string{"[0:a]"}
	next := 1

	if musicPath != "" {
		args = append(args, "-i", musicPath)
		label := fmt.Sprintf("[music%d]", next)
		filters = append(filters, fmt.Sprintf("[%d:a]volume=%.2f%s", next, s.music.Volume, label))
		labels = append(labels, label)
		next++
	}

	chime := filepath.Join(s.assetsDir, "windchimes.mp3")
	if _, err := os.Stat(chime); err == nil {
		args = append(args, "-i", chime)
		label := fmt.Sprintf("[chime%d]", next)
		filters = append(filters, fmt.Sprintf("[%d:a]adelay=500|500,volume=0.6%s", next, label))
		labels = append(labels, label)
		next++
	}

	if len(labels) == 1 {
		cmd := exec.CommandContext(ctx, "ffmpeg", "-y", "-i", stitched, "-c", "copy", out)
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("ffmpeg final copy: %w", err)
		}
		return nil
	}

	filters = append(filters, fmt.Sprintf("%samix=inputs=%d:duration=first:normalize=0[aout]",
		strings.Join(labels, ""), len(labels)))

	args = append(args,
		"-filter_complex", strings.Join(filters, ";"),
		"-map", "0:v",
		"-map", "[aout]",
		"-t", fmt.Sprintf("%.3f", total),
		"-c:v", "copy",
		"-c:a", "aac",
		"-ac", "2",
		out,
	)
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg final mix: %w", err)
	}
	return nil
}
