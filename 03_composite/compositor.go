// Package composite renders one finished scene clip per timeline scene:
// visual fitted to frame, narration as master clock, keyword-styled
// captions, sound effects, and emoji pops, all in a single ffmpeg pass.
package composite

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

type Compositor struct {
	cfg       config.RenderConfig
	settings  config.RenderSettings
	st        *store.Store
	assetsDir string
}

func New(cfg config.RenderConfig, settings config.RenderSettings, st *store.Store, assetsDir string) *Compositor {
	if p := filepath.Join(assetsDir, "styles.json"); fileExists(p) {
		if err := LoadStyles(p); err != nil {
			log.Printf("[composite] ⚠️ ignoring styles override: %v", err)
		}
	}
	return &Compositor{cfg: cfg, settings: settings, st: st, assetsDir: assetsDir}
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// Run renders every scene that has narration audio. The narration file is the
// master clock: each clip lasts exactly as long as its audio. A scene whose
// render fails is logged and dropped; the rest continue.
func (c *Compositor) Run(ctx context.Context, timeline types.Timeline, audioSession, visualSession string) ([]types.RenderedScene, error) {
	var rendered []types.RenderedScene

	for _, scene := range timeline {
		audioPath := c.st.AudioPath(audioSession, scene.Index)
		if _, err := os.Stat(audioPath); err != nil {
			log.Printf("[composite] ⚠️ scene %d: no narration, dropping scene", scene.Index)
			continue
		}
		rs, err := c.renderScene(ctx, scene, audioSession, visualSession)
		if err != nil {
			log.Printf("[composite] ⚠️ scene %d render failed: %v", scene.Index, err)
			continue
		}
		rendered = append(rendered, rs)
		log.Printf("[composite] ✅ scene %d rendered (%.1fs)", scene.Index, rs.Duration)
	}

	if len(rendered) == 0 {
		return nil, fmt.Errorf("composite: no scene rendered")
	}
	return rendered, nil
}

func (c *Compositor) renderScene(ctx context.Context, scene types.Scene, audioSession, visualSession string) (types.RenderedScene, error) {
	audioPath := c.st.AudioPath(audioSession, scene.Index)
	masterDur, err := media.Duration(audioPath)
	if err != nil {
		return types.RenderedScene{}, fmt.Errorf("probe narration: %w", err)
	}

	clipPath, ok := c.st.FindClip(visualSession, scene.Index)
	if !ok {
		return types.RenderedScene{}, fmt.Errorf("no visual clip")
	}
	still := !strings.HasSuffix(clipPath, ".mp4")

	text := captionText(scene)
	chunks := c.captionChunks(audioSession, scene.Index, text, masterDur)
	sfxEvents, overlayEvents := scanEvents(text, masterDur, c.settings.SFXCooldownSec)

	// Input 0 is the visual, input 1 the narration. Everything after is an
	// optional audio or overlay input, tracked by index as it is added.
	args := []string{"-y"}
	if still {
		args = append(args, "-loop", "1")
	} else {
		// Loop short footage; -t truncates it to the narration length.
		args = append(args, "-stream_loop", "-1")
	}
	args = append(args, "-i", clipPath, "-i", audioPath)
	nextInput := 2

	var filters []string
	audioLabels := []string{"[nar]"}

	// Video: scale to cover, center crop, lock fps and sample aspect.
	vLabel := "[v0]"
	filters = append(filters, fmt.Sprintf(
		"[0:v]%s,fps=%d,setsar=1%s", c.fitFilter(clipPath), c.cfg.FPS, vLabel))

	// Emoji overlays: 1 second pop each, plus a pop sound.
	popPath := c.assetPath("pop.mp3")
	for _, ev := range overlayEvents {
		imgPath := c.assetPath(ev.File)
		if imgPath == "" {
			continue
		}
		args = append(args, "-i", imgPath)
		next := fmt.Sprintf("[v%d]", nextInput)
		filters = append(filters, c.overlayFilter(nextInput, vLabel, next, ev.At))
		vLabel = next
		nextInput++

		if popPath != "" {
			args = append(args, "-i", c.effectAudio(ctx, popPath))
			label := fmt.Sprintf("[pop%d]", nextInput)
			filters = append(filters, fmt.Sprintf(
				"[%d:a]adelay=%d|%d,volume=1.0%s", nextInput, int(ev.At*1000), int(ev.At*1000), label))
			audioLabels = append(audioLabels, label)
			nextInput++
		}
	}

	// Keyword sound effects.
	for _, ev := range sfxEvents {
		sfxPath := c.assetPath(ev.File)
		if sfxPath == "" {
			continue
		}
		args = append(args, "-i", c.effectAudio(ctx, sfxPath))
		label := fmt.Sprintf("[sfx%d]", nextInput)
		filters = append(filters, fmt.Sprintf(
			"[%d:a]adelay=%d|%d,volume=%.2f%s", nextInput, int(ev.At*1000), int(ev.At*1000), ev.Volume, label))
		audioLabels = append(audioLabels, label)
		nextInput++
	}

	// Transition whoosh on every scene after the first.
	if scene.Index > 0 {
		if whoosh := c.assetPath("whoosh_fast.mp3"); whoosh != "" {
			args = append(args, "-i", c.effectAudio(ctx, whoosh))
			label := fmt.Sprintf("[trans%d]", nextInput)
			filters = append(filters, fmt.Sprintf("[%d:a]volume=0.3%s", nextInput, label))
			audioLabels = append(audioLabels, label)
			nextInput++
		}
	}

	// Captions as a drawtext chain.
	if draw := c.drawtextChain(chunks); draw != "" {
		filters = append(filters, fmt.Sprintf("%s%s[vout]", vLabel, draw))
	} else {
		filters = append(filters, fmt.Sprintf("%snull[vout]", vLabel))
	}
	vLabel = "[vout]"

	// Narration resampled to the stereo 44.1 kHz house format, then mixed
	// with every effect layer. duration=first keeps narration the clock.
	filters = append(filters, "[1:a]aresample=44100,aformat=channel_layouts=stereo[nar]")
	if len(audioLabels) > 1 {
		filters = append(filters, fmt.Sprintf("%samix=inputs=%d:duration=first:normalize=0[aout]",
			strings.Join(audioLabels, ""), len(audioLabels)))
	} else {
		filters = append(filters, "[nar]anull[aout]")
	}

	outPath := c.st.ScenePath(audioSession, scene.Index)
	args = append(args,
		"-filter_complex", strings.Join(filters, ";"),
		"-map", vLabel,
		"-map", "[aout]",
		"-t", fmt.Sprintf("%.3f", masterDur),
		"-r", fmt.Sprintf("%d", c.cfg.FPS),
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-c:a", "aac",
		"-ac", "2",
		"-pix_fmt", "yuv420p",
		outPath,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return types.RenderedScene{}, fmt.Errorf("ffmpeg scene: %w: %s", err, tail(stderr.String()))
	}

	return types.RenderedScene{Index: scene.Index, Path: outPath, Duration: masterDur}, nil
}

// captionText is what goes on screen. A translated render speaks the scene's
// audio script but keeps the roman display text for captions and for the
// keyword scans driving effects.
func captionText(scene types.Scene) string {
	return scene.Text
}

// captionChunks prefers saved word timings and falls back to estimation when
// timings are missing or empty.
func (c *Compositor) captionChunks(session string, index int, text string, dur float64) []CaptionChunk {
	words := c.st.LoadTimings(session, index)
	if len(words) > 0 {
		if chunks := PerfectChunks(words, c.cfg.ChunkWords); len(chunks) > 0 {
			return chunks
		}
	}
	return EstimatedChunks(text, dur)
}

// fitFilter builds the scale+crop expression from the clip's probed size.
// When probing fails the cover-scale form with explicit crop still works.
func (c *Compositor) fitFilter(clipPath string) string {
	w, h, err := media.Dimensions(clipPath)
	if err != nil || w == 0 || h == 0 {
		return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d",
			c.cfg.Width, c.cfg.Height, c.cfg.Width, c.cfg.Height)
	}
	scaleW, scaleH, cropX, cropY := fitAndCrop(w, h, c.cfg.Width, c.cfg.Height)
	return fmt.Sprintf("scale=%d:%d,crop=%d:%d:%d:%d",
		scaleW, scaleH, c.cfg.Width, c.cfg.Height, cropX, cropY)
}

// overlayFilter scales one emoji input and overlays it for a one second pop.
// Shorts center it just above mid-frame; long form parks it right of center.
func (c *Compositor) overlayFilter(input int, in, out string, at float64) string {
	var width int
	var pos string
	if c.cfg.Portrait() {
		width = c.cfg.Width * 18 / 100
		pos = "x=(main_w-overlay_w)/2:y=main_h/2-overlay_h-50"
	} else {
		width = c.cfg.Width * 12 / 100
		pos = fmt.Sprintf("x=%d:y=(main_h-overlay_h)/2", c.cfg.Width*75/100)
	}
	return fmt.Sprintf("[%d:v]scale=%d:-1[ov%d];%s[ov%d]overlay=%s:enable='between(t,%.3f,%.3f)'%s",
		input, width, input, in, input, pos, at, at+1.0, out)
}

// drawtextChain renders caption chunks as chained drawtext filters, each
// enabled only inside its display window.
func (c *Compositor) drawtextChain(chunks []CaptionChunk) string {
	if len(chunks) == 0 {
		return ""
	}
	font := c.assetPath("font.ttf")

	var parts []string
	for _, ch := range chunks {
		style := StyleFor(ch.Text)
		size := int(float64(c.cfg.FontSize) * style.Scale)

		var y string
		if c.cfg.Portrait() {
			y = "(h-text_h)/2"
		} else {
			y = "h*0.78"
		}

		d := fmt.Sprintf(
			"drawtext=text='%s':fontcolor=%s:bordercolor=%s:borderw=%d:fontsize=%d:x=(w-text_w)/2:y=%s:enable='between(t,%.3f,%.3f)'",
			escapeDrawtext(ch.Text), style.Color, style.Stroke, size/20+2, size, y, ch.Start, ch.End)
		if font != "" {
			d += ":fontfile=" + font
		}
		parts = append(parts, d)
	}
	return strings.Join(parts, ",")
}

// effectAudio pre-converts an effect track to stereo PCM. Feeding raw mp3s of
// mixed layouts into amix glitches on some files; the unconverted file is
// used only when conversion fails.
func (c *Compositor) effectAudio(ctx context.Context, path string) string {
	fixed, err := media.NormalizeAudio(ctx, path, c.st.WorkDir())
	if err != nil {
		log.Printf("[composite] ⚠️ audio normalize failed for %s: %v", filepath.Base(path), err)
		return path
	}
	return fixed
}

// assetPath returns the first existing location of an asset file, probing the
// assets root and its sfx subfolder. Empty string means not installed.
func (c *Compositor) assetPath(name string) string {
	for _, p := range []string{
		filepath.Join(c.assetsDir, name),
		filepath.Join(c.assetsDir, "sfx", name),
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// escapeDrawtext quotes the characters drawtext treats specially. The text
// value sits inside a single-quoted filtergraph section, where a backslash
// cannot escape a quote: an apostrophe must close the section, emit an
// escaped quote, and reopen it.
func escapeDrawtext(s string) string {
	return strings.NewReplacer(
		`\`, `\\`,
		`'`, `'\''`,
		`:`, `\:`,
		`%`, `\%`,
	).Replace(s)
}

// tail trims ffmpeg's stderr to its last few lines for error messages.
func tail(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > 4 {
		lines = lines[len(lines)-4:]
	}
	return strings.Join(lines, " | ")
}
