// Package store owns the on-disk artifact layout of a session. Every filename
// embeds (index, session) as its identity key; nothing outside this package
// constructs artifact paths, which is what lets the recovery scanner rebuild a
// run from the filesystem alone.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"autoshorts-pipeline/types"
)

// clipExts is the search order for resolved visuals: motion clips first.
var clipExts = []string{"mp4", "png", "jpg"}

type Store struct {
	workDir string
	outDir  string
}

// New prepares the working directory layout and returns a Store.
func New(workDir, outDir string) (*Store, error) {
	for _, dir := range []string{workDir, filepath.Join(workDir, "scenes"), outDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	return &Store{workDir: workDir, outDir: outDir}, nil
}

func (s *Store) WorkDir() string { return s.workDir }

// AudioPath is the narration audio for one scene.
func (s *Store) AudioPath(session string, index int) string {
	return filepath.Join(s.workDir, fmt.Sprintf("audio_%d_%s.mp3", index, session))
}

// TimingPath is the word-timing JSON for one scene.
func (s *Store) TimingPath(session string, index int) string {
	return filepath.Join(s.workDir, fmt.Sprintf("timing_%d_%s.json", index, session))
}

// ClipPath is the resolved visual for one scene with an explicit extension.
func (s *Store) ClipPath(session string, index int, ext string) string {
	return filepath.Join(s.workDir, fmt.Sprintf("clip_%d_%s.%s", index, session, ext))
}

// FindClip locates the visual for a scene, whatever kind the resolver left.
func (s *Store) FindClip(session string, index int) (string, bool) {
	for _, ext := range clipExts {
		p := s.ClipPath(session, index, ext)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// ScenePath is the rendered per-scene chunk.
func (s *Store) ScenePath(session string, index int) string {
	return filepath.Join(s.workDir, "scenes", fmt.Sprintf("scene_%s_%03d.mp4", session, index))
}

// OutroChunkPath sorts after every scene chunk for the same session.
func (s *Store) OutroChunkPath(session string) string {
	return filepath.Join(s.workDir, "scenes", fmt.Sprintf("chunk_%s_z_outro.mp4", session))
}

// SceneFiles returns the session's rendered scene chunks in index order. Only
// files whose suffix is a bare index belong to the session: a glob alone would
// also sweep in sessions that extend this one's name, like a translated twin.
func (s *Store) SceneFiles(session string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.workDir, "scenes", fmt.Sprintf("scene_%s_*.mp4", session)))
	if err != nil {
		return nil, err
	}
	prefix := fmt.Sprintf("scene_%s_", session)
	var files []string
	for _, f := range matches {
		base := strings.TrimSuffix(filepath.Base(f), ".mp4")
		if isIndexSuffix(strings.TrimPrefix(base, prefix)) {
			files = append(files, f)
		}
	}
	sort.Slice(files, func(i, j int) bool {
		return sceneSortKey(files[i]) < sceneSortKey(files[j])
	})
	return files, nil
}

func isIndexSuffix(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func sceneSortKey(path string) int {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.Split(base, "_")
	n, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 999999
	}
	return n
}

// StitchListPath is the concat manifest consumed by the ffmpeg subprocess.
func (s *Store) StitchListPath(session string) string {
	return filepath.Join(s.workDir, fmt.Sprintf("stitch_list_%s.txt", session))
}

// StitchedPath is the concatenated video before music is layered in.
func (s *Store) StitchedPath(session string) string {
	return filepath.Join(s.workDir, fmt.Sprintf("stitched_%s.mp4", session))
}

// MusicPath is the prepared background-music bed for one session.
func (s *Store) MusicPath(session string) string {
	return filepath.Join(s.workDir, fmt.Sprintf("music_%s.m4a", session))
}

// FinishedPath is the session's deliverable.
func (s *Store) FinishedPath(session string) string {
	return filepath.Join(s.outDir, fmt.Sprintf("finished_%s.mp4", session))
}

// SaveTimings writes the word-timing artifact for one scene.
func (s *Store) SaveTimings(session string, index int, timings []types.WordTiming) error {
	data, err := json.Marshal(timings)
	if err != nil {
		return err
	}
	return os.WriteFile(s.TimingPath(session, index), data, 0644)
}

// LoadTimings reads the word-timing artifact for one scene. A missing or
// unreadable file yields an empty sequence, not an error: callers fall back to
// the estimated caption engine in that case.
func (s *Store) LoadTimings(session string, index int) []types.WordTiming {
	data, err := os.ReadFile(s.TimingPath(session, index))
	if err != nil {
		return nil
	}
	var timings []types.WordTiming
	if err := json.Unmarshal(data, &timings); err != nil {
		return nil
	}
	return timings
}
