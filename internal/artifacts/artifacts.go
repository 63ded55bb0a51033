package artifacts

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"ruokalista/internal/fileutil"
	"ruokalista/internal/logging"
	"ruokalista/internal/menu"
	"ruokalista/internal/metrics"
)

const (
	artifactPrefix = "menu-"
	artifactSuffix = ".mp4"
	propsPrefix    = "props-"
	propsSuffix    = ".json"
	framesDirName  = "frames"
	engineOutput   = "render-output.mp4"
)

// Artifact is a rendered file for one day.
type Artifact struct {
	Key     menu.DayKey
	Path    string
	Size    int64
	ModTime time.Time
}

// Cache owns the artifact file set in the output directory: final files
// named menu-<key>.mp4, the shared frames directory and per-render props files.
type Cache struct {
	dir    string
	clock  menu.Clock
	logger *slog.Logger
}

// New returns an artifact cache rooted at dir.
func New(dir string, clock menu.Clock, logger *slog.Logger) *Cache {
	return &Cache{
		dir:    dir,
		clock:  clock,
		logger: logging.NewComponentLogger(logger, "artifacts"),
	}
}

// Dir returns the output directory.
func (c *Cache) Dir() string { return c.dir }

// Path returns the final artifact path for key.
func (c *Cache) Path(key menu.DayKey) string {
	return filepath.Join(c.dir, artifactPrefix+key.String()+artifactSuffix)
}

// PropsPath returns the engine input file for key.
func (c *Cache) PropsPath(key menu.DayKey) string {
	return filepath.Join(c.dir, propsPrefix+key.String()+propsSuffix)
}

// FramesDir is the fixed working directory the engine writes frames into.
func (c *Cache) FramesDir() string {
	return filepath.Join(c.dir, framesDirName)
}

// StagingPath is where the engine writes its output before Commit.
func (c *Cache) StagingPath() string {
	return filepath.Join(c.FramesDir(), engineOutput)
}

// Lookup reports the artifact for key when its file exists and is non-empty.
func (c *Cache) Lookup(key menu.DayKey) (Artifact, bool, error) {
	path := c.Path(key)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return Artifact{}, false, nil
	}
	if err != nil {
		return Artifact{}, false, fmt.Errorf("stat artifact %s: %w", key, err)
	}
	if info.IsDir() || info.Size() == 0 {
		return Artifact{}, false, nil
	}
	return Artifact{Key: key, Path: path, Size: info.Size(), ModTime: info.ModTime()}, true, nil
}

// Current looks up the artifact for the live day key.
func (c *Cache) Current() (Artifact, bool, error) {
	return c.Lookup(menu.Today(c.clock))
}

// PrepareFrames empties and recreates the frames directory.
func (c *Cache) PrepareFrames() error {
	if err := os.RemoveAll(c.FramesDir()); err != nil {
		return fmt.Errorf("clear frames directory: %w", err)
	}
	if err := os.MkdirAll(c.FramesDir(), 0o755); err != nil {
		return fmt.Errorf("create frames directory: %w", err)
	}
	return nil
}

// Commit moves the engine output at src into the final location for key.
func (c *Cache) Commit(key menu.DayKey, src string) (Artifact, error) {
	info, err := os.Stat(src)
	if err != nil {
		return Artifact{}, fmt.Errorf("engine output: %w", err)
	}
	if info.Size() == 0 {
		return Artifact{}, fmt.Errorf("engine output %s is empty", src)
	}
	dst := c.Path(key)
	if err := fileutil.MoveFile(src, dst); err != nil {
		return Artifact{}, fmt.Errorf("commit artifact %s: %w", key, err)
	}
	artifact, ok, err := c.Lookup(key)
	if err != nil {
		return Artifact{}, err
	}
	if !ok {
		return Artifact{}, fmt.Errorf("commit artifact %s: file missing after move", key)
	}
	return artifact, nil
}

// CleanIntermediate removes the frames directory and every props file.
// Final artifacts are left untouched.
func (c *Cache) CleanIntermediate() error {
	var errs []error
	if err := os.RemoveAll(c.FramesDir()); err != nil {
		errs = append(errs, fmt.Errorf("remove frames: %w", err))
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, fmt.Errorf("list output directory: %w", err))
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			continue
		}
		isProps := strings.HasPrefix(name, propsPrefix) && strings.HasSuffix(name, propsSuffix)
		isPartial := strings.HasSuffix(name, ".partial")
		if !isProps && !isPartial {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		metrics.ArtifactsPruned.Inc()
	}
	return errors.Join(errs...)
}

// PruneStale removes every final artifact whose key is neither the live day
// key nor one of keep. The live key is re-read from the clock for each
// candidate, so a rollover during the sweep never deletes the new day's file.
func (c *Cache) PruneStale(keep ...menu.DayKey) (int, error) {
	list, err := c.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	var errs []error
	for _, artifact := range list {
		if artifact.Key == menu.Today(c.clock) || slices.Contains(keep, artifact.Key) {
			continue
		}
		if err := os.Remove(artifact.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
		metrics.ArtifactsPruned.Inc()
		c.logger.Info("removed stale artifact",
			logging.String("stale_key", artifact.Key.String()),
			logging.String("path", artifact.Path),
			logging.String(logging.FieldEventType, "artifact_pruned"),
		)
	}
	return removed, errors.Join(errs...)
}

// List returns every final artifact in the output directory, oldest key first.
func (c *Cache) List() ([]Artifact, error) {
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list output directory: %w", err)
	}
	out := make([]Artifact, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, artifactPrefix) || !strings.HasSuffix(name, artifactSuffix) {
			continue
		}
		key, err := menu.ParseDayKey(strings.TrimSuffix(strings.TrimPrefix(name, artifactPrefix), artifactSuffix))
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, Artifact{
			Key:     key,
			Path:    filepath.Join(c.dir, name),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	slices.SortFunc(out, func(a, b Artifact) int { return strings.Compare(a.Key.String(), b.Key.String()) })
	return out, nil
}
