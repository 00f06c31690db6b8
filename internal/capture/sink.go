package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mj1618/a11y-probe/internal/platform"
	"github.com/rs/zerolog"
)

// ErrNoCaptureDir is returned when the capture directory does not exist.
var ErrNoCaptureDir = errors.New("capture directory does not exist")

// ErrInvalidID is returned for capture ids that would name a file outside
// the capture directory.
var ErrInvalidID = errors.New("invalid capture id")

// ValidateID checks that id names a single file inside the capture
// directory: not empty, not "." or "..", no path separators.
func ValidateID(id string) error {
	if id == "" || id == "." || id == ".." ||
		strings.ContainsAny(id, `/\`) || !filepath.IsLocal(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// Options configures a Sink.
type Options struct {
	Dir      string
	Scale    float64
	Annotate bool // draw NAF boxes on screenshots
	Tree     platform.TreeProvider
	Screen   platform.Screenshotter
	Logger   zerolog.Logger
}

// Sink writes tree dumps and screenshots for capture ids. Callers that do
// not need the result may ignore it; every outcome is logged.
type Sink struct {
	opts   Options
	xml    XMLWriter
	png    PNGWriter
	logger zerolog.Logger
}

// NewSink checks that opts.Dir exists and returns a Sink writing into it.
func NewSink(opts Options) (*Sink, error) {
	info, err := os.Stat(opts.Dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNoCaptureDir, opts.Dir)
	}
	return &Sink{
		opts:   opts,
		xml:    XMLWriter{Dir: opts.Dir},
		png:    PNGWriter{Dir: opts.Dir, Scale: opts.Scale},
		logger: opts.Logger,
	}, nil
}

// Dir returns the capture directory.
func (s *Sink) Dir() string {
	return s.opts.Dir
}

// DumpTree writes the active window's tree to a11y-<id>.xml.
func (s *Sink) DumpTree(ctx context.Context, id string) (string, error) {
	if err := ValidateID(id); err != nil {
		s.logger.Error().Err(err).Msg("DUMP 500")
		return "", err
	}
	start := time.Now()
	s.logger.Debug().Str("id", id).Msg("start to dump")

	root, err := s.opts.Tree.Root(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("id", id).Msg("DUMP 500")
		return "", fmt.Errorf("dump %s: %w", id, err)
	}
	if root == nil {
		s.logger.Warn().Str("id", id).Msg("no active window, writing empty hierarchy")
	}
	path, err := s.xml.Write(id, root)
	if err != nil {
		s.logger.Error().Err(err).Str("id", id).Msg("DUMP 500")
		return "", err
	}
	s.logger.Info().Str("id", id).Str("path", path).Dur("took", time.Since(start)).Msg("DUMP 200")
	return path, nil
}

// Screenshot writes the current screen to <id>.png.
func (s *Sink) Screenshot(ctx context.Context, id string) (string, error) {
	if err := ValidateID(id); err != nil {
		s.logger.Error().Err(err).Msg("SCREENSHOT 500")
		return "", err
	}
	img, err := s.opts.Screen.Screenshot(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("id", id).Msg("SCREENSHOT 500")
		return "", fmt.Errorf("screenshot %s: %w", id, err)
	}
	if s.opts.Annotate && s.opts.Tree != nil {
		root, err := s.opts.Tree.Root(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Str("id", id).Msg("annotation skipped")
		} else if boxes := NAFBoxes(root); len(boxes) > 0 {
			img = Annotate(img, boxes)
		}
	}
	path, err := s.png.Write(id, img)
	if err != nil {
		s.logger.Error().Err(err).Str("id", id).Msg("SCREENSHOT 500")
		return "", err
	}
	s.logger.Info().Str("id", id).Str("path", path).Msg("SCREENSHOT 200")
	return path, nil
}
