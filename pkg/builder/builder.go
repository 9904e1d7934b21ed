package builder

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/niels/mdserve/pkg/logging"
	"github.com/niels/mdserve/pkg/progress"
	"github.com/rs/zerolog"
)

// Renderer converts Markdown text to an HTML document
type Renderer interface {
	Render(text string) string
}

// Stats summarizes a build
type Stats struct {
	FilesCopied int
	FilesParsed int
	FilesFailed int
}

// Option configures a Builder
type Option func(*Builder)

// WithTracker reports per-file progress to tracker
func WithTracker(tracker progress.Tracker) Option {
	return func(b *Builder) {
		b.tracker = tracker
	}
}

// WithSourceExtension sets the extension of files that are rendered
func WithSourceExtension(ext string) Option {
	return func(b *Builder) {
		if ext != "" {
			b.sourceExt = "." + strings.TrimPrefix(ext, ".")
		}
	}
}

// Builder renders a content tree into a static site
type Builder struct {
	renderer  Renderer
	tracker   progress.Tracker
	sourceExt string
	logger    zerolog.Logger
}

type actionKind int

const (
	actionCopy actionKind = iota
	actionParse
)

type action struct {
	kind actionKind
	rel  string
}

// New creates a Builder that renders with r
func New(r Renderer, opts ...Option) *Builder {
	b := &Builder{
		renderer:  r,
		tracker:   progress.NoopTracker{},
		sourceExt: ".md",
		logger:    logging.WithComponent("builder"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build walks source and writes every file to dest: source documents are
// rendered to .html, everything else is copied unchanged. A file that fails
// is reported and counted but does not stop the build.
func (b *Builder) Build(source, dest string) (Stats, error) {
	var stats Stats

	actions, err := b.collect(source, dest)
	if err != nil {
		return stats, err
	}

	b.tracker.Start(len(actions))
	defer b.tracker.Finish()

	for _, a := range actions {
		b.tracker.StartFile(a.rel)

		var out string
		switch a.kind {
		case actionParse:
			out, err = b.parse(source, dest, a.rel)
			if err == nil {
				stats.FilesParsed++
			}
		default:
			out, err = b.copy(source, dest, a.rel)
			if err == nil {
				stats.FilesCopied++
			}
		}

		if err != nil {
			stats.FilesFailed++
			b.logger.Error().Err(err).Str("file", a.rel).Msg("failed to build file")
			b.tracker.ErrorFile(a.rel, err.Error())
			continue
		}
		b.tracker.CompleteFile(a.rel, out)
	}

	return stats, nil
}

// collect lists the files under source, skipping dest if it lives inside source
func (b *Builder) collect(source, dest string) ([]action, error) {
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}

	var actions []action
	err = filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if abs, err := filepath.Abs(path); err == nil && abs == absDest {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}

		if !d.Type().IsRegular() {
			b.logger.Warn().Str("file", rel).Msg("unsupported directory entry, skipping")
			return nil
		}

		if filepath.Ext(path) == b.sourceExt {
			actions = append(actions, action{kind: actionParse, rel: rel})
		} else {
			actions = append(actions, action{kind: actionCopy, rel: rel})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory: %w", err)
	}

	return actions, nil
}

func (b *Builder) parse(source, dest, rel string) (string, error) {
	data, err := os.ReadFile(filepath.Join(source, rel))
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if !utf8.Valid(data) {
		return "", errors.New("file is not valid UTF-8")
	}

	out := filepath.Join(dest, strings.TrimSuffix(rel, b.sourceExt)+".html")
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(out, []byte(b.renderer.Render(string(data))), 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return out, nil
}

func (b *Builder) copy(source, dest, rel string) (string, error) {
	out := filepath.Join(dest, rel)
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	src, err := os.Open(filepath.Join(source, rel))
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat file: %w", err)
	}

	dst, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("failed to copy file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to copy file: %w", err)
	}
	return out, nil
}
