package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Status represents the status of a file in a build
type Status string

const (
	// StatusProcessing indicates the file is currently being processed
	StatusProcessing Status = "processing"
	// StatusCompleted indicates the file was written successfully
	StatusCompleted Status = "completed"
	// StatusError indicates an error occurred while processing the file
	StatusError Status = "error"
)

// FileProgress represents the progress of a single file
type FileProgress struct {
	Path      string
	Status    Status
	StartTime time.Time
	EndTime   time.Time
	Detail    string
}

// Tracker is an interface for tracking progress of a build
type Tracker interface {
	// Start initializes the progress tracker with the total number of files
	Start(totalFiles int)
	// StartFile marks a file as being processed
	StartFile(path string)
	// CompleteFile marks a file as done; detail describes what was produced
	CompleteFile(path string, detail string)
	// ErrorFile marks a file as having an error with an error message
	ErrorFile(path string, message string)
	// Finish completes the progress tracking
	Finish()
}

// ConsoleTracker implements Tracker for console output, one line per file
type ConsoleTracker struct {
	mu           sync.Mutex
	writer       io.Writer
	totalFiles   int
	fileProgress map[string]*FileProgress
	startTime    time.Time
	completed    int
	errors       int
}

// NewConsoleTracker creates a new console progress tracker
func NewConsoleTracker() *ConsoleTracker {
	return &ConsoleTracker{
		writer:       os.Stdout,
		fileProgress: make(map[string]*FileProgress),
	}
}

// WithWriter sets the writer for the console tracker
func (t *ConsoleTracker) WithWriter(writer io.Writer) *ConsoleTracker {
	t.writer = writer
	return t
}

// Start initializes the progress tracker with the total number of files
func (t *ConsoleTracker) Start(totalFiles int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.totalFiles = totalFiles
	t.startTime = time.Now()
	t.completed = 0
	t.errors = 0

	fmt.Fprintf(t.writer, "Building %d files...\n", totalFiles)
}

// StartFile marks a file as being processed
func (t *ConsoleTracker) StartFile(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.fileProgress[path] = &FileProgress{
		Path:      path,
		Status:    StatusProcessing,
		StartTime: time.Now(),
	}
}

// CompleteFile marks a file as completed
func (t *ConsoleTracker) CompleteFile(path string, detail string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.finishFile(path, StatusCompleted, detail)
	t.completed++

	fmt.Fprintf(t.writer, "%s %s %s\n", t.counter(), color.GreenString("✓"), path)
	if detail != "" {
		fmt.Fprintf(t.writer, "    %s\n", color.CyanString(detail))
	}
}

// ErrorFile marks a file as having an error with an error message
func (t *ConsoleTracker) ErrorFile(path string, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.finishFile(path, StatusError, message)
	t.errors++

	fmt.Fprintf(t.writer, "%s %s %s: %s\n", t.counter(), color.RedString("✗"), path, message)
}

// Finish completes the progress tracking
func (t *ConsoleTracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	duration := time.Since(t.startTime).Round(time.Millisecond)
	fmt.Fprintf(t.writer, "\nBuild completed in %s\n", duration)

	summary := fmt.Sprintf("Processed %d files: %d completed, %d errors", t.totalFiles, t.completed, t.errors)
	if t.errors > 0 {
		summary = color.YellowString(summary)
	}
	fmt.Fprintln(t.writer, summary)
}

// Files returns a snapshot of the per-file progress
func (t *ConsoleTracker) Files() map[string]FileProgress {
	t.mu.Lock()
	defer t.mu.Unlock()

	files := make(map[string]FileProgress, len(t.fileProgress))
	for path, p := range t.fileProgress {
		files[path] = *p
	}
	return files
}

func (t *ConsoleTracker) finishFile(path string, status Status, detail string) {
	now := time.Now()
	progress, ok := t.fileProgress[path]
	if !ok {
		progress = &FileProgress{Path: path, StartTime: now}
		t.fileProgress[path] = progress
	}
	progress.Status = status
	progress.EndTime = now
	progress.Detail = detail
}

// counter formats "[done/total]"
func (t *ConsoleTracker) counter() string {
	width := len(fmt.Sprint(t.totalFiles))
	return fmt.Sprintf("[%*d/%d]", width, t.completed+t.errors, t.totalFiles)
}

// NoopTracker discards all progress updates
type NoopTracker struct{}

func (NoopTracker) Start(int) {}
func (NoopTracker) StartFile(string) {}
func (NoopTracker) CompleteFile(string, string) {}
func (NoopTracker) ErrorFile(string, string) {}
func (NoopTracker) Finish() {}
