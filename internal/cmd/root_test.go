package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/niels/mdserve/pkg/listener"
	"github.com/niels/mdserve/pkg/workerpool"
	"github.com/spf13/cobra"
)

func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	return executeCommandContext(context.Background(), root, args...)
}

func executeCommandContext(ctx context.Context, root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	err = root.ExecuteContext(ctx)
	return buf.String(), err
}

func TestVersionFlag(t *testing.T) {
	output, err := executeCommand(NewRootCmd(), "--version")
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if !strings.Contains(output, "mdserve version 0.1.0") {
		t.Errorf("Expected version information, got: %s", output)
	}
}

func TestVersionCommand(t *testing.T) {
	output, err := executeCommand(NewRootCmd(), "version")
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if !strings.Contains(output, "mdserve version 0.1.0") {
		t.Errorf("Expected version information, got: %s", output)
	}
}

func TestHelpFlag(t *testing.T) {
	output, err := executeCommand(NewRootCmd(), "--help")
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	requiredContent := []string{
		"mdserve",
		"run",
		"build",
		"--config",
		"--debug",
		"--version",
	}

	for _, content := range requiredContent {
		if !strings.Contains(output, content) {
			t.Errorf("Help output missing: %s", content)
		}
	}
}

func TestBuildCommand(t *testing.T) {
	source := t.TempDir()
	dest := filepath.Join(t.TempDir(), "out")

	if err := os.WriteFile(filepath.Join(source, "index.md"), []byte("# Hi"), 0644); err != nil {
		t.Fatalf("Failed to write document: %v", err)
	}
	if err := os.WriteFile(filepath.Join(source, "style.css"), []byte("body {}"), 0644); err != nil {
		t.Fatalf("Failed to write stylesheet: %v", err)
	}

	output, err := executeCommand(NewRootCmd(), "build", source, dest)
	if err != nil {
		t.Fatalf("Unexpected error: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Files copied: 1") || !strings.Contains(output, "Files parsed: 1") {
		t.Errorf("Expected copied and parsed counts, got: %s", output)
	}

	html, err := os.ReadFile(filepath.Join(dest, "index.html"))
	if err != nil {
		t.Fatalf("Expected rendered index.html: %v", err)
	}
	if !strings.Contains(string(html), "<h1>Hi</h1>") {
		t.Errorf("Expected rendered heading, got: %s", html)
	}
	if _, err := os.Stat(filepath.Join(dest, "style.css")); err != nil {
		t.Errorf("Expected style.css to be copied: %v", err)
	}
}

func TestBuildMissingSource(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	_, err := executeCommand(NewRootCmd(), "build", missing, t.TempDir())
	if err == nil {
		t.Error("Expected an error for a missing source directory")
	}
}

func TestRunInvalidAddress(t *testing.T) {
	_, err := executeCommand(NewRootCmd(), "run", t.TempDir(), "not-an-address")

	var bindErr *listener.BindError
	if !errors.As(err, &bindErr) {
		t.Fatalf("Expected a BindError, got %v", err)
	}
	if bindErr.Addr != "not-an-address" {
		t.Errorf("Expected address in error, got %s", bindErr.Addr)
	}
}

func TestRunInvalidWorkers(t *testing.T) {
	_, err := executeCommand(NewRootCmd(), "run", "--workers", "0", t.TempDir(), "127.0.0.1:0")
	if !errors.Is(err, workerpool.ErrInvalidPoolSize) {
		t.Errorf("Expected ErrInvalidPoolSize, got %v", err)
	}
}

func TestRunStopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		output string
		err    error
	}
	done := make(chan result, 1)
	go func() {
		output, err := executeCommandContext(ctx, NewRootCmd(), "run", t.TempDir(), "127.0.0.1:0")
		done <- result{output, err}
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case res := <-done:
		if res.err != nil {
			t.Fatalf("Unexpected error: %v", res.err)
		}
		if !strings.Contains(res.output, "Serving") || !strings.Contains(res.output, "Server stopped") {
			t.Errorf("Expected banner and stop message, got: %s", res.output)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after the context was cancelled")
	}
}
