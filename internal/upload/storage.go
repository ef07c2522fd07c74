package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DiskStorage is a Storage that writes uploads under a local directory.
// Each upload gets its own directory so filenames never collide.
type DiskStorage struct {
	Dir string
}

// Put writes the content to disk and returns a file:// URL plus the
// generated provider id.
func (d DiskStorage) Put(_ context.Context, filename string, content io.Reader) (string, string, error) {
	providerID := uuid.NewString()
	dir := filepath.Join(d.Dir, providerID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating upload dir: %w", err)
	}

	path := filepath.Join(dir, filepath.Base(filename))
	f, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("creating upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		return "", "", fmt.Errorf("writing upload: %w", err)
	}

	return "file://" + path, providerID, nil
}

// SlogNotifier logs notifications; it stands in for the client snackbar on
// server-side and CLI flows.
type SlogNotifier struct {
	Logger *slog.Logger
}

// Success logs the message at info level.
func (n SlogNotifier) Success(msg string) { n.Logger.Info("notify", "kind", "success", "message", msg) }

// Failure logs the message at warn level.
func (n SlogNotifier) Failure(msg string) { n.Logger.Warn("notify", "kind", "failure", "message", msg) }
