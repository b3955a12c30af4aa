// Package repo acquires remote repositories for analysis.
package repo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrEmptyURL is returned when no repository URL is given.
var ErrEmptyURL = errors.New("repository URL is empty")

// ErrUnsafeStaging is returned when the staging directory holds files but
// is not a previous clone.
var ErrUnsafeStaging = errors.New("staging directory is not empty and is not a git checkout")

// gitBinary is the git executable looked up on PATH.
const gitBinary = "git"

// Clone makes a shallow clone of url into stagingDir. An existing
// stagingDir is replaced only when it is empty or an earlier checkout.
func Clone(ctx context.Context, url, stagingDir string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrEmptyURL
	}
	if strings.TrimSpace(stagingDir) == "" {
		return fmt.Errorf("staging directory is required")
	}
	if err := checkStaging(stagingDir); err != nil {
		return err
	}
	if err := os.RemoveAll(stagingDir); err != nil {
		return fmt.Errorf("clearing %s: %w", stagingDir, err)
	}

	cmd := exec.CommandContext(ctx, gitBinary, "clone", "--depth", "1", url, stagingDir)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("git clone %s: %w", url, err)
		}
		return fmt.Errorf("git clone %s: %w: %s", url, err, msg)
	}
	return nil
}

func checkStaging(dir string) error {
	entries, err := os.ReadDir(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("inspecting %s: %w", dir, err)
	case len(entries) == 0:
		return nil
	}
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		return fmt.Errorf("%s: %w", dir, ErrUnsafeStaging)
	}
	return nil
}
