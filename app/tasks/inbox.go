package tasks

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const (
	processedDir = "processed"
	failedDir    = "failed"
)

// Inbox is the drop directory scrapers write batches into, laid out as
// <dir>/<source>/*.json. Finished files move to processed/ or failed/ next
// to them.
type Inbox struct {
	dir string
}

func NewInbox(dir string) *Inbox {
	return &Inbox{dir: dir}
}

// Pending lists the batch files waiting for a source, oldest name first.
func (i *Inbox) Pending(sourceName string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(i.dir, sourceName, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list batch files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

func (i *Inbox) Complete(path string) (string, error) {
	return i.move(path, processedDir)
}

func (i *Inbox) Fail(path string) (string, error) {
	return i.move(path, failedDir)
}

func (i *Inbox) move(path, to string) (string, error) {
	targetDir := filepath.Join(filepath.Dir(path), to)
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", to, err)
	}

	target := filepath.Join(targetDir, filepath.Base(path))
	if err := os.Rename(path, target); err != nil {
		return "", fmt.Errorf("failed to move batch file to %s: %w", to, err)
	}
	return target, nil
}
