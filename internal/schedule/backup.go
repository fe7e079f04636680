package schedule

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	appLog "deskcal/internal/log"
)

const (
	backupPrefix = "events-"
	backupSuffix = ".json"
	backupLayout = "20060102-150405"
)

// RawSource yields the persisted event payload. store.EventStore
// satisfies it.
type RawSource interface {
	Raw(ctx context.Context) ([]byte, error)
}

// Backup copies the raw event blob into Dir and keeps the newest Keep
// copies.
type Backup struct {
	Source RawSource
	Dir    string
	Keep   int
	Now    func() time.Time
}

// Run writes one backup and prunes old ones. It returns the written path,
// or "" when there was nothing to back up.
func (b *Backup) Run(ctx context.Context) (string, error) {
	data, err := b.Source.Raw(ctx)
	if err != nil {
		return "", fmt.Errorf("backup: read events: %w", err)
	}
	if len(data) == 0 {
		appLog.Info("backup: no events stored yet; skipping")
		return "", nil
	}

	if err := os.MkdirAll(b.Dir, 0o700); err != nil {
		return "", fmt.Errorf("backup: create dir: %w", err)
	}

	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	name := backupPrefix + now().Format(backupLayout) + backupSuffix
	path := filepath.Join(b.Dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("backup: write: %w", err)
	}
	appLog.Info("backup written", "path", path, "bytes", len(data))

	if err := b.prune(); err != nil {
		appLog.Error("backup: prune failed", err, "dir", b.Dir)
	}
	return path, nil
}

// Job adapts Run to the scheduler.
func (b *Backup) Job() Job {
	return func(ctx context.Context) error {
		_, err := b.Run(ctx)
		return err
	}
}

// prune removes all but the newest Keep backups. Names sort by time.
func (b *Backup) prune() error {
	if b.Keep <= 0 {
		return nil
	}
	entries, err := os.ReadDir(b.Dir)
	if err != nil {
		return err
	}

	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.Type().IsRegular() && strings.HasPrefix(n, backupPrefix) && strings.HasSuffix(n, backupSuffix) {
			names = append(names, n)
		}
	}
	if len(names) <= b.Keep {
		return nil
	}

	sort.Strings(names)
	for _, n := range names[:len(names)-b.Keep] {
		if err := os.Remove(filepath.Join(b.Dir, n)); err != nil {
			return err
		}
		appLog.Debug("backup pruned", "file", n)
	}
	return nil
}
