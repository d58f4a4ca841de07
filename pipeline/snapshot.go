package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/F8ai/sourcing-agent/models"
)

// SnapshotDir is where auto-named run report snapshots land.
const SnapshotDir = "sources"

// SnapshotPath derives the auto-generated snapshot filename for now.
func SnapshotPath(now time.Time) string {
	return filepath.Join(SnapshotDir, fmt.Sprintf("scraped_data_%s.json", now.Format("20060102_150405")))
}

// SaveReport serializes the run report as indented JSON to path, deriving a
// timestamped path under sources/ when path is empty. It returns the path
// written. A write failure leaves the in-memory report untouched; callers
// log the error and carry on.
func SaveReport(report *models.RunReport, path string) (string, error) {
	if path == "" {
		path = SnapshotPath(time.Now())
	}
	if err := ensureDir(path); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
