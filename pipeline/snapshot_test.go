package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/F8ai/sourcing-agent/models"
)

func TestSnapshotPath(t *testing.T) {
	now := time.Date(2025, 11, 18, 14, 30, 5, 0, time.UTC)
	want := filepath.Join("sources", "scraped_data_20251118_143005.json")
	if got := SnapshotPath(now); got != want {
		t.Fatalf("SnapshotPath = %q, want %q", got, want)
	}
}

func TestSaveReportRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	report := models.NewRunReport([]*models.ScrapeRecord{
		{
			URL:         "https://good.example.test",
			Status:      models.StatusSuccess,
			Title:       "Acme Nutrients",
			Description: "We sell nutrients.",
			Products:    []string{"Nutrients", "pH Control"},
			ContactInfo: &models.ContactInfo{Email: "sales@acme.example.test"},
			Location:    "Portland, OR",
			Timestamp:   now,
		},
		{
			URL:        "https://missing.example.test",
			Status:     models.StatusError,
			Error:      "HTTP 404",
			HTTPStatus: 404,
			Timestamp:  now,
		},
	})

	path := filepath.Join(t.TempDir(), "report.json")
	savedTo, err := SaveReport(report, path)
	if err != nil {
		t.Fatalf("save report: %v", err)
	}
	if savedTo != path {
		t.Fatalf("saved to %q, want %q", savedTo, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var loaded models.RunReport
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}

	if loaded.TotalSources != 2 || loaded.SuccessfulScrapes != 1 || loaded.FailedScrapes != 1 {
		t.Fatalf("totals = %d/%d/%d, want 2/1/1",
			loaded.TotalSources, loaded.SuccessfulScrapes, loaded.FailedScrapes)
	}
	success := loaded.Results[0]
	if success.Title != "Acme Nutrients" || success.Location != "Portland, OR" {
		t.Fatalf("success record = %+v", success)
	}
	if success.ContactInfo == nil || success.ContactInfo.Email != "sales@acme.example.test" {
		t.Fatalf("contact info = %+v", success.ContactInfo)
	}
	failure := loaded.Failures[0]
	if failure.Error != "HTTP 404" || failure.HTTPStatus != 404 {
		t.Fatalf("failure record = %+v", failure)
	}
}

func TestSaveReportAutoPath(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(cwd) })

	report := models.NewRunReport(nil)
	savedTo, err := SaveReport(report, "")
	if err != nil {
		t.Fatalf("save report: %v", err)
	}

	if filepath.Dir(savedTo) != SnapshotDir {
		t.Fatalf("auto path %q should live under %q", savedTo, SnapshotDir)
	}
	base := filepath.Base(savedTo)
	if len(base) != len("scraped_data_20060102_150405.json") {
		t.Fatalf("auto path base %q has unexpected shape", base)
	}
	if _, err := os.Stat(savedTo); err != nil {
		t.Fatalf("snapshot file missing: %v", err)
	}
}

func TestSaveReportCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "report.json")
	if _, err := SaveReport(models.NewRunReport(nil), path); err != nil {
		t.Fatalf("save report: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("report file missing: %v", err)
	}
}
