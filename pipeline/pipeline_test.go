package pipeline

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/F8ai/sourcing-agent/models"
)

type collectingWriter struct {
	mu      sync.Mutex
	records []*models.ScrapeRecord
}

func (cw *collectingWriter) Write(records []*models.ScrapeRecord) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.records = append(cw.records, records...)
	return nil
}

func (cw *collectingWriter) Close() error    { return nil }
func (cw *collectingWriter) Validate() error { return nil }

func (cw *collectingWriter) Count() int {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return len(cw.records)
}

type failingWriter struct{}

func (fw *failingWriter) Write([]*models.ScrapeRecord) error { return errors.New("disk full") }
func (fw *failingWriter) Close() error                       { return nil }
func (fw *failingWriter) Validate() error                    { return nil }

func successRecord(url string) *models.ScrapeRecord {
	return &models.ScrapeRecord{URL: url, Status: models.StatusSuccess, Timestamp: time.Now()}
}

func TestPipelineProcessesRecords(t *testing.T) {
	writer := &collectingWriter{}
	p := NewPipeline(writer)
	p.Start(2)

	const total = 100
	for i := 0; i < total; i++ {
		if err := p.Process(successRecord("https://example.test")); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := writer.Count(); got != total {
		t.Fatalf("written records = %d, want %d", got, total)
	}

	metrics := p.GetMetrics()
	processed := metrics["processed_records"].(map[string]int64)
	if processed[models.StatusSuccess] != total {
		t.Fatalf("processed counter = %d, want %d", processed[models.StatusSuccess], total)
	}
}

func TestPipelineDropsInvalidRecords(t *testing.T) {
	writer := &collectingWriter{}
	p := NewPipeline(writer)
	p.Start(1)

	// Missing timestamp fails validation.
	if err := p.Process(&models.ScrapeRecord{URL: "https://example.test", Status: models.StatusSuccess}); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Process(successRecord("https://example.test")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := writer.Count(); got != 1 {
		t.Fatalf("written records = %d, want 1", got)
	}
	metrics := p.GetMetrics()
	validation := metrics["validation_errors"].(map[string]int)
	if validation["invalid_record"] != 1 {
		t.Fatalf("validation errors = %v, want invalid_record=1", validation)
	}
}

func TestPipelineProcessAfterClose(t *testing.T) {
	p := NewPipeline(&collectingWriter{})
	p.Start(1)
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := p.Process(successRecord("https://example.test")); !errors.Is(err, ErrPipelineClosed) {
		t.Fatalf("process after close = %v, want ErrPipelineClosed", err)
	}
}

func TestPipelineNilRecordIgnored(t *testing.T) {
	p := NewPipeline(&collectingWriter{})
	p.Start(1)
	if err := p.Process(nil); err != nil {
		t.Fatalf("nil record should be ignored, got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestPipelineNilWriter(t *testing.T) {
	p := NewPipeline(nil)
	p.Start(1)
	for i := 0; i < 10; i++ {
		if err := p.Process(successRecord("https://example.test")); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestPipelineWriterErrorSurfaces(t *testing.T) {
	p := NewPipeline(&failingWriter{})
	p.Start(1)

	// Enough records to force at least one batch flush.
	for i := 0; i < 64; i++ {
		if err := p.Process(successRecord("https://example.test")); err != nil {
			break // pipeline may shut down mid-loop once the write fails
		}
	}

	if err := p.Close(); err == nil {
		t.Fatalf("expected writer error to surface on close")
	}
}
