package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/F8ai/sourcing-agent/models"
)

// RecordLog writes newline-delimited JSON records as they complete, so a
// long crawl leaves a usable trail even if the process dies before the
// final snapshot.
type RecordLog struct {
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewRecordLog initialises the JSONL record log.
func NewRecordLog(filename string) (*RecordLog, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create record log: %w", err)
	}

	buffer := bufio.NewWriter(f)
	return &RecordLog{
		file:    f,
		writer:  buffer,
		encoder: json.NewEncoder(buffer),
	}, nil
}

// Write appends records in JSONL format.
func (rl *RecordLog) Write(records []*models.ScrapeRecord) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for _, record := range records {
		if err := rl.encoder.Encode(record); err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
	}

	if err := rl.writer.Flush(); err != nil {
		return fmt.Errorf("flush record log: %w", err)
	}
	return nil
}

// Close flushes buffers and closes the underlying file.
func (rl *RecordLog) Close() error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if err := rl.writer.Flush(); err != nil {
		return fmt.Errorf("flush record log: %w", err)
	}
	return rl.file.Close()
}

// Validate ensures the record log has data.
func (rl *RecordLog) Validate() error {
	info, err := rl.file.Stat()
	if err != nil {
		return fmt.Errorf("stat record log: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("record log is empty")
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
