// Package pipeline streams scrape records to output writers and snapshots
// run reports to disk.
package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/F8ai/sourcing-agent/models"
	"github.com/F8ai/sourcing-agent/parser"
)

var (
	// ErrPipelineClosed is returned when Process is called after shutdown.
	ErrPipelineClosed = errors.New("pipeline: closed")
)

// OutputWriter defines the interface for record output.
type OutputWriter interface {
	Write(records []*models.ScrapeRecord) error
	Close() error
	Validate() error
}

// Pipeline coordinates record validation and output writing. The crawler
// owns the run report; the pipeline only observes records as they complete,
// so a writer failure never loses the in-memory report.
type Pipeline struct {
	writer    OutputWriter // nil disables streaming output
	recordCh  chan *models.ScrapeRecord
	batchSize int

	wg sync.WaitGroup

	metrics metrics

	mu     sync.Mutex // guards closed/err
	closed bool
	err    error

	closeOnce    sync.Once
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewPipeline builds a pipeline with a modest in-memory buffer.
func NewPipeline(writer OutputWriter) *Pipeline {
	return &Pipeline{
		writer:    writer,
		recordCh:  make(chan *models.ScrapeRecord, 256),
		batchSize: 32,
		metrics:   newMetrics(),
		shutdown:  make(chan struct{}),
	}
}

// Start launches worker goroutines.
func (p *Pipeline) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Process enqueues a record for downstream processing.
func (p *Pipeline) Process(record *models.ScrapeRecord) error {
	if record == nil {
		return nil
	}

	closed, err := p.state()
	if err != nil {
		return err
	}
	if closed {
		return ErrPipelineClosed
	}
	return p.enqueue(record)
}

// Close waits for workers to finish and prevents more submissions.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
	}
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.recordCh)
	})

	p.wg.Wait()
	return p.Err()
}

// Err returns the first error encountered during processing.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.metrics.snapshot()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()

	batch := make([]*models.ScrapeRecord, 0, p.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if p.writer != nil {
			if err := p.writer.Write(batch); err != nil {
				return err
			}
		}
		batch = batch[:0]
		return nil
	}

	for record := range p.recordCh {
		if err := parser.ValidateRecord(record); err != nil {
			p.metrics.addValidation("invalid_record")
			continue
		}
		p.metrics.incrementProcessed(record.Status)

		batch = append(batch, record)
		if len(batch) >= p.batchSize {
			if err := flush(); err != nil {
				p.setErr(fmt.Errorf("write batch: %w", err))
				return
			}
		}
	}

	if err := flush(); err != nil {
		p.setErr(fmt.Errorf("write batch: %w", err))
	}
}

func (p *Pipeline) enqueue(record *models.ScrapeRecord) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrPipelineClosed
		}
	}()

	select {
	case <-p.shutdown:
		return ErrPipelineClosed
	case p.recordCh <- record:
		return nil
	}
}

func (p *Pipeline) setErr(err error) {
	if err == nil {
		return
	}

	p.mu.Lock()
	if p.err != nil {
		p.mu.Unlock()
		return
	}
	p.err = err
	p.closed = true
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.recordCh)
	})
}

func (p *Pipeline) state() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed, p.err
}

func (p *Pipeline) signalShutdown() {
	p.shutdownOnce.Do(func() {
		close(p.shutdown)
	})
}

type metrics struct {
	mu         sync.Mutex
	processed  map[string]int64
	validation map[string]int
}

func newMetrics() metrics {
	return metrics{
		processed:  make(map[string]int64),
		validation: make(map[string]int),
	}
}

func (m *metrics) incrementProcessed(status string) {
	m.mu.Lock()
	m.processed[status]++
	m.mu.Unlock()
}

func (m *metrics) addValidation(kind string) {
	m.mu.Lock()
	m.validation[kind]++
	m.mu.Unlock()
}

func (m *metrics) snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	copyProcessed := make(map[string]int64, len(m.processed))
	for k, v := range m.processed {
		copyProcessed[k] = v
	}
	copyValidation := make(map[string]int, len(m.validation))
	for k, v := range m.validation {
		copyValidation[k] = v
	}

	return map[string]interface{}{
		"processed_records": copyProcessed,
		"validation_errors": copyValidation,
	}
}
