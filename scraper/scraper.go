// Package scraper fetches supplier pages under a concurrency cap and turns
// each source descriptor into exactly one scrape record.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/F8ai/sourcing-agent/config"
	"github.com/F8ai/sourcing-agent/models"
	"github.com/F8ai/sourcing-agent/parser"
	"github.com/F8ai/sourcing-agent/pipeline"
	"github.com/gocolly/colly/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// requestURLKey carries the normalized URL through colly's request context
// so responses settle the waiters registered under the same key.
const requestURLKey = "source_url"

// Scraper wraps the colly collector plus two duplicate-URL shortcuts:
// descriptors sharing a URL within one run coalesce onto a single fetch,
// and fetched bodies land in an LRU cache that serves later lookups of the
// same URL without a request. The limit rule holds each concurrency slot
// through the post-fetch pacing delay, so at most MaxConcurrent fetches are
// in flight and every fetch is followed by the courtesy pause before its
// slot frees up.
type Scraper struct {
	cfg       *config.Config
	collector *colly.Collector
	cache     *lru.Cache[string, []byte]
	pipe      *pipeline.Pipeline
	Metrics   *Metrics

	requestCount int64

	mu           sync.Mutex
	errorsByType map[string]int
	inflight     map[string][]*pending

	handlersOnce sync.Once
}

// pending tracks one source descriptor through its fetch-and-extract cycle.
type pending struct {
	source models.Source
	record *models.ScrapeRecord
	once   sync.Once
}

func (p *pending) resolve(record *models.ScrapeRecord) {
	p.once.Do(func() {
		p.record = record
	})
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	collector := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(cfg.UserAgent),
	)
	collector.IgnoreRobotsTxt = true
	collector.AllowURLRevisit = true

	collector.SetRequestTimeout(cfg.Timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.MaxConcurrent,
		Delay:       cfg.PacingDelay,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limits: %w", err)
	}

	cache, err := lru.New[string, []byte](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create body cache: %w", err)
	}

	return &Scraper{
		cfg:          cfg,
		collector:    collector,
		cache:        cache,
		errorsByType: make(map[string]int),
		inflight:     make(map[string][]*pending),
		Metrics:      NewMetrics(),
	}, nil
}

// Run crawls every source and aggregates one record per descriptor into a
// run report. Individual failures become error records; nothing aborts the
// batch. Records are streamed through p as they complete when p is non-nil.
func (s *Scraper) Run(ctx context.Context, sources []models.Source, p *pipeline.Pipeline) (*models.RunReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.pipe = p
	s.configureHandlers()

	pendings := make([]*pending, len(sources))
	for i, source := range sources {
		pendings[i] = s.enqueue(ctx, source)
	}
	s.collector.Wait()

	records := make([]*models.ScrapeRecord, len(pendings))
	for i, pend := range pendings {
		records[i] = s.settled(pend)
	}

	report := models.NewRunReport(records)
	report.TotalSources = len(sources)
	return report, nil
}

// ScrapeOne performs a single fetch-and-extract cycle. It never returns an
// error: every failure class becomes an error record.
func (s *Scraper) ScrapeOne(ctx context.Context, source models.Source) *models.ScrapeRecord {
	s.configureHandlers()
	pend := s.enqueue(ctx, source)
	s.collector.Wait()
	return s.settled(pend)
}

// settled returns the pending's record, backfilling error records in the
// unexpected case that no handler fired for the request. The backfill also
// drops the URL's in-flight registration so a stale entry cannot swallow
// later fetches of the same URL.
func (s *Scraper) settled(pend *pending) *models.ScrapeRecord {
	if pend.record == nil {
		url := parser.NormalizeURL(pend.source.URL)
		s.settleFailure(url, "no response recorded", 0)
		if pend.record == nil {
			s.finish(pend, models.NewErrorRecord(url, "no response recorded", 0))
		}
	}
	return pend.record
}

// ErrorsByType returns a snapshot of fetch error counts per category.
func (s *Scraper) ErrorsByType() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.errorsByType))
	for k, v := range s.errorsByType {
		out[k] = v
	}
	return out
}

func (s *Scraper) enqueue(ctx context.Context, source models.Source) *pending {
	pend := &pending{source: source}

	if strings.TrimSpace(source.URL) == "" {
		s.finish(pend, models.NewErrorRecord("", errNoURL, 0))
		return pend
	}
	url := parser.NormalizeURL(source.URL)

	if err := ctx.Err(); err != nil {
		s.finish(pend, models.NewErrorRecord(url, err.Error(), 0))
		return pend
	}

	if body, ok := s.cache.Get(url); ok {
		s.Metrics.IncCacheHit()
		s.finish(pend, s.buildRecord(url, body, source))
		return pend
	}

	// Catalogs list the same supplier under several sections. The first
	// descriptor for a URL fetches; later ones attach as waiters and settle
	// off that fetch's outcome, each with its own record.
	s.mu.Lock()
	if waiters, ok := s.inflight[url]; ok {
		s.inflight[url] = append(waiters, pend)
		s.mu.Unlock()
		return pend
	}
	s.inflight[url] = []*pending{pend}
	s.mu.Unlock()

	cctx := colly.NewContext()
	cctx.Put(requestURLKey, url)
	if err := s.collector.Request(http.MethodGet, url, nil, cctx, nil); err != nil {
		s.settleFailure(url, err.Error(), 0)
	}
	return pend
}

func (s *Scraper) finish(pend *pending, record *models.ScrapeRecord) {
	pend.resolve(record)
	s.Metrics.IncScraped(record.Status)
	if s.pipe != nil {
		if err := s.pipe.Process(record); err != nil && !errors.Is(err, pipeline.ErrPipelineClosed) {
			slog.Error("pipeline process error", slog.Any("error", err))
		}
	}
}

// takeWaiters removes and returns every descriptor waiting on url.
func (s *Scraper) takeWaiters(url string) []*pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	waiters := s.inflight[url]
	delete(s.inflight, url)
	return waiters
}

// settleSuccess extracts a record for every waiter from the shared body,
// merging each waiter's own seed values.
func (s *Scraper) settleSuccess(url string, body []byte) {
	for _, pend := range s.takeWaiters(url) {
		s.finish(pend, s.buildRecord(url, body, pend.source))
	}
}

// settleFailure resolves every waiter on url with the same error record.
func (s *Scraper) settleFailure(url, message string, statusCode int) {
	for _, pend := range s.takeWaiters(url) {
		s.finish(pend, models.NewErrorRecord(url, message, statusCode))
	}
}

// buildRecord extracts fields from a fetched body. Extraction is best
// effort and must never take down the batch, so panics from malformed
// documents degrade to error records here.
func (s *Scraper) buildRecord(url string, body []byte, source models.Source) (record *models.ScrapeRecord) {
	defer func() {
		if r := recover(); r != nil {
			record = models.NewErrorRecord(url, fmt.Sprintf("extract: %v", r), 0)
		}
	}()

	record, err := extract(body, url, source)
	if err != nil {
		return models.NewErrorRecord(url, err.Error(), 0)
	}
	return record
}

func (s *Scraper) configureHandlers() {
	s.handlersOnce.Do(func() {
		s.collector.OnRequest(func(r *colly.Request) {
			r.Ctx.Put("start", time.Now())
			current := atomic.AddInt64(&s.requestCount, 1)
			s.Metrics.IncRequest("started")
			slog.Debug("scraping source",
				slog.Int64("request", current),
				slog.String("url", r.URL.String()),
			)
		})

		s.collector.OnResponse(func(r *colly.Response) {
			if start, ok := r.Ctx.GetAny("start").(time.Time); ok {
				s.Metrics.ObserveDuration(time.Since(start))
			}

			url := r.Ctx.Get(requestURLKey)
			if url == "" {
				return
			}

			// Success is HTTP 200 exactly; other 2xx responses are
			// reported the way non-2xx statuses are.
			if r.StatusCode != http.StatusOK {
				httpErr := &HTTPStatusError{StatusCode: r.StatusCode}
				s.settleFailure(url, httpErr.Error(), httpErr.StatusCode)
				return
			}

			s.cache.Add(url, r.Body)
			s.settleSuccess(url, r.Body)
		})

		s.collector.OnError(func(r *colly.Response, err error) {
			statusCode := 0
			url := ""
			if r != nil {
				statusCode = r.StatusCode
				if r.Ctx != nil {
					url = r.Ctx.Get(requestURLKey)
				}
			}

			category := classifyFailure(err, statusCode)
			s.mu.Lock()
			s.errorsByType[category]++
			s.mu.Unlock()
			s.Metrics.IncError(category)

			slog.Error("request error",
				slog.String("url", url),
				slog.String("category", category),
				slog.Any("error", err),
			)

			if url == "" {
				return
			}
			if statusCode != 0 {
				httpErr := &HTTPStatusError{StatusCode: statusCode}
				s.settleFailure(url, httpErr.Error(), httpErr.StatusCode)
				return
			}
			message := "request failed"
			if err != nil {
				message = err.Error()
			}
			s.settleFailure(url, message, 0)
		})
	})
}
