package models

import "time"

// Record statuses. Success means the target answered HTTP 200; pages that
// return 200 with an error-page body still count as successes.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ContactInfo holds contact details pulled from a supplier page.
type ContactInfo struct {
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// ScrapeRecord is the outcome of crawling one source. Every descriptor
// yields exactly one record, success or error.
type ScrapeRecord struct {
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`

	Title          string       `json:"title,omitempty"`
	Description    string       `json:"description,omitempty"`
	Products       []string     `json:"products,omitempty"`
	ContactInfo    *ContactInfo `json:"contact_info,omitempty"`
	Location       string       `json:"location,omitempty"`
	Certifications []string     `json:"certifications,omitempty"`
	Services       []string     `json:"services,omitempty"`

	Error string `json:"error,omitempty"`
	// HTTPStatus carries the response code for HTTP-level failures. Zero
	// when the failure happened before a status line arrived.
	HTTPStatus int `json:"http_status,omitempty"`
}

// NewErrorRecord builds an error record for a failed source.
func NewErrorRecord(url, message string, httpStatus int) *ScrapeRecord {
	return &ScrapeRecord{
		URL:        url,
		Timestamp:  time.Now(),
		Status:     StatusError,
		Error:      message,
		HTTPStatus: httpStatus,
	}
}

// RunReport aggregates one crawl invocation. Constructed once, never
// mutated afterwards.
type RunReport struct {
	TotalSources      int             `json:"total_sources"`
	SuccessfulScrapes int             `json:"successful_scrapes"`
	FailedScrapes     int             `json:"failed_scrapes"`
	Results           []*ScrapeRecord `json:"results"`
	Failures          []*ScrapeRecord `json:"failures"`
	Timestamp         time.Time       `json:"timestamp"`
}

// NewRunReport partitions records into successes and failures, preserving
// input order within each partition.
func NewRunReport(records []*ScrapeRecord) *RunReport {
	report := &RunReport{
		TotalSources: len(records),
		Results:      []*ScrapeRecord{},
		Failures:     []*ScrapeRecord{},
		Timestamp:    time.Now(),
	}
	for _, record := range records {
		if record == nil {
			continue
		}
		if record.Status == StatusSuccess {
			report.Results = append(report.Results, record)
		} else {
			report.Failures = append(report.Failures, record)
		}
	}
	report.SuccessfulScrapes = len(report.Results)
	report.FailedScrapes = len(report.Failures)
	return report
}
