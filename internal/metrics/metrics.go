package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	PipelineRuns       int64
	ArticlesDisplayed  int64
	ArticlesSaved      int64
	DuplicatesFiltered int64
	FetchFailures      int64
	ArchiveFailures    int64
	SummariesGenerated int64
	SummaryFallbacks   int64
	Refreshes          int64

	// Timings
	LastProcessingTime    time.Duration
	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration
	ProcessingCount       int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool

	now func() time.Time
}

var Global = New()

func New() *Metrics {
	return &Metrics{IsHealthy: true, now: time.Now}
}

// RecordRun adds the counters of one pipeline run.
func (m *Metrics) RecordRun(displayed, saved, duplicates int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PipelineRuns++
	m.ArticlesDisplayed = int64(displayed)
	m.ArticlesSaved += int64(saved)
	m.DuplicatesFiltered += int64(duplicates)
}

func (m *Metrics) IncrementFetchFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchFailures++
}

func (m *Metrics) IncrementArchiveFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArchiveFailures++
}

func (m *Metrics) IncrementSummaries(generated bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if generated {
		m.SummariesGenerated++
	} else {
		m.SummaryFallbacks++
	}
}

func (m *Metrics) IncrementRefreshes() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Refreshes++
}

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastProcessingTime = duration
	m.TotalProcessingTime += duration
	m.ProcessingCount++

	if m.ProcessingCount > 0 {
		m.AverageProcessingTime = m.TotalProcessingTime / time.Duration(m.ProcessingCount)
	}
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = m.now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = m.now()
	m.IsHealthy = false
}

func (m *Metrics) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.IsHealthy
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"pipeline_runs":              m.PipelineRuns,
		"articles_displayed":         m.ArticlesDisplayed,
		"articles_saved":             m.ArticlesSaved,
		"duplicates_filtered":        m.DuplicatesFiltered,
		"fetch_failures":             m.FetchFailures,
		"archive_failures":           m.ArchiveFailures,
		"summaries_generated":        m.SummariesGenerated,
		"summary_fallbacks":          m.SummaryFallbacks,
		"refreshes":                  m.Refreshes,
		"last_processing_time_ms":    m.LastProcessingTime.Milliseconds(),
		"average_processing_time_ms": m.AverageProcessingTime.Milliseconds(),
		"last_run_time":              formatTime(m.LastRunTime),
		"last_error_time":            formatTime(m.LastErrorTime),
		"last_error":                 m.LastError,
		"is_healthy":                 m.IsHealthy,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
