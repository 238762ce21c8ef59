package domain

import "time"

// CloneStatus enumerates the lifecycle states of a clone job.
type CloneStatus string

const (
	StatusPending    CloneStatus = "pending"
	StatusFetching   CloneStatus = "fetching"
	StatusGenerating CloneStatus = "generating"
	StatusComplete   CloneStatus = "complete"
	StatusFailed     CloneStatus = "failed"
)

// transitions maps each status to the states it may advance to. Transitions
// are one-directional; a terminal status never moves again.
var transitions = map[CloneStatus][]CloneStatus{
	StatusPending:    {StatusFetching, StatusFailed},
	StatusFetching:   {StatusGenerating, StatusFailed},
	StatusGenerating: {StatusComplete, StatusFailed},
}

// CanTransition reports whether a job may move from one status to another.
func CanTransition(from, to CloneStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CloneJob tracks one clone request through the pipeline. The ID is assigned
// at creation, is immutable, and is never reused even after failure. Each job
// is owned by the request that created it; no job is mutated by more than one
// pipeline execution.
type CloneJob struct {
	ID          string
	SourceURL   string
	Status      CloneStatus
	OutputDir   string
	ErrorDetail string
	CreatedAt   time.Time
	CompletedAt time.Time
}

// Stylesheet is one unit of style content attached to a fetched page. Href is
// empty for inline <style> blocks.
type Stylesheet struct {
	Href    string
	Content string
}

// FetchedPage is the transient in-memory result of rendering a URL in the
// headless browser. It is handed from the fetcher to the generator and never
// persisted on its own.
type FetchedPage struct {
	URL      string
	FinalURL string
	Title    string
	HTML     string
	Styles   []Stylesheet
	Text     string
}

// GeneratedSite is the completion output destined for the clone store.
type GeneratedSite struct {
	SourceURL string
	HTML      string
	CSS       string
	Provider  string
}
