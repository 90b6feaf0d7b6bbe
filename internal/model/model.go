// Package model defines the domain types used across the application.
package model

import "fmt"

// Status is the lifecycle state of a media request.
type Status int

// The five request lifecycle states reported by the server.
// Unknown values are tolerated and counted, but get no bucket.
const (
	StatusPending            Status = 1
	StatusApproved           Status = 2
	StatusPartiallyAvailable Status = 3
	StatusProcessing         Status = 4
	StatusAvailable          Status = 5
)

// KnownStatuses lists the bucketed statuses in display order.
var KnownStatuses = []Status{
	StatusPending,
	StatusApproved,
	StatusPartiallyAvailable,
	StatusProcessing,
	StatusAvailable,
}

// Name returns the human-readable name of a status.
func (s Status) Name() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusApproved:
		return "Approved"
	case StatusPartiallyAvailable:
		return "Partially Available"
	case StatusProcessing:
		return "Processing"
	case StatusAvailable:
		return "Available"
	}
	return fmt.Sprintf("Status %d", int(s))
}

// Known reports whether the status is one of the five bucketed states.
func (s Status) Known() bool {
	return s >= StatusPending && s <= StatusAvailable
}

// MediaType distinguishes movie requests from TV requests.
type MediaType string

// Supported media types. The server's detail endpoint uses the value
// as a URL path segment.
const (
	MediaMovie MediaType = "movie"
	MediaTV    MediaType = "tv"
)

// Request is one media request as returned by the list endpoint.
type Request struct {
	ID          int64
	Status      Status
	Type        MediaType
	CreatedAt   string
	RequestedBy string
	TmdbID      int64
	Media       Media
}

// Media is the partial metadata embedded in a request. Any field may
// be empty; the enricher fills gaps from the detail endpoint.
type Media struct {
	Title        string
	Overview     string
	ReleaseDate  string
	Rating       float64
	Runtime      int
	Genres       []string
	PosterPath   string
	BackdropPath string
}

// EnrichedRequest is a request merged with display metadata.
// Title is always non-empty; the rest is best-effort.
type EnrichedRequest struct {
	ID          int64
	Status      Status
	Type        MediaType
	CreatedAt   string
	RequestedBy string
	TmdbID      int64

	Title       string
	Overview    string
	ReleaseDate string
	Genres      []string
	Rating      float64
	Runtime     int
	PosterURL   string
	BackdropURL string
}

// Snapshot is the immutable result of one refresh cycle. Consumers
// only ever see a fully built snapshot, never a partial one.
type Snapshot struct {
	StatusCounts  map[Status]int
	TotalRequests int
	RecentItems   []EnrichedRequest
	ItemsByStatus map[Status][]EnrichedRequest
	RawCount      int
}

// Pending returns the pending bucket of the snapshot.
func (s *Snapshot) Pending() []EnrichedRequest {
	if s == nil {
		return nil
	}
	return s.ItemsByStatus[StatusPending]
}

// PendingCount returns the tallied count of pending requests.
func (s *Snapshot) PendingCount() int {
	if s == nil {
		return 0
	}
	return s.StatusCounts[StatusPending]
}

// ApprovalRecord is one audit entry for an automatic approval.
type ApprovalRecord struct {
	ID         int64
	RequestID  int64
	Title      string
	RuleName   string
	Reason     string
	ApprovedAt string
}
