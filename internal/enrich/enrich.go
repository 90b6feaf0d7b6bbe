// Package enrich merges request records with display metadata.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"seerr_bot/internal/jellyseerr"
	"seerr_bot/internal/model"
)

// Image CDN paths: fixed width for posters, full resolution for backdrops.
const (
	posterBase   = "https://image.tmdb.org/t/p/w500"
	backdropBase = "https://image.tmdb.org/t/p/original"
)

// maxInFlight bounds concurrent detail lookups so a sweep over many
// metadata-less requests cannot flood the server.
const maxInFlight = 5

// DetailFetcher fetches supplemental metadata for a single title.
type DetailFetcher interface {
	GetDetails(ctx context.Context, tmdbID int64, mediaType model.MediaType) (*jellyseerr.Details, error)
}

// Enricher produces EnrichedRequests from raw request records.
type Enricher struct {
	details DetailFetcher
	log     *slog.Logger
	sem     *semaphore.Weighted
}

// New creates an Enricher backed by the given detail fetcher.
func New(details DetailFetcher, log *slog.Logger) *Enricher {
	return &Enricher{
		details: details,
		log:     log,
		sem:     semaphore.NewWeighted(maxInFlight),
	}
}

// EnrichAll enriches every request, preserving input order. Enrichment
// is best-effort: no request is ever dropped, and a failed detail
// lookup leaves metadata fields at their defaults. At most 5 detail
// calls are in flight at once.
func (e *Enricher) EnrichAll(ctx context.Context, requests []model.Request) []model.EnrichedRequest {
	enriched := make([]model.EnrichedRequest, len(requests))

	var wg sync.WaitGroup
	for i, req := range requests {
		wg.Add(1)
		go func(i int, req model.Request) {
			defer wg.Done()
			enriched[i] = e.Enrich(ctx, req)
		}(i, req)
	}
	wg.Wait()

	return enriched
}

// Enrich merges one request with display metadata. Embedded media data
// wins when it already carries a poster; only requests missing one hit
// the detail endpoint, and only when a TMDB ID is known.
func (e *Enricher) Enrich(ctx context.Context, req model.Request) model.EnrichedRequest {
	item := model.EnrichedRequest{
		ID:          req.ID,
		Status:      req.Status,
		Type:        req.Type,
		CreatedAt:   req.CreatedAt,
		RequestedBy: req.RequestedBy,
		TmdbID:      req.TmdbID,

		Title:       req.Media.Title,
		Overview:    req.Media.Overview,
		ReleaseDate: req.Media.ReleaseDate,
		Rating:      req.Media.Rating,
		Runtime:     req.Media.Runtime,
		Genres:      req.Media.Genres,
	}
	if req.Media.PosterPath != "" {
		item.PosterURL = posterBase + req.Media.PosterPath
	}
	if req.Media.BackdropPath != "" {
		item.BackdropURL = backdropBase + req.Media.BackdropPath
	}

	if item.PosterURL == "" && req.TmdbID != 0 {
		e.overlayDetails(ctx, &item)
	}

	if item.Title == "" {
		item.Title = fmt.Sprintf("Request #%d", req.ID)
	}
	if item.RequestedBy == "" {
		item.RequestedBy = "Unknown"
	}

	if item.PosterURL == "" {
		// Soft miss: the item still flows through with partial data.
		e.log.Debug("no poster found", "request_id", req.ID, "title", item.Title, "tmdb_id", req.TmdbID)
	}

	return item
}

// overlayDetails fetches supplemental metadata and overlays it onto the
// item. Fetched fields take precedence only when present; an empty
// field never overwrites a populated one.
func (e *Enricher) overlayDetails(ctx context.Context, item *model.EnrichedRequest) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer e.sem.Release(1)

	details, err := e.details.GetDetails(ctx, item.TmdbID, item.Type)
	if err != nil || details == nil {
		return
	}

	if details.Title != "" {
		item.Title = details.Title
	}
	if details.Overview != "" {
		item.Overview = details.Overview
	}
	if details.ReleaseDate != "" {
		item.ReleaseDate = details.ReleaseDate
	}
	if details.Rating != 0 {
		item.Rating = details.Rating
	}
	if details.Runtime != 0 {
		item.Runtime = details.Runtime
	}
	if len(details.Genres) != 0 {
		item.Genres = details.Genres
	}
	if details.PosterPath != "" {
		item.PosterURL = posterBase + details.PosterPath
	}
	if details.BackdropPath != "" {
		item.BackdropURL = backdropBase + details.BackdropPath
	}
}
