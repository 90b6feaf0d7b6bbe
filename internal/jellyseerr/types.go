package jellyseerr

import (
	"encoding/json"

	"seerr_bot/internal/model"
)

// RequestPage is one page of the request list plus the server-reported
// pagination totals.
type RequestPage struct {
	Results  []model.Request
	Total    int
	Pages    int
	PageSize int
	Page     int
}

// Details is normalized movie/TV metadata from the detail endpoint.
// The server mixes camelCase and snake_case across response shapes, so
// decoding accepts both spellings for every affected field.
type Details struct {
	Title        string
	Overview     string
	ReleaseDate  string
	Rating       float64
	Runtime      int
	Genres       []string
	PosterPath   string
	BackdropPath string
}

// UnmarshalJSON decodes a detail response, coalescing the field-name
// variants (title/name, releaseDate/release_date/firstAirDate/...).
func (d *Details) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title             string      `json:"title"`
		Name              string      `json:"name"`
		Overview          string      `json:"overview"`
		ReleaseDate       string      `json:"releaseDate"`
		ReleaseDateSnake  string      `json:"release_date"`
		FirstAirDate      string      `json:"firstAirDate"`
		FirstAirDateSnake string      `json:"first_air_date"`
		VoteAverage       float64     `json:"voteAverage"`
		VoteAverageSnake  float64     `json:"vote_average"`
		Runtime           int         `json:"runtime"`
		Genres            []genreJSON `json:"genres"`
		PosterPath        string      `json:"posterPath"`
		PosterPathSnake   string      `json:"poster_path"`
		BackdropPath      string      `json:"backdropPath"`
		BackdropPathSnake string      `json:"backdrop_path"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	d.Title = firstOf(raw.Title, raw.Name)
	d.Overview = raw.Overview
	d.ReleaseDate = firstOf(raw.ReleaseDate, raw.ReleaseDateSnake, raw.FirstAirDate, raw.FirstAirDateSnake)
	d.Rating = raw.VoteAverage
	if d.Rating == 0 {
		d.Rating = raw.VoteAverageSnake
	}
	d.Runtime = raw.Runtime
	d.Genres = genreNames(raw.Genres)
	d.PosterPath = firstOf(raw.PosterPath, raw.PosterPathSnake)
	d.BackdropPath = firstOf(raw.BackdropPath, raw.BackdropPathSnake)
	return nil
}

type genreJSON struct {
	Name string `json:"name"`
}

type requestPageJSON struct {
	Results  []requestJSON `json:"results"`
	PageInfo struct {
		Results  int `json:"results"`
		Pages    int `json:"pages"`
		PageSize int `json:"pageSize"`
		Page     int `json:"page"`
	} `json:"pageInfo"`
}

type requestJSON struct {
	ID          int64  `json:"id"`
	Status      int    `json:"status"`
	Type        string `json:"type"`
	CreatedAt   string `json:"createdAt"`
	RequestedBy struct {
		DisplayName string `json:"displayName"`
	} `json:"requestedBy"`
	Media *mediaJSON `json:"media"`
}

type mediaJSON struct {
	TmdbID            int64       `json:"tmdbId"`
	Title             string      `json:"title"`
	Name              string      `json:"name"`
	Overview          string      `json:"overview"`
	ReleaseDate       string      `json:"releaseDate"`
	ReleaseDateSnake  string      `json:"release_date"`
	FirstAirDate      string      `json:"firstAirDate"`
	FirstAirDateSnake string      `json:"first_air_date"`
	VoteAverage       float64     `json:"voteAverage"`
	VoteAverageSnake  float64     `json:"vote_average"`
	Runtime           int         `json:"runtime"`
	Genres            []genreJSON `json:"genres"`
	PosterPath        string      `json:"posterPath"`
	PosterPathSnake   string      `json:"poster_path"`
	BackdropPath      string      `json:"backdropPath"`
	BackdropPathSnake string      `json:"backdrop_path"`
}

func (p *requestPageJSON) toDomain() *RequestPage {
	page := &RequestPage{
		Results:  make([]model.Request, 0, len(p.Results)),
		Total:    p.PageInfo.Results,
		Pages:    p.PageInfo.Pages,
		PageSize: p.PageInfo.PageSize,
		Page:     p.PageInfo.Page,
	}
	for _, r := range p.Results {
		req := model.Request{
			ID:          r.ID,
			Status:      model.Status(r.Status),
			Type:        model.MediaType(r.Type),
			CreatedAt:   r.CreatedAt,
			RequestedBy: r.RequestedBy.DisplayName,
		}
		if req.Type == "" {
			req.Type = model.MediaMovie
		}
		if m := r.Media; m != nil {
			req.TmdbID = m.TmdbID
			req.Media = model.Media{
				Title:        firstOf(m.Title, m.Name),
				Overview:     m.Overview,
				ReleaseDate:  firstOf(m.ReleaseDate, m.ReleaseDateSnake, m.FirstAirDate, m.FirstAirDateSnake),
				Rating:       m.VoteAverage,
				Runtime:      m.Runtime,
				Genres:       genreNames(m.Genres),
				PosterPath:   firstOf(m.PosterPath, m.PosterPathSnake),
				BackdropPath: firstOf(m.BackdropPath, m.BackdropPathSnake),
			}
			if req.Media.Rating == 0 {
				req.Media.Rating = m.VoteAverageSnake
			}
		}
		page.Results = append(page.Results, req)
	}
	return page
}

func genreNames(gs []genreJSON) []string {
	if len(gs) == 0 {
		return nil
	}
	names := make([]string, 0, len(gs))
	for _, g := range gs {
		names = append(names, g.Name)
	}
	return names
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
