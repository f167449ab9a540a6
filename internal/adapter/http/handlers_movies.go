package adapthttp

import (
	"net/http"

	"moviecatalog/internal/app"
	"moviecatalog/internal/domain"
)

func (s *Server) handleMovies(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		page, err := intQuery(r, "page", app.DefaultPage)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		limit, err := intQuery(r, "limit", app.DefaultLimit)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		res, err := s.catalog.List(r.Context(), page, limit)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"movies":     res.Movies,
			"pagination": res.Pagination,
		})

	case http.MethodPost:
		var body struct {
			Title          string `json:"title"`
			PublishingYear int    `json:"publishingYear"`
			Poster         string `json:"poster"`
		}
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		m, err := s.catalog.Create(r.Context(), domain.MovieInput{
			Title:          body.Title,
			PublishingYear: body.PublishingYear,
			Poster:         body.Poster,
		})
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"message": "Movie created successfully",
			"movie":   m,
		})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleMovie(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		m, err := s.catalog.Get(ctx, id)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "movie": m})

	case http.MethodPatch:
		var body struct {
			Title          *string `json:"title"`
			PublishingYear *int    `json:"publishingYear"`
			Poster         *string `json:"poster"`
		}
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		m, err := s.catalog.Update(ctx, id, domain.MoviePatch{
			Title:          body.Title,
			PublishingYear: body.PublishingYear,
			Poster:         body.Poster,
		})
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Movie updated successfully",
			"movie":   m,
		})

	case http.MethodDelete:
		if err := s.catalog.Delete(ctx, id); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Movie deleted successfully"})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
