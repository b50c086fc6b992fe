package api

import (
	"net/http"
	"strconv"

	"github.com/starford/docctx/internal/service"
)

// Handler holds API route handlers.
type Handler struct {
	svc *service.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// queryBool parses an optional boolean query parameter.
func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

// Status handles GET /api/status.
//
//	@Summary		Validate every document
//	@Tags			status
//	@Produce		json
//	@Param			invalid_only	query		bool	false	"Only list stale and orphaned documents"
//	@Success		200				{object}	StatusResponse
//	@Failure		400				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	invalidOnly, err := queryBool(r, "invalid_only")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_only must be a boolean"))
		return
	}
	res, err := h.svc.Status(r.Context(), invalidOnly)
	if err != nil {
		writeError(w, "status", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Documents handles GET /api/documents.
//
//	@Summary		List loaded documents
//	@Tags			documents
//	@Produce		json
//	@Success		200	{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) Documents(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Documents(r.Context())
	if err != nil {
		writeError(w, "list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: items, Total: len(items)})
}

// Find handles GET /api/find.
//
//	@Summary		Find documents referencing source paths
//	@Tags			lookup
//	@Produce		json
//	@Param			path	query		[]string	true	"Source path, repeatable"
//	@Success		200		{object}	FindResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/find [get]
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Find(r.Context(), service.FindRequest{Paths: r.URL.Query()["path"]})
	if err != nil {
		writeError(w, "find", err)
		return
	}
	writeJSON(w, http.StatusOK, FindResponse{Results: res})
}

// Search handles GET /api/search.
//
//	@Summary		Substring search across document bodies
//	@Tags			lookup
//	@Produce		json
//	@Param			q				query		string	true	"Search term"
//	@Param			limit			query		int		false	"Max results"
//	@Param			case_sensitive	query		bool	false	"Match case"
//	@Success		200				{object}	SearchResponse
//	@Failure		400				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("limit must be an integer"))
			return
		}
		limit = n
	}
	caseSensitive, err := queryBool(r, "case_sensitive")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("case_sensitive must be a boolean"))
		return
	}
	results, err := h.svc.Search(r.Context(), service.SearchRequest{
		Query:         q.Get("q"),
		Limit:         limit,
		CaseSensitive: caseSensitive,
	})
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
