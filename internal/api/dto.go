package api

import (
	"github.com/starford/docctx/internal/cache"
	"github.com/starford/docctx/internal/service"
)

// StatusResponse is the status report (aliased from the service layer).
type StatusResponse = service.StatusResult

// DocumentItem is a lightweight item in a listing (aliased from the service layer).
type DocumentItem = service.DocumentItem

// DocumentListResponse wraps document listings.
type DocumentListResponse struct {
	Documents []DocumentItem `json:"documents" validate:"required"`
	Total     int            `json:"total" example:"12" validate:"required"`
}

// FindResponse wraps reverse reference lookups.
type FindResponse struct {
	Results []cache.FindResult `json:"results" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []cache.SearchResult `json:"results" validate:"required"`
}
