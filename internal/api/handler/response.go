package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/healthcare-portal/internal/core/ports"
)

// ErrorResponse is the envelope of every failed request.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// dataResponse wraps a single resource.
type dataResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// listResponse wraps an unpaginated collection.
type listResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
	Data    any  `json:"data"`
}

// pageResponse wraps one page of a paginated collection.
type pageResponse struct {
	Success     bool  `json:"success"`
	Count       int   `json:"count"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
	Data        any   `json:"data"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func respondData(c echo.Context, code int, data any) error {
	return c.JSON(code, dataResponse{Success: true, Data: data})
}

func respondMessage(c echo.Context, code int, msg string) error {
	return c.JSON(code, messageResponse{Success: true, Message: msg})
}

func respondList[T any](c echo.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	return c.JSON(http.StatusOK, listResponse{Success: true, Count: len(items), Data: items})
}

func respondPage[T any](c echo.Context, p *ports.Page[T]) error {
	return c.JSON(http.StatusOK, pageResponse{
		Success:     true,
		Count:       len(p.Items),
		Total:       p.Total,
		TotalPages:  p.Pages,
		CurrentPage: p.Page,
		Data:        p.Items,
	})
}
