package api

import (
	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleSearch handles GET /search?q=<text>.
func (s *Server) handleSearch(c *fiber.Ctx) error {
	if s.searcher == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "search is not configured",
		})
	}

	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "q parameter is required",
		})
	}

	resources, err := s.searcher.Resources(c.Context(), query)
	if err != nil {
		s.logger.Error("search failed", "query", query, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: err.Error(),
		})
	}
	return c.JSON(resources)
}

// handleResource handles GET /resource?id=<uri>.
func (s *Server) handleResource(c *fiber.Ctx) error {
	id := c.Query("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "id parameter is required",
		})
	}

	doc, err := s.store.Get(c.Context(), id)
	if err != nil {
		s.logger.Error("get failed", "id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: err.Error(),
		})
	}
	if doc == nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error: "resource not found",
		})
	}
	return c.JSON(doc, "application/ld+json")
}
