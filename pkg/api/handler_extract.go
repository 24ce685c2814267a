package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// extractHandler handles POST /extract (§6).
func (s *Server) extractHandler(c *echo.Context) error {
	var req ExtractRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, truncate(err.Error()))
	}

	frames, err := s.extractService.Extract(c.Request().Context(), req.EntityType, req.EntityID)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, &ExtractResponse{
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Frames:     toFrameResponses(frames),
	})
}
