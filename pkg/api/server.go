// Package api implements the §6 on-demand HTTP interface: a bearer-token
// authenticated POST /extract that re-runs C8 for a single event or CTM
// bucket, plus an unauthenticated GET /health.
package api

import (
	"context"
	"net"
	"net/http"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/arclinehq/arcline/pkg/database"
)

// Server is the on-demand extraction HTTP server.
type Server struct {
	echo           *echo.Echo
	httpServer     *http.Server
	dbClient       *database.Client
	extractService *ExtractService
}

// NewServer creates a new API server with Echo v5 and registers its routes.
func NewServer(dbClient *database.Client, extractService *ExtractService, bearerToken string) *Server {
	e := echo.New()

	s := &Server{
		echo:           e,
		dbClient:       dbClient,
		extractService: extractService,
	}

	s.setupRoutes(bearerToken)
	return s
}

func (s *Server) setupRoutes(bearerToken string) {
	s.echo.Use(middleware.BodyLimit(1024 * 1024))
	s.echo.Use(securityHeaders())

	s.echo.GET("/health", s.healthHandler)

	protected := s.echo.Group("", bearerAuth(bearerToken))
	protected.POST("/extract", s.extractHandler)
}

// Handler exposes the underlying router as an http.Handler, for tests that
// want to drive the server via httptest.NewServer without binding a port.
func (s *Server) Handler() http.Handler { return s.echo }

// Start starts the HTTP server on the given address (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.echo}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener, used
// by test infrastructure to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.echo}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
