// Package api exposes the worker supervisor over HTTP on a loopback address.
package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/bjartek/keeper/pkg/config"
	"github.com/bjartek/keeper/pkg/supervisor"
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Controller is the supervisor surface the API drives.
type Controller interface {
	Start() (int, error)
	Stop() error
	Status() (supervisor.Status, error)
	Inspect() (supervisor.WorkerInfo, error)
}

// Server serves the control API.
type Server struct {
	ctl        Controller
	logger     zerolog.Logger
	httpServer *http.Server
}

// NewServer builds the API server. It does not start listening.
func NewServer(ctl Controller, cfg config.APIConfig, logger zerolog.Logger) *Server {
	s := &Server{
		ctl:    ctl,
		logger: logger.With().Str("component", "api").Logger(),
	}
	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           s.newGinEngine(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ListenAndServe blocks until the server stops. A server stopped through
// Shutdown returns nil.
func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("Control API listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "control api")
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) newGinEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestContext())

	api := r.Group("/api/worker")
	{
		api.POST("/start", s.handleStart)
		api.POST("/stop", s.handleStop)
		api.GET("/status", s.handleStatus)
		api.GET("/info", s.handleInfo)
	}

	return r
}

// requestContext stamps each request with a start time and request id and
// logs it once handled.
func (s *Server) requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ctxStart, start)
		c.Set(ctxRequestID, requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", requestID).
			Msg("Handled request")
	}
}

type startResult struct {
	Pid int `json:"pid"`
}

type stopResult struct {
	Stopped bool `json:"stopped"`
}

type statusResult struct {
	State supervisor.Status `json:"state"`
}

func (s *Server) handleStart(c *gin.Context) {
	pid, err := s.ctl.Start()
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, startResult{Pid: pid})
}

func (s *Server) handleStop(c *gin.Context) {
	if err := s.ctl.Stop(); err != nil {
		respondError(c, err)
		return
	}
	respond(c, stopResult{Stopped: true})
}

func (s *Server) handleStatus(c *gin.Context) {
	status, err := s.ctl.Status()
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, statusResult{State: status})
}

func (s *Server) handleInfo(c *gin.Context) {
	info, err := s.ctl.Inspect()
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, info)
}
