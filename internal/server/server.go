package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/labstack/echo/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"diet-coach/internal/chat"
	"diet-coach/internal/models"
	"diet-coach/internal/tools"
)

const (
	Name    = "diet-coach"
	Version = "1.0.0"
)

// ChatService is the conversation surface served over HTTP.
type ChatService interface {
	HandleMessage(ctx context.Context, req *chat.Request) (*chat.Response, error)
	History(ctx context.Context, userID string, limit int) ([]*models.ChatMessage, error)
	ClearHistory(ctx context.Context, userID string) (int64, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Host string
	Port int
}

type Server struct {
	echo       *echo.Echo
	httpServer *http.Server
	chat       ChatService
	executor   *tools.Executor
	health     Pinger
	logger     *zap.Logger
	clock      func() time.Time
	location   *time.Location
	info       protocol.Implementation
}

type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Server) { s.clock = clock }
}

// WithLocation sets the zone used to resolve "today" for MCP tool calls.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) { s.location = loc }
}

func New(cfg *Config, svc ChatService, executor *tools.Executor, health Pinger, opts ...Option) *Server {
	s := &Server{
		chat:     svc,
		executor: executor,
		health:   health,
		logger:   zap.NewNop(),
		clock:    time.Now,
		location: time.Local,
		info:     protocol.Implementation{Name: Name, Version: Version},
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.Use(s.cors, s.requestLogger)
	e.GET("/healthz", s.healthz)

	g := e.Group("/api/v1/chat")
	g.POST("/message", s.postMessage)
	g.GET("/history", s.getHistory)
	g.DELETE("/history", s.deleteHistory)

	e.GET("/mcp", s.describeTools)
	e.POST("/mcp", s.callTool)
	s.echo = e

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting diet coach server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server failed")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) cors(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		h := c.Response().Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request().Method == http.MethodOptions {
			return c.NoContent(http.StatusNoContent)
		}
		return next(c)
	}
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		start := time.Now()
		err := next(c)
		fields := []zap.Field{
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.Duration("elapsed", time.Since(start)),
		}
		if err != nil {
			s.logger.Warn("Request failed", append(fields, zap.Error(err))...)
		} else {
			s.logger.Debug("Request served", fields...)
		}
		return err
	}
}

func (s *Server) healthz(c *echo.Context) error {
	if err := s.health.Ping(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": Version})
}

func (s *Server) postMessage(c *echo.Context) error {
	var req chat.Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}
	resp, err := s.chat.HandleMessage(c.Request().Context(), &req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

type historyResponse struct {
	UserID   string                `json:"user_id"`
	Messages []*models.ChatMessage `json:"messages"`
}

func (s *Server) getHistory(c *echo.Context) error {
	userID := c.QueryParam("user_id")
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
		}
		limit = n
	}
	msgs, err := s.chat.History(c.Request().Context(), userID, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, historyResponse{UserID: userID, Messages: msgs})
}

func (s *Server) deleteHistory(c *echo.Context) error {
	userID := c.QueryParam("user_id")
	n, err := s.chat.ClearHistory(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"user_id": userID, "deleted": n})
}

func httpError(err error) error {
	if errors.Is(err, chat.ErrInvalidRequest) {
		return echo.NewHTTPError(http.StatusBadRequest, strings.TrimSpace(err.Error()))
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
