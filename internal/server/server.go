// ABOUTME: HTTP JSON API over a document session, built on echo
// ABOUTME: Exposes upload, index, ask, summary, evaluation, health and prometheus metrics
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/harper/docqa/internal/core"
	"github.com/harper/docqa/internal/logging"
	"github.com/harper/docqa/internal/metrics"
	"github.com/harper/docqa/internal/pdf"
	"github.com/harper/docqa/internal/session"
)

// DefaultMaxUploadBytes bounds document uploads
const DefaultMaxUploadBytes = 32 << 20

// Options tunes the server
type Options struct {
	// Judge is the default for evaluation requests that do not say
	Judge          bool
	MaxUploadBytes int64
}

// Server wires the session into HTTP routes
type Server struct {
	echo    *echo.Echo
	session *session.Session
	metrics *metrics.Metrics
	logger  *zap.Logger
	opts    Options
}

// New builds the echo instance and registers every route
func New(sess *session.Session, m *metrics.Metrics, logger *zap.Logger, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	s := &Server{
		echo:    echo.New(),
		session: sess,
		metrics: m,
		logger:  logging.OrNop(logger),
		opts:    opts,
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))
	e.HTTPErrorHandler = s.handleError

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}

	api := e.Group("/api")
	api.GET("/session", s.getSession)
	api.POST("/document", s.postDocument)
	api.POST("/reset", s.postReset)
	api.POST("/index", s.postIndex)
	api.POST("/ask", s.postAsk)
	api.POST("/summary", s.postSummary)
	api.POST("/eval/summary", s.postEvalSummary)
	api.POST("/eval/qa", s.postEvalQA)
	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown
func (s *Server) Start(addr string) error {
	s.logger.Info("listening", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrEmptyText), errors.Is(err, pdf.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNoDocument),
		errors.Is(err, session.ErrNotIndexed),
		errors.Is(err, session.ErrNoSummary),
		errors.Is(err, session.ErrNoQAItems):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) handleError(err error, c echo.Context) {
	code := statusFor(err)
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}

	req := c.Request()
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", code), zap.String("method", req.Method), zap.String("path", req.URL.Path), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.Int("status", code), zap.String("path", req.URL.Path), zap.Error(err))
	}
	if !c.Response().Committed {
		_ = c.JSON(code, map[string]string{"error": msg})
	}
}

func (s *Server) judge(requested *bool) bool {
	if requested != nil {
		return *requested
	}
	return s.opts.Judge
}

func (s *Server) getSession(c echo.Context) error {
	return c.JSON(http.StatusOK, s.session.Snapshot())
}

type documentResponse struct {
	DocID string `json:"doc_id"`
	Name  string `json:"name"`
	Pages int    `json:"pages"`
}

// postDocument accepts a multipart "file" field or a raw body named by ?name=
func (s *Server) postDocument(c echo.Context) error {
	name, data, err := s.readUpload(c)
	if err != nil {
		return err
	}
	doc, err := s.session.LoadDocument(name, data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, documentResponse{DocID: doc.ID, Name: doc.Name, Pages: len(doc.Pages)})
}

func (s *Server) readUpload(c echo.Context) (string, []byte, error) {
	limit := s.opts.MaxUploadBytes

	if fh, err := c.FormFile("file"); err == nil {
		if fh.Size > limit {
			return "", nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
		}
		f, err := fh.Open()
		if err != nil {
			return "", nil, fmt.Errorf("failed to open upload: %w", err)
		}
		defer func() { _ = f.Close() }()
		data, err := io.ReadAll(io.LimitReader(f, limit))
		if err != nil {
			return "", nil, fmt.Errorf("failed to read upload: %w", err)
		}
		return fh.Filename, data, nil
	}

	data, err := io.ReadAll(io.LimitReader(c.Request().Body, limit+1))
	if err != nil {
		return "", nil, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(data)) > limit {
		return "", nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}
	if len(data) == 0 {
		return "", nil, echo.NewHTTPError(http.StatusBadRequest, "no document uploaded")
	}
	name := c.QueryParam("name")
	if name == "" {
		name = "upload.pdf"
	}
	return name, data, nil
}

func (s *Server) postReset(c echo.Context) error {
	s.session.Reset()
	return c.JSON(http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) postIndex(c echo.Context) error {
	n, err := s.session.BuildIndex(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"doc_id": s.session.Snapshot().DocID, "chunks": n})
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	core.Answer
	Error string `json:"error,omitempty"`
}

func (s *Server) postAsk(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Minute)
	defer cancel()

	answer, err := s.session.Ask(ctx, req.Question)
	if err != nil && !answer.Refused {
		return err
	}
	resp := askResponse{Answer: answer}
	if err != nil {
		resp.Error = err.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) postSummary(c echo.Context) error {
	result, err := s.session.Summarize(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

type evalRequest struct {
	LastN int   `json:"last_n"`
	Judge *bool `json:"judge"`
}

func (s *Server) bindEval(c echo.Context) (evalRequest, error) {
	var req evalRequest
	if c.Request().ContentLength == 0 {
		return req, nil
	}
	if err := c.Bind(&req); err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return req, nil
}

func (s *Server) postEvalSummary(c echo.Context) error {
	req, err := s.bindEval(c)
	if err != nil {
		return err
	}
	report, err := s.session.EvaluateSummary(c.Request().Context(), s.judge(req.Judge))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) postEvalQA(c echo.Context) error {
	req, err := s.bindEval(c)
	if err != nil {
		return err
	}
	report, err := s.session.EvaluateQA(c.Request().Context(), req.LastN, s.judge(req.Judge))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}
