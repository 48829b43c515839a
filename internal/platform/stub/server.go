// Package stub serves an in-memory rendition of the practice API for local
// development and tests of the console.
package stub

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/ehr/praxis/internal/domain"
	"github.com/ehr/praxis/internal/platform/auth"
	"github.com/ehr/praxis/internal/platform/middleware"
)

// BasePath is where the resource routes are mounted.
const BasePath = "/api"

// Options configures the development API. Zero RequestTimeout and empty
// CORSOrigins fall back to 30s and "*".
type Options struct {
	SigningKey     []byte
	TokenTTL       time.Duration
	Credentials    Credentials
	Seed           bool
	RequestTimeout time.Duration
	CORSOrigins    []string
}

// Server is the in-memory development API: an echo router over a Store.
type Server struct {
	echo   *echo.Echo
	store  *Store
	logger zerolog.Logger
}

// New builds the server. Seeding happens once, here.
func New(reg *domain.Registry, opts Options, logger zerolog.Logger) *Server {
	store := NewStore()
	if opts.Seed {
		for _, p := range reg.Paths() {
			entry, _ := reg.Entry(p)
			if entry.Seed == nil {
				continue
			}
			store.Seed(p, entry.Resource.ID(), entry.Seed())
		}
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  opts.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:  []string{"Authorization", "Content-Type", middleware.RequestIDHeader, auth.TokenHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
	}))
	e.Use(middleware.BodyLimit("1M", "20M"))
	e.Use(middleware.RequestTimeout(opts.RequestTimeout))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"status": "ok", "collections": store.Count()})
	})

	jwt := auth.JWTConfig{Issuer: "praxis-stub", SigningKey: opts.SigningKey, TTL: opts.TokenTTL}
	h := NewHandler(reg, store, jwt, opts.Credentials, logger)
	h.RegisterRoutes(e.Group(BasePath))

	return &Server{echo: e, store: store, logger: logger}
}

// Handler exposes the router for httptest servers.
func (s *Server) Handler() http.Handler { return s.echo }

// Store returns the backing store.
func (s *Server) Store() *Store { return s.store }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Str("base", BasePath).Msg("starting development api")
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down development api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info().Msg("development api stopped")
	return nil
}

// errorHandler renders every error as the API's failure envelope.
func errorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := response{Message: "internal server error"}
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			switch m := he.Message.(type) {
			case response:
				body = m
			case string:
				body = response{Message: m}
			default:
				body = response{Message: http.StatusText(he.Code)}
			}
		} else {
			logger.Error().Err(err).Str("path", c.Request().URL.Path).Msg("unhandled error")
		}
		body.Success = false

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error().Err(err).Msg("write error response")
		}
	}
}
