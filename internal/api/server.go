package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/dgnsrekt/tab_janitor/internal/cdptab"
	"github.com/dgnsrekt/tab_janitor/internal/janitor"
	"github.com/dgnsrekt/tab_janitor/internal/rules"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Service interface {
	ListTabs(ctx context.Context) ([]janitor.TabView, error)
	PreviewSweep(ctx context.Context) (janitor.Preview, error)
	SweepDefault(ctx context.Context) (janitor.SweepResult, error)
	SweepPattern(ctx context.Context, name, pattern string) (janitor.SweepResult, error)
	SweepSaved(ctx context.Context, name string) (janitor.SweepResult, error)
	TestPattern(ctx context.Context, pattern string) (janitor.TestResult, error)
	RestoreLast(ctx context.Context) (janitor.RestoreResult, error)
	LastBatch(ctx context.Context) (janitor.BatchView, bool, error)
	ListRules(ctx context.Context) ([]rules.Rule, error)
	PutRule(ctx context.Context, name, pattern string) (rules.Rule, error)
	DeleteRule(ctx context.Context, name string) error
	Health(ctx context.Context) (janitor.Health, error)
}

func NewServer(svc Service) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("Tab Janitor API", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(docsHTML)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})

	registerTabHandlers(api, svc)
	registerSweepHandlers(api, svc)
	registerRuleHandlers(api, svc)
	registerMiscHandlers(api, svc)

	return router
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var coded *cdptab.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case cdptab.CodeValidation:
			return huma.Error400BadRequest(coded.Message)
		case cdptab.CodeTabNotFound, cdptab.CodeRuleNotFound:
			return huma.Error404NotFound(coded.Message)
		case cdptab.CodeCDPUnavailable:
			return huma.Error502BadGateway(coded.Message)
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}
