package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/tab_janitor/internal/janitor"
)

func registerSweepHandlers(api huma.API, svc Service) {
	type sweepOutput struct {
		Body janitor.SweepResult
	}
	huma.Register(api, huma.Operation{OperationID: "sweep-default", Method: http.MethodPost, Path: "/api/v1/sweep", Summary: "Close duplicate tabs by base URL", Tags: []string{"Sweep"}},
		func(ctx context.Context, input *struct{}) (*sweepOutput, error) {
			res, err := svc.SweepDefault(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &sweepOutput{}
			out.Body = res
			return out, nil
		})

	type sweepPatternInput struct {
		Body struct {
			Name    string `json:"name,omitempty" doc:"Label for the sweep; defaults to 'pattern'."`
			Pattern string `json:"pattern" required:"true" doc:"Regular expression matched against tab URLs."`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "sweep-pattern", Method: http.MethodPost, Path: "/api/v1/sweep/pattern", Summary: "Close tabs matching a pattern, keeping one", Tags: []string{"Sweep"}},
		func(ctx context.Context, input *sweepPatternInput) (*sweepOutput, error) {
			res, err := svc.SweepPattern(ctx, input.Body.Name, input.Body.Pattern)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &sweepOutput{}
			out.Body = res
			return out, nil
		})

	type testPatternInput struct {
		Body struct {
			Pattern string `json:"pattern" required:"true"`
		}
	}
	type testPatternOutput struct {
		Body janitor.TestResult
	}
	huma.Register(api, huma.Operation{OperationID: "test-pattern", Method: http.MethodPost, Path: "/api/v1/sweep/test", Summary: "Dry-run a pattern against open tabs", Tags: []string{"Sweep"}},
		func(ctx context.Context, input *testPatternInput) (*testPatternOutput, error) {
			res, err := svc.TestPattern(ctx, input.Body.Pattern)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &testPatternOutput{}
			out.Body = res
			return out, nil
		})

	type batchOutput struct {
		Body struct {
			Batch   *janitor.BatchView `json:"batch,omitempty"`
			Pending bool               `json:"pending"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "get-batch", Method: http.MethodGet, Path: "/api/v1/batch", Summary: "Peek at the last closed batch", Tags: []string{"Sweep"}},
		func(ctx context.Context, input *struct{}) (*batchOutput, error) {
			b, ok, err := svc.LastBatch(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &batchOutput{}
			out.Body.Pending = ok
			if ok {
				out.Body.Batch = &b
			}
			return out, nil
		})

	type restoreOutput struct {
		Body janitor.RestoreResult
	}
	huma.Register(api, huma.Operation{OperationID: "restore-batch", Method: http.MethodPost, Path: "/api/v1/batch/restore", Summary: "Reopen the last closed batch", Tags: []string{"Sweep"}},
		func(ctx context.Context, input *struct{}) (*restoreOutput, error) {
			res, err := svc.RestoreLast(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &restoreOutput{}
			out.Body = res
			return out, nil
		})
}
