package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/tab_janitor/internal/janitor"
	"github.com/dgnsrekt/tab_janitor/internal/rules"
)

func registerRuleHandlers(api huma.API, svc Service) {
	type listRulesOutput struct {
		Body struct {
			Rules []rules.Rule `json:"rules"`
			Count int          `json:"count"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-rules", Method: http.MethodGet, Path: "/api/v1/rules", Summary: "List saved sweep rules", Tags: []string{"Rules"}},
		func(ctx context.Context, input *struct{}) (*listRulesOutput, error) {
			list, err := svc.ListRules(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &listRulesOutput{}
			out.Body.Rules = list
			out.Body.Count = len(list)
			return out, nil
		})

	type ruleNameInput struct {
		Name string `path:"name"`
	}

	type putRuleInput struct {
		Name string `path:"name"`
		Body struct {
			Pattern string `json:"pattern" required:"true"`
		}
	}
	type ruleOutput struct {
		Body rules.Rule
	}
	huma.Register(api, huma.Operation{OperationID: "put-rule", Method: http.MethodPut, Path: "/api/v1/rules/{name}", Summary: "Create or replace a sweep rule", Tags: []string{"Rules"}},
		func(ctx context.Context, input *putRuleInput) (*ruleOutput, error) {
			r, err := svc.PutRule(ctx, input.Name, input.Body.Pattern)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &ruleOutput{}
			out.Body = r
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "delete-rule", Method: http.MethodDelete, Path: "/api/v1/rules/{name}", Summary: "Delete a sweep rule", Tags: []string{"Rules"}},
		func(ctx context.Context, input *ruleNameInput) (*struct{}, error) {
			if err := svc.DeleteRule(ctx, input.Name); err != nil {
				return nil, mapErr(err)
			}
			return &struct{}{}, nil
		})

	type sweepOutput struct {
		Body janitor.SweepResult
	}
	huma.Register(api, huma.Operation{OperationID: "sweep-rule", Method: http.MethodPost, Path: "/api/v1/rules/{name}/sweep", Summary: "Run a saved sweep rule", Tags: []string{"Rules"}},
		func(ctx context.Context, input *ruleNameInput) (*sweepOutput, error) {
			res, err := svc.SweepSaved(ctx, input.Name)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &sweepOutput{}
			out.Body = res
			return out, nil
		})
}
