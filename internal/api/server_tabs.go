package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/tab_janitor/internal/janitor"
)

func registerTabHandlers(api huma.API, svc Service) {
	type listTabsOutput struct {
		Body struct {
			Tabs  []janitor.TabView `json:"tabs"`
			Count int               `json:"count"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-tabs", Method: http.MethodGet, Path: "/api/v1/tabs", Summary: "List open tabs with grouping keys", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *struct{}) (*listTabsOutput, error) {
			tabs, err := svc.ListTabs(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &listTabsOutput{}
			out.Body.Tabs = tabs
			out.Body.Count = len(tabs)
			return out, nil
		})

	type previewOutput struct {
		Body janitor.Preview
	}
	huma.Register(api, huma.Operation{OperationID: "preview-duplicates", Method: http.MethodGet, Path: "/api/v1/tabs/duplicates", Summary: "Preview what a default sweep would close", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *struct{}) (*previewOutput, error) {
			preview, err := svc.PreviewSweep(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &previewOutput{}
			out.Body = preview
			return out, nil
		})
}
