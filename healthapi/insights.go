package healthapi

import (
	"context"
	"net/http"
	"strconv"

	healthbridge "github.com/vitalsync/health-bridge"
)

const insightsPath = "/v1/insights"

// InsightsClient lists and fetches derived insights.
type InsightsClient struct {
	exec Executor
}

func NewInsightsClient(exec Executor) *InsightsClient {
	return &InsightsClient{exec: exec}
}

// List returns a page of insights, newest first. limit <= 0 means the
// server default.
func (i *InsightsClient) List(ctx context.Context, limit int) ([]Insight, error) {
	req := &healthbridge.Request{
		Method:       http.MethodGet,
		Path:         insightsPath,
		RequiresAuth: true,
	}
	if limit > 0 {
		req.Query = []healthbridge.QueryParam{{Key: "limit", Value: strconv.Itoa(limit)}}
	}
	data, err := i.exec.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	var page struct {
		Insights []Insight `json:"insights"`
	}
	if err := decode(data, &page); err != nil {
		return nil, err
	}
	return page.Insights, nil
}

// Get fetches one insight with its full body.
func (i *InsightsClient) Get(ctx context.Context, id string) (*InsightDetail, error) {
	data, err := i.exec.Execute(ctx, &healthbridge.Request{
		Method:       http.MethodGet,
		Path:         insightsPath + "/" + id,
		RequiresAuth: true,
	})
	if err != nil {
		return nil, err
	}
	var detail InsightDetail
	if err := decode(data, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}
