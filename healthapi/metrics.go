package healthapi

import (
	"context"
	"net/http"

	healthbridge "github.com/vitalsync/health-bridge"
)

// MetricsClient fetches aggregate summaries of uploaded measurements.
type MetricsClient struct {
	exec Executor
}

func NewMetricsClient(exec Executor) *MetricsClient {
	return &MetricsClient{exec: exec}
}

// Summary aggregates one metric type over a named period ("day", "week",
// "month").
func (m *MetricsClient) Summary(ctx context.Context, metricType, period string) (*MetricsSummary, error) {
	data, err := m.exec.Execute(ctx, &healthbridge.Request{
		Method: http.MethodGet,
		Path:   "/v1/metrics/summary",
		Query: []healthbridge.QueryParam{
			{Key: "type", Value: metricType},
			{Key: "period", Value: period},
		},
		RequiresAuth: true,
	})
	if err != nil {
		return nil, err
	}
	var summary MetricsSummary
	if err := decode(data, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
