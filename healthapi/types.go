// Package healthapi provides typed clients for the backend's endpoint
// groups over the core healthbridge client. Each client is a thin JSON
// layer: the core owns authentication, retry, and field encryption.
package healthapi

import (
	"context"
	"encoding/json"
	"time"

	healthbridge "github.com/vitalsync/health-bridge"
)

// Executor is satisfied by *healthbridge.Client and *auth.Session; the
// typed clients don't care whether 401s are refresh-wrapped.
type Executor interface {
	Execute(ctx context.Context, req *healthbridge.Request) ([]byte, error)
}

// HealthRecord is one measurement. Value is free-form JSON: a number for
// simple metrics, an object for compound ones (blood pressure).
type HealthRecord struct {
	Type       string          `json:"type"`
	Value      json.RawMessage `json:"value"`
	Unit       string          `json:"unit,omitempty"`
	RecordedAt time.Time       `json:"recorded_at,omitempty"`
}

// BatchUpload is the batch creation request shape.
type BatchUpload struct {
	Records []HealthRecord `json:"records"`
}

// UploadResult identifies an accepted upload.
type UploadResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// UploadStatus is the processing state of a previously accepted upload.
type UploadStatus struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Insight is a derived observation over the user's health data.
type Insight struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// InsightDetail extends Insight with its full body.
type InsightDetail struct {
	Insight
	Body string `json:"body"`
}

// MetricsSummary aggregates one metric type over a period.
type MetricsSummary struct {
	Type   string  `json:"type"`
	Period string  `json:"period"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Count  int     `json:"count"`
}

// Profile is the authenticated user's account profile.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// decode unmarshals a response body, mapping failures to the core's
// DecodingFailed kind.
func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return healthbridge.DecodingError(err)
	}
	return nil
}
