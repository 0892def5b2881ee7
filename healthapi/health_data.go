package healthapi

import (
	"context"
	"encoding/json"
	"net/http"

	healthbridge "github.com/vitalsync/health-bridge"
)

const healthDataPath = "/v1/health-data"

// HealthDataClient uploads measurements and checks their processing
// state. Upload paths are on the codec's sensitive allow-list, so record
// values are enveloped before they leave the device.
type HealthDataClient struct {
	exec Executor
}

func NewHealthDataClient(exec Executor) *HealthDataClient {
	return &HealthDataClient{exec: exec}
}

// Upload submits a single record.
func (h *HealthDataClient) Upload(ctx context.Context, record HealthRecord) (*UploadResult, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	data, err := h.exec.Execute(ctx, &healthbridge.Request{
		Method:       http.MethodPost,
		Path:         healthDataPath,
		Body:         body,
		RequiresAuth: true,
	})
	if err != nil {
		return nil, err
	}
	var result UploadResult
	if err := decode(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UploadBatch submits multiple records in one request.
func (h *HealthDataClient) UploadBatch(ctx context.Context, records []HealthRecord) (*UploadResult, error) {
	body, err := json.Marshal(BatchUpload{Records: records})
	if err != nil {
		return nil, err
	}
	data, err := h.exec.Execute(ctx, &healthbridge.Request{
		Method:       http.MethodPost,
		Path:         healthDataPath + "/batch",
		Body:         body,
		RequiresAuth: true,
	})
	if err != nil {
		return nil, err
	}
	var result UploadResult
	if err := decode(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Status looks up the processing state of an accepted upload.
func (h *HealthDataClient) Status(ctx context.Context, id string) (*UploadStatus, error) {
	data, err := h.exec.Execute(ctx, &healthbridge.Request{
		Method:       http.MethodGet,
		Path:         healthDataPath + "/" + id + "/status",
		RequiresAuth: true,
	})
	if err != nil {
		return nil, err
	}
	var status UploadStatus
	if err := decode(data, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
