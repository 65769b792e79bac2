// Package tfserving scores events against a model hosted by TensorFlow Serving
// over its REST API.
package tfserving

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const stateAvailable = "AVAILABLE"

// Client implements domain.Predictor for one served model.
type Client struct {
	http  *resty.Client
	model string
}

// NewClient creates a client for model on the server at baseURL.
func NewClient(baseURL, model string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
		model: model,
	}
}

type versionStatus struct {
	Version string `json:"version"`
	State   string `json:"state"`
}

type statusResponse struct {
	ModelVersionStatus []versionStatus `json:"model_version_status"`
}

// CheckAvailable returns nil when at least one version of the model is AVAILABLE.
func (c *Client) CheckAvailable(ctx context.Context) error {
	var status statusResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&status).
		Get("/v1/models/" + c.model)
	if err != nil {
		return fmt.Errorf("model status: %w", err)
	}
	if resp.IsError() {
		return apiError("model status", resp)
	}
	for _, v := range status.ModelVersionStatus {
		if v.State == stateAvailable {
			return nil
		}
	}
	return fmt.Errorf("model %s has no available version", c.model)
}

type predictRequest struct {
	Instances [][]float64 `json:"instances"`
}

type predictResponse struct {
	Predictions []json.RawMessage `json:"predictions"`
}

// Predict scores the feature row [latitude, longitude, severity] and returns
// the first output of the first prediction.
func (c *Client) Predict(ctx context.Context, latitude, longitude float64, severity int) (float64, error) {
	var out predictResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(predictRequest{Instances: [][]float64{{latitude, longitude, float64(severity)}}}).
		SetResult(&out).
		Post("/v1/models/" + c.model + ":predict")
	if err != nil {
		return 0, fmt.Errorf("predict: %w", err)
	}
	if resp.IsError() {
		return 0, apiError("predict", resp)
	}
	if len(out.Predictions) == 0 {
		return 0, errors.New("predict: empty predictions")
	}
	return firstValue(out.Predictions[0])
}

// firstValue accepts either a scalar prediction or a vector of outputs.
func firstValue(raw json.RawMessage) (float64, error) {
	var scalar float64
	if err := json.Unmarshal(raw, &scalar); err == nil {
		return scalar, nil
	}
	var vector []float64
	if err := json.Unmarshal(raw, &vector); err != nil {
		return 0, fmt.Errorf("predict: decode prediction %s: %w", raw, err)
	}
	if len(vector) == 0 {
		return 0, errors.New("predict: empty output vector")
	}
	return vector[0], nil
}

func apiError(op string, resp *resty.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Error != "" {
		return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode(), body.Error)
	}
	return fmt.Errorf("%s: status %d", op, resp.StatusCode())
}
