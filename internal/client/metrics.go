package client

import (
	"context"
	"fmt"

	dto "github.com/prometheus/client_model/go"

	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

// MetricsClient implements nomad.MetricsClient.
type MetricsClient struct {
	transport nomad.Transport
}

// NewMetricsClient creates a new metrics client.
func NewMetricsClient(transport nomad.Transport) *MetricsClient {
	return &MetricsClient{transport: transport}
}

// Fetch implements nomad.MetricsClient.Fetch.
func (c *MetricsClient) Fetch(ctx context.Context) (*nomad.Result, error) {
	result, err := getJSON(ctx, c.transport, "/v1/metrics", nil, nomad.RequireFound())
	if err != nil {
		return nil, fmt.Errorf("fetching metrics: %w", err)
	}

	return result, nil
}

// Prometheus implements nomad.MetricsClient.Prometheus. The agent must have
// prometheus_metrics enabled in its telemetry block.
func (c *MetricsClient) Prometheus(ctx context.Context) (map[string]*dto.MetricFamily, error) {
	var raw *nomad.RawResult

	params := nomad.Params{}.Add("format", "prometheus")

	err := c.transport.Get(ctx, nomad.Raw(nomad.RequireFound()).Into(&raw), "/v1/metrics", params)
	if err != nil {
		return nil, fmt.Errorf("fetching prometheus metrics: %w", err)
	}

	families, err := nomad.ParseMetricFamilies(raw.Body)
	if err != nil {
		return nil, err
	}

	return families, nil
}
