package nomad

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// RequestObserver records client-side request metrics.
type RequestObserver struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewRequestObserver creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewRequestObserver(reg prometheus.Registerer) (*RequestObserver, error) {
	observer := &RequestObserver{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nomad_client",
			Name:      "requests_total",
			Help:      "Nomad API exchanges by method and status code; code is \"error\" for transport failures.",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nomad_client",
			Name:      "request_duration_seconds",
			Help:      "Nomad API exchange latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	if reg == nil {
		return observer, nil
	}

	for _, collector := range []prometheus.Collector{observer.requests, observer.duration} {
		err := reg.Register(collector)
		if err != nil {
			return nil, fmt.Errorf("registering request metrics: %w", err)
		}
	}

	return observer, nil
}

// Attach adds the timing and observing interceptors to chain.
func (o *RequestObserver) Attach(chain *InterceptorChain) *InterceptorChain {
	return chain.
		AddRequestInterceptor(TimingInterceptor()).
		AddResponseInterceptor(o.Observe)
}

// Observe is a ResponseInterceptor.
func (o *RequestObserver) Observe(ctx context.Context, req *Request, resp *Response, err error) {
	code := "error"
	if err == nil && resp != nil {
		code = strconv.Itoa(resp.StatusCode)
	}

	o.requests.WithLabelValues(req.Method, code).Inc()

	if start, ok := req.Metadata[startTimeKey].(time.Time); ok {
		o.duration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
	}
}

// Collectors exposes the underlying collectors, mostly for tests.
func (o *RequestObserver) Collectors() (*prometheus.CounterVec, *prometheus.HistogramVec) {
	return o.requests, o.duration
}

// ParseMetricFamilies decodes a Prometheus text exposition, as served by
// /v1/metrics?format=prometheus.
func ParseMetricFamilies(body []byte) (map[string]*dto.MetricFamily, error) {
	parser := expfmt.TextParser{}

	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing prometheus metrics: %w", err)
	}

	return families, nil
}
