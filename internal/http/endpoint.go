package http

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/fivetwenty-io/nomad-client/internal/constants"
	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

// Static errors for err113 compliance.
var (
	ErrInvalidCACert = errors.New("no certificates found in CA file")
)

// Endpoint holds everything every transport needs to turn a call into an
// HTTP request: base URL, default headers and parameters, TLS material and
// the interceptor chain.
type Endpoint struct {
	baseURL      string
	token        string
	userAgent    string
	region       string
	namespace    string
	timeout      time.Duration
	tlsConfig    *tls.Config
	logger       nomad.Logger
	debug        bool
	interceptors *nomad.InterceptorChain
}

// NewEndpoint builds an Endpoint from a resolved configuration, loading TLS
// files eagerly so misconfiguration fails at construction.
func NewEndpoint(cfg *nomad.ResolvedConfig) (*Endpoint, error) {
	tlsConfig, err := loadTLSConfig(cfg)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = nomad.NullLogger()
	}

	return &Endpoint{
		baseURL:      cfg.BaseURL(),
		token:        cfg.Token,
		userAgent:    cfg.UserAgent,
		region:       cfg.Region,
		namespace:    cfg.Namespace,
		timeout:      cfg.Timeout,
		tlsConfig:    tlsConfig,
		logger:       logger,
		debug:        cfg.Debug,
		interceptors: cfg.Interceptors,
	}, nil
}

// BaseURL returns "<scheme>://<host>:<port>".
func (e *Endpoint) BaseURL() string {
	return e.baseURL
}

// URL renders the absolute request URL. Params keep their order.
func (e *Endpoint) URL(path string, params nomad.Params) string {
	target := e.baseURL + EscapePath(path)

	if query := params.Encode(); query != "" {
		target += "?" + query
	}

	return target
}

// prepare builds the interceptor-visible request and runs the request
// interceptors. Failures are returned ready for the caller.
func (e *Endpoint) prepare(ctx context.Context, method, path string, params nomad.Params, data []byte) (*nomad.Request, error) {
	req := &nomad.Request{
		Method:   method,
		Path:     path,
		Params:   append(nomad.Params(nil), params...),
		Headers:  make(http.Header),
		Metadata: make(map[string]interface{}),
	}

	if e.region != "" && !req.Params.Has("region") {
		req.Params = req.Params.Add("region", e.region)
	}

	if e.namespace != "" && !req.Params.Has("namespace") {
		req.Params = req.Params.Add("namespace", e.namespace)
	}

	if e.token != "" {
		req.Headers.Set(constants.HeaderToken, e.token)
	}

	req.Headers.Set("User-Agent", e.userAgent)

	if data != nil && method != http.MethodGet && method != http.MethodDelete {
		req.Body = data
		req.Headers.Set("Content-Type", "application/json")
	}

	err := e.interceptors.ExecuteRequestInterceptors(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nomad.NewTimeoutError(err)
		}

		return nil, err
	}

	if e.debug {
		e.logger.Debug("API Request", map[string]interface{}{
			"method": req.Method,
			"url":    e.URL(req.Path, req.Params),
		})
	}

	return req, nil
}

// complete reports the outcome of an exchange to the response interceptors
// and the debug log.
func (e *Endpoint) complete(ctx context.Context, req *nomad.Request, resp *nomad.Response, err error) {
	e.interceptors.ExecuteResponseInterceptors(ctx, req, resp, err)

	if err != nil {
		e.logger.Warn("API request failed", map[string]interface{}{
			"method": req.Method,
			"path":   req.Path,
			"error":  err.Error(),
		})

		return
	}

	if e.debug {
		e.logger.Debug("API Response", map[string]interface{}{
			"method":      req.Method,
			"path":        req.Path,
			"status_code": resp.StatusCode,
			"bytes":       len(resp.Body),
		})
	}
}

// newHTTPClient returns a pooled client carrying the endpoint's timeout and
// TLS settings.
func (e *Endpoint) newHTTPClient() *http.Client {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = e.timeout

	if e.tlsConfig != nil {
		if transport, ok := client.Transport.(*http.Transport); ok {
			transport.TLSClientConfig = e.tlsConfig.Clone()
		}
	}

	return client
}

// EscapePath percent-encodes path, leaving unreserved characters, '/' and
// ':' as they are. Identifiers containing '/' therefore keep separating
// path segments.
func EscapePath(path string) string {
	const hex = "0123456789ABCDEF"

	var builder strings.Builder

	builder.Grow(len(path))

	for i := 0; i < len(path); i++ {
		c := path[i]
		if isPathSafe(c) {
			builder.WriteByte(c)

			continue
		}

		builder.WriteByte('%')
		builder.WriteByte(hex[c>>4])
		builder.WriteByte(hex[c&0x0f])
	}

	return builder.String()
}

func isPathSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '_', c == '.', c == '~', c == '/', c == ':':
		return true
	default:
		return false
	}
}

func loadTLSConfig(cfg *nomad.ResolvedConfig) (*tls.Config, error) {
	if cfg.Scheme != "https" && cfg.TLSCert == "" && cfg.TLSCA == "" {
		return nil, nil //nolint:nilnil
	}

	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: !cfg.TLSVerify, //nolint:gosec // NOMAD_SKIP_VERIFY
	}

	if cfg.TLSCA != "" {
		pem, err := os.ReadFile(cfg.TLSCA)
		if err != nil {
			return nil, fmt.Errorf("reading CA file: %w", err)
		}

		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCACert, cfg.TLSCA)
		}

		tlsConfig.RootCAs = pool
	}

	if cfg.TLSCert != "" {
		keyFile := cfg.TLSKey
		if keyFile == "" {
			keyFile = cfg.TLSCert
		}

		cert, err := tls.LoadX509KeyPair(cfg.TLSCert, keyFile)
		if err != nil {
			return nil, fmt.Errorf("loading client certificate: %w", err)
		}

		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}
