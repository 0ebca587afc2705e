package nomad

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fivetwenty-io/nomad-client/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrInvalidAddress = errors.New("invalid Nomad address")
	ErrInvalidPort    = errors.New("invalid port")
	ErrInvalidScheme  = errors.New("invalid scheme")
	ErrKeyWithoutCert = errors.New("client key given without client certificate")
)

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// EnvLookup reads an environment variable. os.LookupEnv satisfies it.
type EnvLookup func(key string) (string, bool)

// Config represents client configuration for building a Nomad client.
//
// # Precedence
//
// Every connection setting is resolved once, when the client is built, in
// the order: explicit field, environment variable, default.
//
//   - Address / NOMAD_ADDR / 127.0.0.1. The address may carry a scheme and a
//     port ("https://10.0.0.4:4646"); those fill Scheme and Port when the
//     explicit fields are empty.
//   - Port / port from the address / 4646.
//   - Scheme / scheme from the address / "http".
//   - TLSVerify / NOMAD_SKIP_VERIFY (truthy disables verification) / true.
//   - TLSCert, TLSKey, TLSCA / NOMAD_CLIENT_CERT, NOMAD_CLIENT_KEY,
//     NOMAD_CACERT / unset.
//   - Token / NOMAD_TOKEN / unset. When set it is sent as X-Nomad-Token on
//     every request.
//   - Region, Namespace / NOMAD_REGION, NOMAD_NAMESPACE / unset.
//
// # Transport
//
// Transport picks the concurrency model; the classification of responses is
// identical for all of them. RetryMax and the wait bounds only apply to the
// blocking transport, MaxInFlight only to the task transport.
type Config struct {
	Address   string
	Port      int
	Scheme    string
	TLSVerify *bool
	TLSCert   string
	TLSKey    string
	TLSCA     string
	Token     string
	Region    string
	Namespace string

	Transport    TransportKind
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	MaxInFlight  int
	UserAgent    string

	// Logger receives request/response logs when Debug is set and transport
	// warnings otherwise.
	Logger Logger
	Debug  bool
	// Interceptors run around every exchange.
	Interceptors *InterceptorChain
	// Metrics, when set, receives the client request collectors.
	Metrics prometheus.Registerer
}

// ResolvedConfig is a Config after precedence has been applied. It is never
// modified after Resolve returns.
type ResolvedConfig struct {
	Host      string
	Port      int
	Scheme    string
	TLSVerify bool
	TLSCert   string
	TLSKey    string
	TLSCA     string
	Token     string
	Region    string
	Namespace string

	Transport    TransportKind
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	MaxInFlight  int
	UserAgent    string
	Logger       Logger
	Debug        bool
	Interceptors *InterceptorChain
	Metrics      prometheus.Registerer
}

// BaseURL returns "<scheme>://<host>:<port>".
func (c *ResolvedConfig) BaseURL() string {
	return fmt.Sprintf("%s://%s", c.Scheme, net.JoinHostPort(c.Host, strconv.Itoa(c.Port)))
}

// ResolveFromEnvironment resolves c against the process environment.
func (c *Config) ResolveFromEnvironment() (*ResolvedConfig, error) {
	return c.Resolve(os.LookupEnv)
}

// Resolve applies explicit > environment > default precedence.
func (c *Config) Resolve(lookup EnvLookup) (*ResolvedConfig, error) {
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}

	env := func(key string) string {
		value, ok := lookup(key)
		if !ok {
			return ""
		}

		return strings.TrimSpace(value)
	}

	address := firstNonEmpty(c.Address, env(constants.EnvAddress), constants.DefaultHost)

	addrScheme, host, addrPort, err := parseAddress(address)
	if err != nil {
		return nil, err
	}

	transport, err := ParseTransportKind(string(c.Transport))
	if err != nil {
		return nil, err
	}

	resolved := &ResolvedConfig{
		Host:         host,
		Port:         firstPositive(c.Port, addrPort, constants.DefaultPort),
		Scheme:       strings.ToLower(firstNonEmpty(c.Scheme, addrScheme, constants.DefaultScheme)),
		TLSVerify:    resolveVerify(c.TLSVerify, env(constants.EnvSkipVerify)),
		TLSCert:      firstNonEmpty(c.TLSCert, env(constants.EnvClientCert)),
		TLSKey:       firstNonEmpty(c.TLSKey, env(constants.EnvClientKey)),
		TLSCA:        firstNonEmpty(c.TLSCA, env(constants.EnvCACert)),
		Token:        firstNonEmpty(c.Token, env(constants.EnvToken)),
		Region:       firstNonEmpty(c.Region, env(constants.EnvRegion)),
		Namespace:    firstNonEmpty(c.Namespace, env(constants.EnvNamespace)),
		Transport:    transport,
		Timeout:      c.Timeout,
		RetryMax:     c.RetryMax,
		RetryWaitMin: c.RetryWaitMin,
		RetryWaitMax: c.RetryWaitMax,
		MaxInFlight:  c.MaxInFlight,
		UserAgent:    firstNonEmpty(c.UserAgent, constants.DefaultUserAgent),
		Logger:       c.Logger,
		Debug:        c.Debug,
		Interceptors: c.Interceptors,
		Metrics:      c.Metrics,
	}

	if resolved.Timeout <= 0 {
		resolved.Timeout = constants.DefaultHTTPTimeout
	}

	if resolved.MaxInFlight <= 0 {
		resolved.MaxInFlight = constants.DefaultMaxInFlight
	}

	if resolved.RetryWaitMin <= 0 {
		resolved.RetryWaitMin = constants.DefaultRetryWaitMin
	}

	if resolved.RetryWaitMax < resolved.RetryWaitMin {
		resolved.RetryWaitMax = max(constants.DefaultRetryWaitMax, resolved.RetryWaitMin)
	}

	if resolved.Logger == nil {
		resolved.Logger = NullLogger()
	}

	err = resolved.validate()
	if err != nil {
		return nil, err
	}

	return resolved, nil
}

func (c *ResolvedConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: empty host", ErrInvalidAddress)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}

	if c.Scheme != "http" && c.Scheme != "https" {
		return fmt.Errorf("%w: %q", ErrInvalidScheme, c.Scheme)
	}

	if c.TLSKey != "" && c.TLSCert == "" {
		return ErrKeyWithoutCert
	}

	if c.RetryMax < 0 {
		return fmt.Errorf("%w: negative retry count %d", ErrInvalidOption, c.RetryMax)
	}

	return nil
}

// parseAddress splits "[scheme://]host[:port][/]" into its parts. Port is
// zero when absent.
func parseAddress(address string) (string, string, int, error) {
	var scheme string

	hostPort := address

	if strings.Contains(address, "://") {
		parsed, err := url.Parse(address)
		if err != nil {
			return "", "", 0, fmt.Errorf("%w %q: %w", ErrInvalidAddress, address, err)
		}

		scheme = parsed.Scheme
		hostPort = parsed.Host
	}

	hostPort = strings.TrimSuffix(hostPort, "/")

	host, rawPort, err := net.SplitHostPort(hostPort)
	if err != nil {
		// No port component.
		return scheme, strings.Trim(hostPort, "[]"), 0, nil //nolint:nilerr
	}

	port, err := strconv.Atoi(rawPort)
	if err != nil {
		return "", "", 0, fmt.Errorf("%w %q: %w", ErrInvalidPort, rawPort, err)
	}

	return scheme, host, port, nil
}

func resolveVerify(explicit *bool, skipVerify string) bool {
	if explicit != nil {
		return *explicit
	}

	switch strings.ToLower(skipVerify) {
	case "1", "true", "on", "yes":
		return false
	default:
		return true
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}

	return ""
}

func firstPositive(values ...int) int {
	for _, value := range values {
		if value > 0 {
			return value
		}
	}

	return 0
}

// BoolPtr returns a pointer to b, for Config.TLSVerify.
func BoolPtr(b bool) *bool {
	return &b
}
