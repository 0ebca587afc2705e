package constants

import "time"

// Version is reported in the default User-Agent and by the CLI.
const Version = "0.4.0"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// Connection defaults.
const (
	// DefaultHost is used when neither the config nor NOMAD_ADDR names one.
	DefaultHost = "127.0.0.1"

	// DefaultPort is the Nomad HTTP API port.
	DefaultPort = 4646

	// DefaultScheme is the scheme used when the address carries none.
	DefaultScheme = "http"

	// DefaultUserAgent is sent when the config sets none.
	DefaultUserAgent = "nomad-client-go/" + Version
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used by the CLI for status probes.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry and concurrency limits.
const (
	// DefaultRetryWaitMin is the minimum wait between blocking-transport retries.
	DefaultRetryWaitMin = 500 * time.Millisecond

	// DefaultRetryWaitMax is the maximum wait between blocking-transport retries.
	DefaultRetryWaitMax = 10 * time.Second

	// DefaultMaxInFlight bounds concurrent exchanges of the task transport.
	DefaultMaxInFlight = 16
)

// Nomad wire headers.
const (
	// HeaderIndex carries the blocking-query index on responses.
	HeaderIndex = "X-Nomad-Index"

	// HeaderToken carries the ACL secret on requests.
	HeaderToken = "X-Nomad-Token"

	// HeaderKnownLeader reports whether the answering server knows a leader.
	HeaderKnownLeader = "X-Nomad-KnownLeader"

	// HeaderLastContact reports milliseconds since the server last heard from the leader.
	HeaderLastContact = "X-Nomad-LastContact"
)

// Environment variables read by the client.
const (
	EnvAddress    = "NOMAD_ADDR"
	EnvSkipVerify = "NOMAD_SKIP_VERIFY"
	EnvClientCert = "NOMAD_CLIENT_CERT"
	EnvClientKey  = "NOMAD_CLIENT_KEY"
	EnvCACert     = "NOMAD_CACERT"
	EnvToken      = "NOMAD_TOKEN"
	EnvRegion     = "NOMAD_REGION"
	EnvNamespace  = "NOMAD_NAMESPACE"
)

// CLI table formatting.
const (
	// ShortIDLength is how many characters of a UUID the CLI tables show.
	ShortIDLength = 8
)
