package nomad

import (
	"net"
	"net/http"
	"strconv"
	"time"
)

// Check is a service health check definition in the shape the agent accepts
// inside a service stanza.
type Check map[string]interface{}

// CheckOption sets an optional check attribute.
type CheckOption func(Check)

// CheckTimeout bounds a single probe. Ignored by script and TTL checks.
func CheckTimeout(timeout time.Duration) CheckOption {
	return func(c Check) {
		if timeout > 0 {
			c["timeout"] = timeout.String()
		}
	}
}

// DeregisterAfter deregisters a service that stays critical for d.
func DeregisterAfter(d time.Duration) CheckOption {
	return func(c Check) {
		if d > 0 {
			c["DeregisterCriticalServiceAfter"] = d.String()
		}
	}
}

// CheckHeader sets the headers sent by an HTTP check.
func CheckHeader(header http.Header) CheckOption {
	return func(c Check) {
		if len(header) > 0 {
			c["header"] = map[string][]string(header.Clone())
		}
	}
}

// ScriptCheck runs script every interval.
func ScriptCheck(script string, interval time.Duration) Check {
	return Check{"script": script, "interval": interval.String()}
}

// HTTPCheck performs a GET against url every interval.
func HTTPCheck(url string, interval time.Duration, opts ...CheckOption) Check {
	check := Check{"http": url, "interval": interval.String()}

	return check.with(opts)
}

// TCPCheck connects to host:port every interval.
func TCPCheck(host string, port int, interval time.Duration, opts ...CheckOption) Check {
	check := Check{
		"tcp":      net.JoinHostPort(host, strconv.Itoa(port)),
		"interval": interval.String(),
	}

	return check.with(opts)
}

// TTLCheck marks the service critical unless it reports passing within ttl.
func TTLCheck(ttl time.Duration) Check {
	return Check{"ttl": ttl.String()}
}

// DockerCheck execs script with shell inside containerID every interval.
func DockerCheck(containerID, shell, script string, interval time.Duration, opts ...CheckOption) Check {
	check := Check{
		"docker_container_id": containerID,
		"shell":               shell,
		"script":              script,
		"interval":            interval.String(),
	}

	return check.with(opts)
}

func (c Check) with(opts []CheckOption) Check {
	for _, opt := range opts {
		opt(c)
	}

	return c
}
