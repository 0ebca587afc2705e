package nomad

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Param is one query key/value pair.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered list of query pairs. Keys may repeat.
type Params []Param

// Add appends a pair and returns the extended list.
func (p Params) Add(key, value string) Params {
	return append(p, Param{Key: key, Value: value})
}

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	for _, param := range p {
		if param.Key == key {
			return true
		}
	}

	return false
}

// Get returns the first value for key.
func (p Params) Get(key string) string {
	for _, param := range p {
		if param.Key == key {
			return param.Value
		}
	}

	return ""
}

// Encode renders the pairs as a URL query string, preserving order.
func (p Params) Encode() string {
	if len(p) == 0 {
		return ""
	}

	var builder strings.Builder

	for i, param := range p {
		if i > 0 {
			builder.WriteByte('&')
		}

		builder.WriteString(url.QueryEscape(param.Key))
		builder.WriteByte('=')
		builder.WriteString(url.QueryEscape(param.Value))
	}

	return builder.String()
}

// Values converts the pairs to url.Values.
func (p Params) Values() url.Values {
	values := url.Values{}
	for _, param := range p {
		values.Add(param.Key, param.Value)
	}

	return values
}

// ParseParams decodes a query string produced by Encode.
func ParseParams(query string) (Params, error) {
	var params Params

	if query == "" {
		return params, nil
	}

	for _, part := range strings.Split(query, "&") {
		if part == "" {
			continue
		}

		rawKey, rawValue, _ := strings.Cut(part, "=")

		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("decoding query key %q: %w", rawKey, err)
		}

		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("decoding query value for %q: %w", key, err)
		}

		params = params.Add(key, value)
	}

	return params, nil
}

// QueryOptions are the read options shared by list and read endpoints.
// WaitIndex and WaitTime turn the request into a blocking query.
type QueryOptions struct {
	Prefix    string
	WaitIndex uint64
	WaitTime  time.Duration
	Stale     bool
}

// Params renders the options, omitting unset ones.
func (q *QueryOptions) Params() Params {
	var params Params

	if q == nil {
		return params
	}

	if q.Prefix != "" {
		params = params.Add("prefix", q.Prefix)
	}

	if q.WaitIndex > 0 {
		params = params.Add("index", strconv.FormatUint(q.WaitIndex, 10))
	}

	if q.WaitTime > 0 {
		params = params.Add("wait", q.WaitTime.String())
	}

	if q.Stale {
		params = params.Add("stale", "")
	}

	return params
}

// Validate rejects option combinations the server would misinterpret.
func (q *QueryOptions) Validate() error {
	if q == nil {
		return nil
	}

	if q.WaitTime < 0 {
		return fmt.Errorf("%w: negative wait time %s", ErrInvalidOption, q.WaitTime)
	}

	if q.WaitTime > 0 && q.WaitIndex == 0 {
		return fmt.Errorf("%w: wait time requires a wait index", ErrInvalidOption)
	}

	return nil
}
