package nomad

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
)

// Interpreter turns a Response into a typed value or a classified error.
// Interpreters built here hold no state and are safe for concurrent use.
type Interpreter[T any] func(resp *Response) (T, error)

// Into adapts the interpreter to a transport Callback that stores the
// interpreted value in dst.
func (in Interpreter[T]) Into(dst *T) Callback {
	return func(resp *Response) error {
		value, err := in(resp)
		if err != nil {
			return err
		}

		*dst = value

		return nil
	}
}

// TransformFunc post-processes a decoded value.
type TransformFunc func(data any) (any, error)

// Options configures an interpreter. The zero value requires found
// resources; DefaultOptions accepts 404 as "no data".
type Options struct {
	// AllowNotFound turns a 404 into an absent value instead of ErrNotFound.
	AllowNotFound bool
	// WithIndex pairs the value with the X-Nomad-Index header.
	WithIndex bool
	// FirstOnly reduces a sequence to its first element; empty becomes absent.
	FirstOnly bool
	// DecodeField base64-decodes this field on every element of a sequence.
	DecodeField string
	// ExtractID reduces an object to its "ID" field.
	ExtractID bool
	// Transform runs last on the decoded value.
	Transform TransformFunc
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns the options applied before any Option.
func DefaultOptions() Options {
	return Options{AllowNotFound: true}
}

// WithIndex requests the blocking index alongside the value.
func WithIndex() Option {
	return func(o *Options) { o.WithIndex = true }
}

// RequireFound makes a 404 surface as ErrNotFound.
func RequireFound() Option {
	return func(o *Options) { o.AllowNotFound = false }
}

// AllowNotFound sets whether a 404 is an absent value.
func AllowNotFound(allow bool) Option {
	return func(o *Options) { o.AllowNotFound = allow }
}

// FirstOnly keeps only the first element of a sequence result.
func FirstOnly() Option {
	return func(o *Options) { o.FirstOnly = true }
}

// DecodeField base64-decodes field on each element of a sequence result.
func DecodeField(field string) Option {
	return func(o *Options) { o.DecodeField = field }
}

// ExtractID reduces an object result to its "ID" field.
func ExtractID() Option {
	return func(o *Options) { o.ExtractID = true }
}

// Transform applies fn to the decoded value.
func Transform(fn TransformFunc) Option {
	return func(o *Options) { o.Transform = fn }
}

// BuildOptions folds opts over DefaultOptions.
func BuildOptions(opts ...Option) Options {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return options
}

// Result is the output of a JSON interpreter. Data is nil when the value is
// absent (suppressed 404, non-200 pass-through, JSON null, empty FirstOnly).
type Result struct {
	Index   uint64
	Indexed bool
	Data    any
}

// Absent reports whether no value was produced.
func (r *Result) Absent() bool {
	return r == nil || r.Data == nil
}

// RawResult is the output of a raw interpreter. Body is nil when absent.
type RawResult struct {
	Index   uint64
	Indexed bool
	Body    []byte
}

// JSON builds an interpreter that classifies the status and decodes a 200
// body as JSON, then applies DecodeField, ExtractID, FirstOnly and Transform
// in that order.
func JSON(opts ...Option) Interpreter[*Result] {
	return JSONWithOptions(BuildOptions(opts...))
}

// JSONWithOptions is JSON for a prebuilt Options value.
func JSONWithOptions(options Options) Interpreter[*Result] {
	return func(resp *Response) (*Result, error) {
		err := Classify(resp, options.AllowNotFound)
		if err != nil {
			return nil, err
		}

		result := &Result{}

		if resp.StatusCode == http.StatusOK {
			data, err := decodeJSON(resp.Body)
			if err != nil {
				return nil, err
			}

			data, err = options.apply(data)
			if err != nil {
				return nil, err
			}

			result.Data = data
		}

		if options.WithIndex {
			result.Index, result.Indexed, err = resp.Index()
			if err != nil {
				return nil, err
			}
		}

		return result, nil
	}
}

// Bool builds an interpreter whose value is whether the status was 200.
// 404 is not an error for it.
func Bool() Interpreter[bool] {
	return func(resp *Response) (bool, error) {
		err := Classify(resp, true)
		if err != nil {
			return false, err
		}

		return resp.StatusCode == http.StatusOK, nil
	}
}

// Raw builds an interpreter that returns a 200 body verbatim. Only
// AllowNotFound and WithIndex apply.
func Raw(opts ...Option) Interpreter[*RawResult] {
	options := BuildOptions(opts...)

	return func(resp *Response) (*RawResult, error) {
		err := Classify(resp, options.AllowNotFound)
		if err != nil {
			return nil, err
		}

		result := &RawResult{}

		if resp.StatusCode == http.StatusOK {
			result.Body = append([]byte{}, resp.Body...)
		}

		if options.WithIndex {
			result.Index, result.Indexed, err = resp.Index()
			if err != nil {
				return nil, err
			}
		}

		return result, nil
	}
}

func decodeJSON(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var data any

	err := decoder.Decode(&data)
	if err != nil {
		return nil, fmt.Errorf("decoding response body: %w", err)
	}

	return data, nil
}

func (o Options) apply(data any) (any, error) {
	var err error

	if o.DecodeField != "" {
		err = decodeFieldInPlace(data, o.DecodeField)
		if err != nil {
			return nil, err
		}
	}

	if o.ExtractID && data != nil {
		object, ok := data.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: ID extraction needs an object, got %T", ErrUnexpectedPayload, data)
		}

		data = object["ID"]
	}

	if o.FirstOnly && data != nil {
		items, ok := data.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: first element needs a sequence, got %T", ErrUnexpectedPayload, data)
		}

		if len(items) == 0 {
			data = nil
		} else {
			data = items[0]
		}
	}

	if o.Transform != nil {
		data, err = o.Transform(data)
		if err != nil {
			return nil, fmt.Errorf("transforming response: %w", err)
		}
	}

	return data, nil
}

// decodeFieldInPlace replaces field on every object of a sequence with its
// base64-decoded bytes. Objects without the field, or with a null value, are
// left untouched; non-sequence data is ignored.
func decodeFieldInPlace(data any, field string) error {
	items, ok := data.([]any)
	if !ok {
		return nil
	}

	for i, item := range items {
		object, ok := item.(map[string]any)
		if !ok {
			continue
		}

		value, present := object[field]
		if !present || value == nil {
			continue
		}

		encoded, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: element %d field %q is %T, not a base64 string", ErrUnexpectedPayload, i, field, value)
		}

		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("decoding element %d field %q: %w", i, field, err)
		}

		object[field] = decoded
	}

	return nil
}
