package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

func requireID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %s", nomad.ErrIDRequired, kind)
	}

	return nil
}

func encodeBody(body interface{}) ([]byte, error) {
	if body == nil {
		return nil, nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	return data, nil
}

func getJSON(ctx context.Context, transport nomad.Transport, path string, params nomad.Params, opts ...nomad.Option) (*nomad.Result, error) {
	var result *nomad.Result

	err := transport.Get(ctx, nomad.JSON(opts...).Into(&result), path, params)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func postJSON(ctx context.Context, transport nomad.Transport, path string, params nomad.Params, body interface{}, opts ...nomad.Option) (*nomad.Result, error) {
	data, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	var result *nomad.Result

	err = transport.Post(ctx, nomad.JSON(opts...).Into(&result), path, params, data)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func deleteJSON(ctx context.Context, transport nomad.Transport, path string, params nomad.Params, opts ...nomad.Option) (*nomad.Result, error) {
	var result *nomad.Result

	err := transport.Delete(ctx, nomad.JSON(opts...).Into(&result), path, params)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func postBool(ctx context.Context, transport nomad.Transport, path string, params nomad.Params, body interface{}) (bool, error) {
	data, err := encodeBody(body)
	if err != nil {
		return false, err
	}

	var ok bool

	err = transport.Post(ctx, nomad.Bool().Into(&ok), path, params, data)
	if err != nil {
		return false, err
	}

	return ok, nil
}

func deleteBool(ctx context.Context, transport nomad.Transport, path string) (bool, error) {
	var ok bool

	err := transport.Delete(ctx, nomad.Bool().Into(&ok), path, nil)
	if err != nil {
		return false, err
	}

	return ok, nil
}

// listParams validates query options and renders them.
func listParams(query *nomad.QueryOptions) (nomad.Params, error) {
	err := query.Validate()
	if err != nil {
		return nil, err
	}

	return query.Params(), nil
}

// lookup turns a NotFound read into a miss; any other failure is returned.
func lookup(read func() (*nomad.Result, error)) (*nomad.Result, bool, error) {
	result, err := read()
	if err != nil {
		if nomad.IsNotFound(err) {
			return nil, false, nil
		}

		return nil, false, err
	}

	return result, true, nil
}
