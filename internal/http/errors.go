package http

import (
	"context"
	"errors"
	"fmt"

	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

// transportError maps a failed exchange to a KindTimeout error. Every
// failure below HTTP (refused connection, DNS, TLS handshake, reset, client
// timeout, cancelled context) lands here; an existing *nomad.Error passes
// through.
func transportError(ctx context.Context, err error) error {
	var nomadErr *nomad.Error
	if errors.As(err, &nomadErr) {
		return err
	}

	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = fmt.Errorf("%w: %w", ctxErr, err)
	}

	return nomad.NewTimeoutError(err)
}
