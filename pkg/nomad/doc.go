// Package nomad provides types, interfaces, and helpers for working with the
// Nomad HTTP API.
//
// # Overview
//
// Every exchange with a Nomad agent is split into two halves. A Transport
// performs the HTTP request and produces a Response; an interpreter turns
// that Response into a value or a classified error. Interpreters are pure
// functions of the Response, so the same interpreter behaves identically on
// every transport.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/nomad-client/pkg/nomad"
//	  "github.com/fivetwenty-io/nomad-client/pkg/nomadclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := nomadclient.New(&nomad.Config{Address: "http://10.0.0.4:4646"})
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Close()
//
//	  jobs, err := cli.Jobs().List(ctx, &nomad.QueryOptions{Prefix: "web"})
//	  if err != nil { log.Fatal(err) }
//
//	  var stubs []nomad.JobListStub
//	  if err := jobs.Decode(&stubs); err != nil { log.Fatal(err) }
//	}
//
// # Status classification
//
// Classify is applied before any decoding, in this order: 5xx, 400, 401,
// 403, then 404 unless the interpreter allows it. The resulting *Error
// matches its sentinel with errors.Is:
//
//	_, err := cli.Jobs().Read(ctx, "missing")
//	if errors.Is(err, nomad.ErrNotFound) { ... }
//
// Connection failures never reach an interpreter; transports report them as
// ErrTimeout.
//
// # Interpreters
//
// JSON decodes a 200 body and can post-process it:
//
//	in := nomad.JSON(nomad.WithIndex(), nomad.DecodeField("Payload"))
//	var result *nomad.Result
//	err := transport.Get(ctx, in.Into(&result), "/v1/jobs", nil)
//
// Bool reports whether the status was 200, Raw returns the body verbatim.
//
// # Blocking queries
//
// List endpoints accept QueryOptions. Pass the Index of a previous Result as
// WaitIndex to block until the data changes:
//
//	q := &nomad.QueryOptions{WaitIndex: prev.Index, WaitTime: time.Minute}
package nomad
