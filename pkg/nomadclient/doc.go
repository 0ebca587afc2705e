// Package nomadclient is the usual way to build a client for the Nomad
// HTTP API. It resolves configuration, picks a transport and returns a
// nomad.Client whose resource clients (Jobs, Nodes, Allocations, ...) issue
// the actual requests.
//
// Quick start
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
//
//	  // Everything from NOMAD_ADDR, NOMAD_TOKEN, ... or defaults.
//	  cli, err := nomadclient.New(nil)
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Close()
//
//	  result, err := cli.Jobs().List(ctx, &nomad.QueryOptions{Prefix: "web"})
//	  if err != nil { log.Fatal(err) }
//
//	  var jobs []nomad.JobListStub
//	  if err := result.Decode(&jobs); err != nil { log.Fatal(err) }
//	}
//
// Transports
//
// Config.Transport selects how exchanges run: "blocking" (the default)
// performs them on the calling goroutine with retries on connection errors,
// "loop" serializes them through one reactor goroutine, and "tasks" runs
// each one as a bounded background task. All three classify responses the
// same way, so switching transports never changes what a call returns.
//
// Metrics
//
// Setting Config.Metrics to a prometheus.Registerer records a request
// counter and a latency histogram for every exchange:
//
//	reg := prometheus.NewRegistry()
//	cli, err := nomadclient.New(&nomad.Config{Metrics: reg})
package nomadclient
