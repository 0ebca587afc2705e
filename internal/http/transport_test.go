package http_test

import (
	"context"
	"encoding/pem"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nomadhttp "github.com/fivetwenty-io/nomad-client/internal/http"
	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

var kinds = []nomad.TransportKind{nomad.TransportBlocking, nomad.TransportLoop, nomad.TransportTasks}

func noEnv(string) (string, bool) { return "", false }

func newTransport(t *testing.T, kind nomad.TransportKind, address string, mutate ...func(*nomad.Config)) nomad.Transport {
	t.Helper()

	cfg := &nomad.Config{Address: address, Transport: kind}
	for _, m := range mutate {
		m(cfg)
	}

	resolved, err := cfg.Resolve(noEnv)
	require.NoError(t, err)

	transport, err := nomadhttp.New(resolved)
	require.NoError(t, err)

	t.Cleanup(func() { _ = transport.Close() })

	return transport
}

// statusServer answers /status/<code> with that code and echoes the code in
// the body and in X-Nomad-Index.
func statusServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		code, err := strconv.Atoi(strings.TrimPrefix(request.URL.Path, "/status/"))
		if err != nil {
			code = http.StatusOK
		}

		writer.Header().Set("X-Nomad-Index", strconv.Itoa(code))
		writer.WriteHeader(code)
		_, _ = writer.Write([]byte(`[{"ID":"` + strconv.Itoa(code) + `"}]`))
	}))
	t.Cleanup(server.Close)

	return server
}

func TestTransports_RequestShape(t *testing.T) {
	t.Parallel()

	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, "/v1/job/my%20job/allocations", request.URL.EscapedPath())
				assert.Equal(t, "all=true&region=eu", request.URL.RawQuery)
				assert.Equal(t, "secret-token", request.Header.Get("X-Nomad-Token"))
				assert.Equal(t, "nomad-client-test", request.Header.Get("User-Agent"))
				writer.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			transport := newTransport(t, kind, server.URL, func(cfg *nomad.Config) {
				cfg.Token = "secret-token"
				cfg.Region = "eu"
				cfg.UserAgent = "nomad-client-test"
			})

			var ok bool

			err := transport.Get(context.Background(), nomad.Bool().Into(&ok),
				"/v1/job/my job/allocations", nomad.Params{}.Add("all", "true"))
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestTransports_Body(t *testing.T) {
	t.Parallel()

	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				body, _ := io.ReadAll(request.Body)

				switch request.Method {
				case http.MethodPost, http.MethodPut:
					assert.Equal(t, "application/json", request.Header.Get("Content-Type"))
					assert.JSONEq(t, `{"Job":{"ID":"web"}}`, string(body))
				default:
					assert.Empty(t, body)
				}

				_, _ = writer.Write([]byte(`{"EvalID":"e1"}`))
			}))
			defer server.Close()

			transport := newTransport(t, kind, server.URL)
			ctx := context.Background()
			payload := []byte(`{"Job":{"ID":"web"}}`)

			var result *nomad.Result

			require.NoError(t, transport.Post(ctx, nomad.JSON().Into(&result), "/v1/jobs", nil, payload))
			assert.Equal(t, map[string]any{"EvalID": "e1"}, result.Data)

			require.NoError(t, transport.Put(ctx, nomad.JSON().Into(&result), "/v1/jobs", nil, payload))
			require.NoError(t, transport.Delete(ctx, nomad.JSON().Into(&result), "/v1/job/web", nil))
			require.NoError(t, transport.Get(ctx, nomad.JSON().Into(&result), "/v1/job/web", nil))
		})
	}
}

func TestTransports_IdenticalClassification(t *testing.T) {
	t.Parallel()

	server := statusServer(t)

	tests := []struct {
		code     int
		expected error
	}{
		{code: 200},
		{code: 409},
		{code: 400, expected: nomad.ErrBadRequest},
		{code: 401, expected: nomad.ErrAuthenticationDisabled},
		{code: 403, expected: nomad.ErrPermissionDenied},
		{code: 404, expected: nomad.ErrNotFound},
		{code: 500, expected: nomad.ErrServerError},
		{code: 503, expected: nomad.ErrServerError},
		{code: 599, expected: nomad.ErrServerError},
	}

	for _, kind := range kinds {
		transport := newTransport(t, kind, server.URL)

		for _, tt := range tests {
			t.Run(string(kind)+"/"+strconv.Itoa(tt.code), func(t *testing.T) {
				var result *nomad.Result

				err := transport.Get(context.Background(),
					nomad.JSON(nomad.RequireFound(), nomad.WithIndex()).Into(&result),
					"/status/"+strconv.Itoa(tt.code), nil)

				if tt.expected != nil {
					require.ErrorIs(t, err, tt.expected)
					assert.Nil(t, result)

					return
				}

				require.NoError(t, err)
				assert.Equal(t, uint64(tt.code), result.Index)
			})
		}
	}
}

func TestTransports_ConnectionRefusedIsTimeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	address := server.URL
	server.Close()

	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()

			transport := newTransport(t, kind, address)
			called := false

			err := transport.Get(context.Background(), func(*nomad.Response) error {
				called = true

				return nil
			}, "/v1/jobs", nil)

			require.Error(t, err)
			assert.True(t, nomad.IsTimeout(err))
			assert.False(t, called)
		})
	}
}

func TestTransports_DeadlineIsTimeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		select {
		case <-request.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(server.Close)

	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()

			transport := newTransport(t, kind, server.URL)

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			err := transport.Get(ctx, nomad.Bool().Into(new(bool)), "/v1/jobs", nil)
			require.Error(t, err)
			assert.True(t, nomad.IsTimeout(err))
			assert.ErrorIs(t, err, context.DeadlineExceeded)
		})
	}
}

func TestTransports_ClientTimeoutIsTimeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		select {
		case <-request.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(server.Close)

	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()

			transport := newTransport(t, kind, server.URL, func(cfg *nomad.Config) {
				cfg.Timeout = 50 * time.Millisecond
			})

			err := transport.Get(context.Background(), nomad.Bool().Into(new(bool)), "/v1/jobs", nil)
			assert.True(t, nomad.IsTimeout(err))
		})
	}
}

func TestTransports_Closed(t *testing.T) {
	t.Parallel()

	server := statusServer(t)

	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()

			transport := newTransport(t, kind, server.URL)
			require.NoError(t, transport.Close())
			require.NoError(t, transport.Close())

			err := transport.Get(context.Background(), nomad.Bool().Into(new(bool)), "/status/200", nil)
			assert.ErrorIs(t, err, nomad.ErrTransportClosed)
		})
	}
}

func TestTransports_Interceptors(t *testing.T) {
	t.Parallel()

	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, "deployer", request.Header.Get("X-Request-Source"))
				writer.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			var (
				mu    sync.Mutex
				codes []int
			)

			chain := nomad.NewInterceptorChain().
				AddRequestInterceptor(nomad.HeaderInterceptor(map[string]string{"X-Request-Source": "deployer"})).
				AddResponseInterceptor(func(ctx context.Context, req *nomad.Request, resp *nomad.Response, err error) {
					mu.Lock()
					defer mu.Unlock()

					codes = append(codes, resp.StatusCode)
				})

			transport := newTransport(t, kind, server.URL, func(cfg *nomad.Config) {
				cfg.Interceptors = chain
			})

			var ok bool

			require.NoError(t, transport.Get(context.Background(), nomad.Bool().Into(&ok), "/v1/job/x", nil))
			assert.False(t, ok)

			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, []int{404}, codes)
		})
	}
}

func TestTransports_RequestInterceptorErrorAborts(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(server.Close)

	denied := errors.New("denied by policy")

	for _, kind := range kinds {
		transport := newTransport(t, kind, server.URL, func(cfg *nomad.Config) {
			cfg.Interceptors = nomad.NewInterceptorChain().
				AddRequestInterceptor(func(ctx context.Context, req *nomad.Request) error { return denied })
		})

		err := transport.Get(context.Background(), nomad.Bool().Into(new(bool)), "/v1/jobs", nil)
		require.ErrorIs(t, err, denied)

		_, classified := nomad.KindOf(err)
		assert.False(t, classified)
	}

	assert.Zero(t, hits.Load())
}

func TestLoop_CallbacksAreSerialized(t *testing.T) {
	t.Parallel()

	server := statusServer(t)
	transport := newTransport(t, nomad.TransportLoop, server.URL)

	var (
		running int32
		maxSeen int32
		wg      sync.WaitGroup
	)

	cb := func(*nomad.Response) error {
		current := atomic.AddInt32(&running, 1)
		for {
			seen := atomic.LoadInt32(&maxSeen)
			if current <= seen || atomic.CompareAndSwapInt32(&maxSeen, seen, current) {
				break
			}
		}

		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&running, -1)

		return nil
	}

	for range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			assert.NoError(t, transport.Get(context.Background(), cb, "/status/200", nil))
		}()
	}

	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxSeen))
}

func TestTasks_BoundsInFlight(t *testing.T) {
	t.Parallel()

	var (
		inflight int32
		maxSeen  int32
	)

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		current := atomic.AddInt32(&inflight, 1)
		for {
			seen := atomic.LoadInt32(&maxSeen)
			if current <= seen || atomic.CompareAndSwapInt32(&maxSeen, seen, current) {
				break
			}
		}

		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inflight, -1)
	}))
	t.Cleanup(server.Close)

	cfg := &nomad.Config{Address: server.URL, Transport: nomad.TransportTasks, MaxInFlight: 2}
	resolved, err := cfg.Resolve(noEnv)
	require.NoError(t, err)

	transport, err := nomadhttp.NewTasks(resolved)
	require.NoError(t, err)

	defer func() { _ = transport.Close() }()

	ctx := context.Background()
	tasks := make([]*nomadhttp.Task, 0, 8)

	for range 8 {
		tasks = append(tasks, transport.Submit(ctx, nomad.Bool().Into(new(bool)), http.MethodGet, "/v1/jobs", nil, nil))
	}

	for _, task := range tasks {
		require.NoError(t, task.Await(ctx))
	}

	assert.LessOrEqual(t, atomic.LoadInt32(&maxSeen), int32(2))
	assert.Positive(t, atomic.LoadInt32(&maxSeen))
}

func TestTask_AwaitHonorsContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		select {
		case <-release:
		case <-request.Context().Done():
		}
	}))
	t.Cleanup(server.Close)

	resolved, err := (&nomad.Config{Address: server.URL}).Resolve(noEnv)
	require.NoError(t, err)

	transport, err := nomadhttp.NewTasks(resolved)
	require.NoError(t, err)

	task := transport.Submit(context.Background(), nomad.Bool().Into(new(bool)), http.MethodGet, "/v1/jobs", nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.True(t, nomad.IsTimeout(task.Await(ctx)))

	close(release)
	<-task.Done()
	require.NoError(t, task.Await(context.Background()))
	require.NoError(t, transport.Close())
}

func TestBlocking_TLS(t *testing.T) {
	t.Parallel()

	server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	caFile := filepath.Join(t.TempDir(), "ca.pem")
	caPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: server.Certificate().Raw})
	require.NoError(t, os.WriteFile(caFile, caPEM, 0o600))

	t.Run("trusted CA", func(t *testing.T) {
		transport := newTransport(t, nomad.TransportBlocking, server.URL, func(cfg *nomad.Config) {
			cfg.TLSCA = caFile
		})

		var ok bool

		require.NoError(t, transport.Get(context.Background(), nomad.Bool().Into(&ok), "/v1/status/leader", nil))
		assert.True(t, ok)
	})

	t.Run("unknown authority", func(t *testing.T) {
		transport := newTransport(t, nomad.TransportBlocking, server.URL)

		err := transport.Get(context.Background(), nomad.Bool().Into(new(bool)), "/v1/status/leader", nil)
		assert.True(t, nomad.IsTimeout(err))
	})

	t.Run("verification disabled", func(t *testing.T) {
		transport := newTransport(t, nomad.TransportBlocking, server.URL, func(cfg *nomad.Config) {
			cfg.TLSVerify = nomad.BoolPtr(false)
		})

		var ok bool

		require.NoError(t, transport.Get(context.Background(), nomad.Bool().Into(&ok), "/v1/status/leader", nil))
		assert.True(t, ok)
	})

	t.Run("bad CA file", func(t *testing.T) {
		badCA := filepath.Join(t.TempDir(), "bad.pem")
		require.NoError(t, os.WriteFile(badCA, []byte("not a certificate"), 0o600))

		resolved, err := (&nomad.Config{Address: server.URL, TLSCA: badCA}).Resolve(noEnv)
		require.NoError(t, err)

		_, err = nomadhttp.New(resolved)
		assert.ErrorIs(t, err, nomadhttp.ErrInvalidCACert)
	})
}
