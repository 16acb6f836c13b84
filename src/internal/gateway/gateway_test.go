package gateway

import (
	"bytes"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"logsproxy/src/internal/config"

	"github.com/klauspost/compress/gzip"
	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
	"google.golang.org/protobuf/proto"
)

const testToken = "pylf_v1_eu_abc123"

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func testConfig(upstreamURL string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:               "127.0.0.1",
			Port:               0,
			ReadTimeoutMS:      5000,
			WriteTimeoutMS:     5000,
			MaxRequestBodySize: 1 << 20,
		},
		Upstream: config.UpstreamConfig{
			URLTemplate:     upstreamURL,
			DefaultRegion:   "us",
			TokenPattern:    `^pylf_v[0-9]+_([a-z]+)_[a-zA-Z0-9]+$`,
			TimeoutMS:       2000,
			MaxConnsPerHost: 4,
		},
		Translate: config.TranslateConfig{
			ProxyName:       "logfire-logs-proxy",
			MaxNameLength:   120,
			PlaceholderName: "unknown log",
		},
		CORS: config.CORSConfig{
			DefaultOrigin:         "https://pydantic.run",
			AllowLocalhost:        true,
			AllowedOriginSuffixes: []string{".pydantic.workers.dev"},
		},
		NetLimit: config.NetLimitConfig{
			RequestsPerSecond: 50,
			BurstSize:         100,
			CleanupIntervalS:  60,
			ResponseCode:      429,
			ResponseMessage:   "Rate limit exceeded",
		},
		Logging: config.DefaultLogConfig(),
	}
}

func newTestGateway(t *testing.T, cfg *config.Config) *Gateway {
	t.Helper()
	g, err := New(cfg, newTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		if g.limiter != nil {
			g.limiter.Stop()
		}
	})
	return g
}

func newRequestCtx(method, uri string, body []byte, headers map[string]string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.SetBody(body)
	}

	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, &net.TCPAddr{IP: net.ParseIP("10.1.2.3"), Port: 40000}, nil)
	return ctx
}

// recordedRequest is what the fake collector saw
type recordedRequest struct {
	method string
	path   string
	query  string
	header http.Header
	body   []byte
}

type fakeUpstream struct {
	*httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
	headers  map[string]string
}

func newFakeUpstream(t *testing.T, status int, body string) *fakeUpstream {
	t.Helper()
	u := &fakeUpstream{status: status, body: body, headers: map[string]string{}}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		u.mu.Lock()
		u.requests = append(u.requests, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			header: r.Header.Clone(),
			body:   b,
		})
		u.mu.Unlock()

		for k, v := range u.headers {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(u.status)
		_, _ = io.WriteString(w, u.body)
	}))
	t.Cleanup(u.Close)
	return u
}

func (u *fakeUpstream) received() []recordedRequest {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]recordedRequest(nil), u.requests...)
}

func helloLogs(t *testing.T) []byte {
	t.Helper()
	req := &collogspb.ExportLogsServiceRequest{
		ResourceLogs: []*logspb.ResourceLogs{{
			Resource: &resourcepb.Resource{
				Attributes: []*commonpb.KeyValue{{
					Key:   "service.name",
					Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: "svc"}},
				}},
			},
			ScopeLogs: []*logspb.ScopeLogs{{
				LogRecords: []*logspb.LogRecord{{
					TimeUnixNano:   1_700_000_000_000_000_000,
					SeverityNumber: logspb.SeverityNumber_SEVERITY_NUMBER_INFO,
					Body:           &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: "hello"}},
				}},
			}},
		}},
	}
	b, err := proto.Marshal(req)
	require.NoError(t, err)
	return b
}

func TestIndex(t *testing.T) {
	g := newTestGateway(t, testConfig("http://127.0.0.1:1"))

	ctx := newRequestCtx("GET", "http://proxy.local/", nil, nil)
	g.Handler(ctx)

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Header.ContentType()), "text/html")
	assert.Contains(t, string(ctx.Response.Body()), "<h1>logsproxy</h1>")
}

func TestWrongMethod(t *testing.T) {
	g := newTestGateway(t, testConfig("http://127.0.0.1:1"))

	testCases := []struct {
		name   string
		method string
		uri    string
		allow  string
	}{
		{name: "PostIndex", method: "POST", uri: "http://proxy.local/", allow: "GET"},
		{name: "GetLogs", method: "GET", uri: "http://proxy.local/v1/logs", allow: "POST"},
		{name: "PutLogs", method: "PUT", uri: "http://proxy.local/v1/logs", allow: "POST"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := newRequestCtx(tc.method, tc.uri, nil, nil)
			g.Handler(ctx)

			assert.Equal(t, fasthttp.StatusMethodNotAllowed, ctx.Response.StatusCode())
			assert.Equal(t, tc.allow, string(ctx.Response.Header.Peek("Allow")))
			body := string(ctx.Response.Body())
			assert.Contains(t, body, "405: '"+tc.method+" "+tc.uri+"' method not allowed")
			assert.Contains(t, body, "Expected "+tc.allow+" request")
		})
	}
}

func TestNotFound(t *testing.T) {
	g := newTestGateway(t, testConfig("http://127.0.0.1:1"))

	ctx := newRequestCtx("GET", "http://proxy.local/metrics", nil, nil)
	g.Handler(ctx)

	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
	assert.Equal(t, "404: 'GET /metrics' not found", string(ctx.Response.Body()))
	assert.Equal(t, uint64(1), g.GetStats().ClientErrors)
}

func TestPreflight(t *testing.T) {
	g := newTestGateway(t, testConfig("http://127.0.0.1:1"))

	ctx := newRequestCtx("OPTIONS", "http://proxy.local/v1/logs", nil, map[string]string{
		"Origin":                         "http://localhost:5173",
		"Access-Control-Request-Headers": "content-type,authorization",
	})
	g.Handler(ctx)

	assert.Equal(t, fasthttp.StatusNoContent, ctx.Response.StatusCode())
	assert.Equal(t, "http://localhost:5173", string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")))
	assert.Equal(t, "POST", string(ctx.Response.Header.Peek("Access-Control-Allow-Methods")))
	assert.Equal(t, "content-type,authorization", string(ctx.Response.Header.Peek("Access-Control-Allow-Headers")))
	assert.Empty(t, ctx.Response.Body())
}

func TestAllowOrigin(t *testing.T) {
	policy := newOriginPolicy(testConfig("").CORS)

	testCases := []struct {
		name   string
		origin string
		want   string
	}{
		{name: "NoOrigin", origin: "", want: "https://pydantic.run"},
		{name: "LocalhostPort", origin: "http://localhost:8080", want: "http://localhost:8080"},
		{name: "LocalhostHTTPS", origin: "https://localhost:8080", want: "https://pydantic.run"},
		{name: "LocalhostNoPort", origin: "http://localhost", want: "https://pydantic.run"},
		{name: "WorkersSubdomain", origin: "https://preview.pydantic.workers.dev", want: "https://preview.pydantic.workers.dev"},
		{name: "Other", origin: "https://evil.example.com", want: "https://pydantic.run"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, policy.allow(tc.origin))
		})
	}

	t.Run("LocalhostDisabled", func(t *testing.T) {
		cfg := testConfig("").CORS
		cfg.AllowLocalhost = false
		assert.Equal(t, "https://pydantic.run", newOriginPolicy(cfg).allow("http://localhost:8080"))
	})
}

func TestLogsClientErrors(t *testing.T) {
	upstream := newFakeUpstream(t, http.StatusOK, "")
	g := newTestGateway(t, testConfig(upstream.URL))

	testCases := []struct {
		name     string
		headers  map[string]string
		body     []byte
		status   int
		contains string
	}{
		{
			name:     "MissingAuthorization",
			body:     helloLogs(t),
			status:   fasthttp.StatusUnauthorized,
			contains: `No "Authorization" header`,
		},
		{
			name:     "UnsupportedEncoding",
			headers:  map[string]string{"Authorization": testToken, "Content-Encoding": "br"},
			body:     []byte("whatever"),
			status:   fasthttp.StatusBadRequest,
			contains: `unsupported content encoding "br"`,
		},
		{
			name:     "CorruptGzip",
			headers:  map[string]string{"Authorization": testToken, "Content-Encoding": "gzip"},
			body:     []byte("not gzip"),
			status:   fasthttp.StatusBadRequest,
			contains: "Error collecting request body",
		},
		{
			name:     "MalformedProtobuf",
			headers:  map[string]string{"Authorization": testToken, "Content-Type": "application/x-protobuf"},
			body:     []byte{0x0a, 0xff, 0x01},
			status:   fasthttp.StatusBadRequest,
			contains: "Error parsing request",
		},
		{
			name:     "MalformedJSON",
			headers:  map[string]string{"Authorization": testToken, "Content-Type": "application/json"},
			body:     []byte(`{"resourceLogs": [`),
			status:   fasthttp.StatusBadRequest,
			contains: "Error parsing request",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := newRequestCtx("POST", "http://proxy.local/v1/logs", tc.body, tc.headers)
			g.Handler(ctx)

			assert.Equal(t, tc.status, ctx.Response.StatusCode())
			assert.Contains(t, string(ctx.Response.Body()), tc.contains)
		})
	}

	assert.Empty(t, upstream.received(), "no client error may reach upstream")
}

func TestLogsNothingToForward(t *testing.T) {
	upstream := newFakeUpstream(t, http.StatusOK, "")
	g := newTestGateway(t, testConfig(upstream.URL))

	ctx := newRequestCtx("POST", "http://proxy.local/v1/logs", nil, map[string]string{
		"Authorization": testToken,
	})
	g.Handler(ctx)

	assert.Equal(t, fasthttp.StatusAccepted, ctx.Response.StatusCode())
	assert.Equal(t, "no data to proxy", string(ctx.Response.Body()))
	assert.Empty(t, upstream.received())
}

func TestLogsForwarded(t *testing.T) {
	gz := func(b []byte) []byte {
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		_, err := w.Write(b)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		return buf.Bytes()
	}

	testCases := []struct {
		name     string
		body     []byte
		encoding string
	}{
		{name: "Plain", body: helloLogs(t)},
		{name: "Gzip", body: gz(helloLogs(t)), encoding: "gzip"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			upstream := newFakeUpstream(t, http.StatusOK, "{}")
			g := newTestGateway(t, testConfig(upstream.URL))

			headers := map[string]string{
				"Authorization": "Bearer " + testToken,
				"Content-Type":  "application/x-protobuf",
				"User-Agent":    "test-agent/1.0",
				"Origin":        "https://app.pydantic.workers.dev",
			}
			if tc.encoding != "" {
				headers["Content-Encoding"] = tc.encoding
			}

			ctx := newRequestCtx("POST", "http://proxy.local/v1/logs", tc.body, headers)
			g.Handler(ctx)

			require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))
			assert.Equal(t, "{}", string(ctx.Response.Body()))
			assert.Equal(t, "https://app.pydantic.workers.dev",
				string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")))

			got := upstream.received()
			require.Len(t, got, 1)
			assert.Equal(t, "POST", got[0].method)
			assert.Equal(t, "/v1/traces", got[0].path)
			assert.Equal(t, "application/x-protobuf", got[0].header.Get("Content-Type"))
			assert.Equal(t, "Bearer "+testToken, got[0].header.Get("Authorization"))
			assert.Equal(t, "logsproxy/dev test-agent/1.0", got[0].header.Get("User-Agent"))

			var traces coltracepb.ExportTraceServiceRequest
			require.NoError(t, proto.Unmarshal(got[0].body, &traces))
			require.Len(t, traces.ResourceSpans, 1)
			spans := traces.ResourceSpans[0].ScopeSpans[0].Spans
			require.Len(t, spans, 1)
			assert.Equal(t, "hello", spans[0].Name)
			assert.Equal(t, spans[0].StartTimeUnixNano, spans[0].EndTimeUnixNano)

			stats := g.GetStats()
			assert.Equal(t, uint64(1), stats.Forwarded)
			assert.Equal(t, uint64(1), stats.SpansEmitted)
			assert.False(t, stats.LastForwardTime.IsZero())
		})
	}
}

func TestLogsUpstreamResponseRelayed(t *testing.T) {
	upstream := newFakeUpstream(t, http.StatusForbidden, "invalid token")
	g := newTestGateway(t, testConfig(upstream.URL))

	ctx := newRequestCtx("POST", "http://proxy.local/v1/logs", helloLogs(t), map[string]string{
		"Authorization": testToken,
	})
	g.Handler(ctx)

	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode())
	assert.Equal(t, "invalid token", string(ctx.Response.Body()))
	assert.Equal(t, "text/plain", string(ctx.Response.Header.ContentType()))
	assert.Equal(t, uint64(0), g.GetStats().Forwarded)
}

func TestLogsUpstreamUnreachable(t *testing.T) {
	upstream := newFakeUpstream(t, http.StatusOK, "")
	url := upstream.URL
	upstream.Close()

	g := newTestGateway(t, testConfig(url))

	ctx := newRequestCtx("POST", "http://proxy.local/v1/logs", helloLogs(t), map[string]string{
		"Authorization": testToken,
	})
	g.Handler(ctx)

	assert.Equal(t, fasthttp.StatusBadGateway, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "Error sending traces upstream")
	assert.Equal(t, uint64(1), g.GetStats().UpstreamFailures)
}

func TestLogsRateLimited(t *testing.T) {
	upstream := newFakeUpstream(t, http.StatusOK, "")
	cfg := testConfig(upstream.URL)
	cfg.NetLimit.Enabled = true
	cfg.NetLimit.RequestsPerSecond = 0.001
	cfg.NetLimit.BurstSize = 1

	g := newTestGateway(t, cfg)
	headers := map[string]string{"Authorization": testToken}

	first := newRequestCtx("POST", "http://proxy.local/v1/logs", nil, headers)
	g.Handler(first)
	assert.Equal(t, fasthttp.StatusAccepted, first.Response.StatusCode())

	second := newRequestCtx("POST", "http://proxy.local/v1/logs", nil, headers)
	g.Handler(second)
	assert.Equal(t, fasthttp.StatusTooManyRequests, second.Response.StatusCode())
	assert.Equal(t, "Rate limit exceeded", string(second.Response.Body()))

	stats := g.GetStats()
	assert.Equal(t, uint64(1), stats.RateLimited)
	require.NotNil(t, stats.NetLimit)
	assert.Equal(t, uint64(1), stats.NetLimit["blocked_requests"])
}

func TestPassThrough(t *testing.T) {
	t.Run("AddsAllowOrigin", func(t *testing.T) {
		upstream := newFakeUpstream(t, http.StatusOK, "metrics accepted")
		g := newTestGateway(t, testConfig(upstream.URL))

		ctx := newRequestCtx("POST", "http://proxy.local/v1/metrics?flush=1", []byte("payload"), map[string]string{
			"Authorization": testToken,
			"Content-Type":  "application/x-protobuf",
		})
		g.Handler(ctx)

		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
		assert.Equal(t, "metrics accepted", string(ctx.Response.Body()))
		assert.Equal(t, "https://pydantic.run", string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")))

		got := upstream.received()
		require.Len(t, got, 1)
		assert.Equal(t, "POST", got[0].method)
		assert.Equal(t, "/v1/metrics", got[0].path)
		assert.Equal(t, "flush=1", got[0].query)
		assert.Equal(t, testToken, got[0].header.Get("Authorization"))
		assert.Equal(t, []byte("payload"), got[0].body)
		assert.Equal(t, uint64(1), g.GetStats().PassThrough)
	})

	t.Run("KeepsUpstreamAllowOrigin", func(t *testing.T) {
		upstream := newFakeUpstream(t, http.StatusTeapot, "short and stout")
		upstream.headers["Access-Control-Allow-Origin"] = "*"
		g := newTestGateway(t, testConfig(upstream.URL))

		ctx := newRequestCtx("GET", "http://proxy.local/v1/info", nil, nil)
		g.Handler(ctx)

		assert.Equal(t, http.StatusTeapot, ctx.Response.StatusCode())
		assert.Equal(t, "*", string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")))
	})

	t.Run("UpstreamUnreachable", func(t *testing.T) {
		upstream := newFakeUpstream(t, http.StatusOK, "")
		url := upstream.URL
		upstream.Close()
		g := newTestGateway(t, testConfig(url))

		ctx := newRequestCtx("GET", "http://proxy.local/v1/info", nil, nil)
		g.Handler(ctx)

		assert.Equal(t, fasthttp.StatusBadGateway, ctx.Response.StatusCode())
	})
}

func TestStartStop(t *testing.T) {
	g := newTestGateway(t, testConfig("http://127.0.0.1:1"))
	require.NoError(t, g.Start())
	defer g.Stop()

	addr := g.Addr()
	require.NotEmpty(t, addr)

	var (
		status int
		body   []byte
		err    error
	)
	require.Eventually(t, func() bool {
		status, body, err = fasthttp.GetTimeout(nil, "http://"+addr+"/", time.Second)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)

	assert.Equal(t, fasthttp.StatusOK, status)
	assert.Contains(t, string(body), "logsproxy")
	assert.Equal(t, uint64(1), g.GetStats().TotalRequests)
}

func TestNewRejectsBadTokenPattern(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Upstream.TokenPattern = `^no_group$`

	_, err := New(cfg, newTestLogger())
	assert.Error(t, err)
}

func TestMetricsRoute(t *testing.T) {
	upstream := newFakeUpstream(t, http.StatusOK, "")
	cfg := testConfig(upstream.URL)
	cfg.Metrics.Enabled = true
	cfg.Metrics.Path = "/metrics"
	g := newTestGateway(t, cfg)

	logs := newRequestCtx("POST", "http://proxy.local/v1/logs", helloLogs(t), map[string]string{
		"Authorization": testToken,
	})
	g.Handler(logs)
	require.Equal(t, fasthttp.StatusOK, logs.Response.StatusCode())

	ctx := newRequestCtx("GET", "http://proxy.local/metrics", nil, nil)
	g.Handler(ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	body := string(ctx.Response.Body())
	assert.Contains(t, body, `logsproxy_requests_total{code="200",route="logs"} 1`)
	assert.Contains(t, body, "logsproxy_spans_total 1")
	assert.Contains(t, body, `logsproxy_upstream_request_duration_seconds_count{outcome="ok"} 1`)

	post := newRequestCtx("POST", "http://proxy.local/metrics", nil, nil)
	g.Handler(post)
	assert.Equal(t, fasthttp.StatusMethodNotAllowed, post.Response.StatusCode())
}
