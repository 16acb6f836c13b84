// FILE: logsproxy/src/internal/gateway/handler.go
package gateway

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"logsproxy/src/internal/decompress"
	"logsproxy/src/internal/otlpwire"
	"logsproxy/src/internal/version"

	"github.com/valyala/fasthttp"
)

const (
	logsPath   = "/v1/logs"
	apiPrefix  = "/v1/"
	projectURL = "https://github.com/pydantic/logfire-logs-proxy"

	contentTypeText = "text/plain; charset=utf-8"
	contentTypeHTML = "text/html; charset=utf-8"
)

// Handler routes every inbound request
func (g *Gateway) Handler(ctx *fasthttp.RequestCtx) {
	g.totalRequests.Add(1)
	route := g.route(ctx)
	if g.metrics != nil {
		defer func() { g.metrics.ObserveRequest(route, ctx.Response.StatusCode()) }()
	}

	path := string(ctx.Path())
	method := string(ctx.Method())

	switch route {
	case routeIndex:
		if method != fasthttp.MethodGet {
			g.wrongMethod(ctx, fasthttp.MethodGet)
			return
		}
		g.handleIndex(ctx)

	case routeLogs:
		if method != fasthttp.MethodPost {
			g.wrongMethod(ctx, fasthttp.MethodPost)
			return
		}
		g.handleLogs(ctx)

	case routePreflight:
		g.handlePreflight(ctx)

	case routePassThrough:
		g.handlePassThrough(ctx)

	case routeMetrics:
		if method != fasthttp.MethodGet {
			g.wrongMethod(ctx, fasthttp.MethodGet)
			return
		}
		g.metrics.Handler()(ctx)

	default:
		g.clientErrors.Add(1)
		g.reply(ctx, fasthttp.StatusNotFound, fmt.Sprintf("404: '%s %s' not found", method, path))
	}
}

// Route labels, also used as metric label values
const (
	routeIndex       = "index"
	routeLogs        = "logs"
	routePreflight   = "preflight"
	routePassThrough = "pass_through"
	routeMetrics     = "metrics"
	routeNotFound    = "not_found"
)

func (g *Gateway) route(ctx *fasthttp.RequestCtx) string {
	path := string(ctx.Path())
	switch {
	case path == "/":
		return routeIndex
	case strings.HasPrefix(path, apiPrefix) && ctx.IsOptions():
		// Browsers preflight the log endpoint too
		return routePreflight
	case path == logsPath:
		return routeLogs
	case strings.HasPrefix(path, apiPrefix):
		return routePassThrough
	case g.metrics != nil && path == g.cfg.Metrics.Path:
		return routeMetrics
	default:
		return routeNotFound
	}
}

func (g *Gateway) handleIndex(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType(contentTypeHTML)
	fmt.Fprintf(ctx, `
<h1>logsproxy</h1>
<p>Translates OTLP log exports into trace exports and forwards them to Logfire.</p>
<p>
  See <a href="%s">%s</a> for details (version <code>%s</code>).
</p>
`, projectURL, strings.TrimPrefix(projectURL, "https://"), html.EscapeString(version.Short()))
}

func (g *Gateway) handleLogs(ctx *fasthttp.RequestCtx) {
	g.logRequests.Add(1)
	start := time.Now()
	ctx.Response.Header.Set(fasthttp.HeaderAccessControlAllowOrigin, g.allowOrigin(ctx))

	auth := string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization))
	if auth == "" {
		g.clientErrors.Add(1)
		g.reply(ctx, fasthttp.StatusUnauthorized, `No "Authorization" header`)
		return
	}

	if g.limiter != nil {
		clientIP := ctx.RemoteIP().String()
		if !g.limiter.Allow(clientIP) {
			g.rateLimited.Add(1)
			g.logger.Warn("msg", "Request rate limited",
				"component", "gateway",
				"remote_addr", clientIP)
			g.reply(ctx, int(g.cfg.NetLimit.ResponseCode), g.cfg.NetLimit.ResponseMessage)
			return
		}
	}

	body, err := decompress.Decode(string(ctx.Request.Header.ContentEncoding()), ctx.Request.Body(), g.maxBodySize)
	if err != nil {
		g.clientErrors.Add(1)
		status := fasthttp.StatusBadRequest
		if errors.Is(err, decompress.ErrBodyTooLarge) {
			status = fasthttp.StatusRequestEntityTooLarge
		}
		g.logger.Debug("msg", "Rejected request body",
			"component", "gateway",
			"remote_addr", ctx.RemoteAddr().String(),
			"error", err)
		g.reply(ctx, status, fmt.Sprintf("Error collecting request body: %v", err))
		return
	}

	logsReq, err := otlpwire.Decode(string(ctx.Request.Header.ContentType()), body)
	if err != nil {
		g.clientErrors.Add(1)
		g.logger.Debug("msg", "Failed to decode log export",
			"component", "gateway",
			"remote_addr", ctx.RemoteAddr().String(),
			"error", err)
		g.reply(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("Error parsing request: %v", err))
		return
	}

	tracesReq, err := g.translator.Translate(logsReq)
	if err != nil {
		g.internalErrors.Add(1)
		g.logger.Error("msg", "Translated request failed validation",
			"component", "gateway",
			"log_records", otlpwire.LogRecordCount(logsReq),
			"error", err)
		g.reply(ctx, fasthttp.StatusInternalServerError, "Internal error translating logs")
		return
	}
	if tracesReq == nil {
		g.reply(ctx, fasthttp.StatusAccepted, "no data to proxy")
		return
	}
	g.translated.Add(1)

	payload, err := otlpwire.EncodeTraces(tracesReq)
	if err != nil {
		g.internalErrors.Add(1)
		g.logger.Error("msg", "Failed to encode trace export",
			"component", "gateway",
			"error", err)
		g.reply(ctx, fasthttp.StatusInternalServerError, "Internal error encoding traces")
		return
	}

	spans := otlpwire.SpanCount(tracesReq)
	g.spansEmitted.Add(uint64(spans))
	g.metrics.AddTranslated(otlpwire.LogRecordCount(logsReq), spans)

	upstreamStart := time.Now()
	reply, err := g.forwardTraces(auth, string(ctx.UserAgent()), payload)
	if err != nil {
		g.metrics.ObserveUpstream("error", time.Since(upstreamStart))
		g.upstreamFailures.Add(1)
		g.logger.Error("msg", "Failed to forward traces",
			"component", "gateway",
			"spans", spans,
			"error", err)
		g.reply(ctx, fasthttp.StatusBadGateway, fmt.Sprintf("Error sending traces upstream: %v", err))
		return
	}

	if reply.status >= 200 && reply.status < 300 {
		g.metrics.ObserveUpstream("ok", time.Since(upstreamStart))
		g.forwarded.Add(1)
		g.lastForwardTime.Store(time.Now())
		g.logger.Debug("msg", "Forwarded traces",
			"component", "gateway",
			"spans", spans,
			"bytes", len(payload),
			"upstream_status", reply.status,
			"duration_ms", time.Since(start).Milliseconds())
	} else {
		g.metrics.ObserveUpstream("rejected", time.Since(upstreamStart))
		g.logger.Warn("msg", "Unexpected upstream response",
			"component", "gateway",
			"upstream_status", reply.status,
			"body", string(reply.body))
	}

	ctx.SetStatusCode(reply.status)
	if reply.contentType != "" {
		ctx.SetContentType(reply.contentType)
	}
	ctx.SetBody(reply.body)
}

func (g *Gateway) handlePreflight(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusNoContent)
	ctx.Response.Header.Set(fasthttp.HeaderAccessControlAllowOrigin, g.allowOrigin(ctx))
	ctx.Response.Header.Set(fasthttp.HeaderAccessControlAllowMethods, fasthttp.MethodPost)
	ctx.Response.Header.Set(fasthttp.HeaderAccessControlAllowHeaders,
		string(ctx.Request.Header.Peek(fasthttp.HeaderAccessControlRequestHeaders)))
}

func (g *Gateway) handlePassThrough(ctx *fasthttp.RequestCtx) {
	g.passThrough.Add(1)

	if err := g.proxyRaw(ctx); err != nil {
		g.upstreamFailures.Add(1)
		g.logger.Error("msg", "Pass-through request failed",
			"component", "gateway",
			"method", string(ctx.Method()),
			"path", string(ctx.Path()),
			"error", err)
		ctx.Response.Reset()
		g.reply(ctx, fasthttp.StatusBadGateway, fmt.Sprintf("Error proxying request upstream: %v", err))
		return
	}

	if len(ctx.Response.Header.Peek(fasthttp.HeaderAccessControlAllowOrigin)) == 0 {
		ctx.Response.Header.Set(fasthttp.HeaderAccessControlAllowOrigin, g.allowOrigin(ctx))
	}
}

func (g *Gateway) wrongMethod(ctx *fasthttp.RequestCtx, allow string) {
	g.clientErrors.Add(1)
	ctx.Response.Header.Set(fasthttp.HeaderAllow, allow)
	g.reply(ctx, fasthttp.StatusMethodNotAllowed, fmt.Sprintf(
		"405: '%s %s' method not allowed\n\nExpected %s request, see %s for details",
		ctx.Method(), ctx.URI().String(), allow, projectURL))
}

func (g *Gateway) allowOrigin(ctx *fasthttp.RequestCtx) string {
	return g.origins.allow(string(ctx.Request.Header.Peek(fasthttp.HeaderOrigin)))
}

func (g *Gateway) reply(ctx *fasthttp.RequestCtx, status int, msg string) {
	ctx.SetStatusCode(status)
	ctx.SetContentType(contentTypeText)
	ctx.SetBodyString(msg)
}
