// FILE: logsproxy/src/internal/gateway/upstream.go
package gateway

import (
	"fmt"

	"logsproxy/src/internal/otlpwire"
	"logsproxy/src/internal/version"

	"github.com/valyala/fasthttp"
)

// UpstreamError reports a transport failure talking to the collector. An
// upstream that answers, whatever its status, is not an error.
type UpstreamError struct {
	URL string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream request to %s failed: %v", e.URL, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// upstreamReply is the part of an upstream response relayed to the caller
type upstreamReply struct {
	status      int
	contentType string
	body        []byte
}

// forwardTraces posts an encoded trace export to {base}/v1/traces. Single
// attempt, no retry.
func (g *Gateway) forwardTraces(auth, inboundUA string, payload []byte) (*upstreamReply, error) {
	url := g.resolver.BaseURL(auth) + "/v1/traces"

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType(otlpwire.ContentTypeProtobuf)
	req.Header.Set(fasthttp.HeaderAuthorization, auth)
	req.Header.SetUserAgent(version.UserAgent(inboundUA))
	req.SetBody(payload)

	if err := g.client.DoTimeout(req, resp, g.upstreamTimeout); err != nil {
		return nil, &UpstreamError{URL: url, Err: err}
	}

	// Body bytes belong to the pooled response
	body := append([]byte(nil), resp.Body()...)
	return &upstreamReply{
		status:      resp.StatusCode(),
		contentType: string(resp.Header.ContentType()),
		body:        body,
	}, nil
}

// proxyRaw forwards the inbound request unchanged to the same path on the
// regional upstream and copies the response into ctx
func (g *Gateway) proxyRaw(ctx *fasthttp.RequestCtx) error {
	auth := string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization))
	url := g.resolver.BaseURL(auth) + string(ctx.Path())
	if qs := ctx.URI().QueryString(); len(qs) > 0 {
		url += "?" + string(qs)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	ctx.Request.CopyTo(req)
	req.SetRequestURI(url)
	req.Header.SetHostBytes(req.URI().Host())
	req.Header.ResetConnectionClose()

	if err := g.client.DoTimeout(req, resp, g.upstreamTimeout); err != nil {
		return &UpstreamError{URL: url, Err: err}
	}

	resp.CopyTo(&ctx.Response)
	ctx.Response.Header.ResetConnectionClose()
	return nil
}
