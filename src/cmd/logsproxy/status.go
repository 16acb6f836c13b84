// FILE: logsproxy/src/cmd/logsproxy/status.go
package main

import (
	"context"
	"time"

	"logsproxy/src/internal/gateway"
)

const statusInterval = 30 * time.Second

// Periodically logs gateway counters
func statusReporter(ctx context.Context, gw *gateway.Gateway) {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	var prev gateway.Stats
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if gw == nil {
				logger.Warn("msg", "Status reporter: gateway is nil",
					"component", "status_reporter")
				return
			}

			func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Error("msg", "Panic in status reporter",
							"component", "status_reporter",
							"panic", r)
					}
				}()

				stats := gw.GetStats()
				logger.Info(statusFields(stats, prev)...)
				prev = stats
			}()
		}
	}
}

// statusFields builds the key/value pairs of a status line, with deltas
// since the previous report
func statusFields(stats, prev gateway.Stats) []any {
	fields := []any{
		"msg", "Gateway status",
		"component", "status_reporter",
		"uptime", time.Since(stats.StartTime).Round(time.Second).String(),
		"requests", stats.TotalRequests,
		"log_requests", stats.LogRequests,
		"spans_emitted", stats.SpansEmitted,
		"spans_since_last", stats.SpansEmitted - prev.SpansEmitted,
		"forwarded", stats.Forwarded,
		"pass_through", stats.PassThrough,
		"upstream_failures", stats.UpstreamFailures,
		"client_errors", stats.ClientErrors,
		"internal_errors", stats.InternalErrors,
	}

	if !stats.LastForwardTime.IsZero() {
		fields = append(fields, "last_forward", stats.LastForwardTime.Format(time.RFC3339))
	}

	if stats.NetLimit != nil {
		fields = append(fields,
			"rate_limited", stats.RateLimited,
			"net_limit_clients", stats.NetLimit["active_clients"])
	}

	return fields
}
