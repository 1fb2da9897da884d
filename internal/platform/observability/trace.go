package observability

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/simple-store/api/internal/platform/requestctx"
)

const traceparentHeader = "traceparent"

// TraceMiddleware extracts W3C trace context from the incoming request, minting
// fresh identifiers when the header is absent or malformed, and stores the
// metadata on the request context. The header is echoed back with this
// service's span id so callers can stitch traces together.
func TraceMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info, ok := parseTraceparent(r.Header.Get(traceparentHeader))
			if !ok {
				info = requestctx.TraceInfo{TraceID: newHexID(16), Sampled: false}
			}
			info.SpanID = newHexID(8)

			ctx := requestctx.WithTrace(r.Context(), info)
			r = r.WithContext(ctx)

			w.Header().Set(traceparentHeader, formatTraceparent(info))
			next.ServeHTTP(w, r)
		})
	}
}

// parseTraceparent reads the version-00 traceparent format:
// 00-<32 hex trace id>-<16 hex parent span id>-<2 hex flags>.
func parseTraceparent(header string) (requestctx.TraceInfo, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return requestctx.TraceInfo{}, false
	}

	parts := strings.Split(header, "-")
	if len(parts) != 4 || parts[0] != "00" {
		return requestctx.TraceInfo{}, false
	}

	traceID := strings.ToLower(parts[1])
	spanID := strings.ToLower(parts[2])
	flags := strings.ToLower(parts[3])

	if len(traceID) != 32 || !isHex(traceID) || traceID == strings.Repeat("0", 32) {
		return requestctx.TraceInfo{}, false
	}
	if len(spanID) != 16 || !isHex(spanID) || spanID == strings.Repeat("0", 16) {
		return requestctx.TraceInfo{}, false
	}
	if len(flags) != 2 || !isHex(flags) {
		return requestctx.TraceInfo{}, false
	}

	return requestctx.TraceInfo{
		TraceID: traceID,
		SpanID:  spanID,
		Sampled: flags == "01",
	}, true
}

func formatTraceparent(info requestctx.TraceInfo) string {
	flags := "00"
	if info.Sampled {
		flags = "01"
	}
	return fmt.Sprintf("00-%s-%s-%s", info.TraceID, info.SpanID, flags)
}

func newHexID(bytes int) string {
	buf := make([]byte, bytes)
	if _, err := rand.Read(buf); err != nil {
		return strings.Repeat("0", bytes*2)
	}
	return hex.EncodeToString(buf)
}

func isHex(value string) bool {
	if value == "" {
		return false
	}
	_, err := hex.DecodeString(value)
	return err == nil
}
