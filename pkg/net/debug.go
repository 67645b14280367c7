package net

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httputil"
)

// PrintHTTPResponse dumps the response at debug level. The body stays
// readable for the caller.
func PrintHTTPResponse(resp *http.Response) {
	if resp == nil || !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	if respDump, err := httputil.DumpResponse(resp, true); err == nil {
		slog.Debug("scoring service response", "dump", string(respDump))
	}
}
