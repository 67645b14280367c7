package cli

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mchmarny/scoring/pkg/logging"
)

// reportViewHandler fetches the model report for this request only. The
// call is cancelled with the request; a late answer is dropped.
func (v *views) reportViewHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if v.reportTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.reportTimeout)
		defer cancel()
	}

	report, err := v.svc.GetModelReport(ctx)
	if err != nil {
		if clientGone(r) {
			slog.Debug("report request abandoned", "id", logging.RequestID(r.Context()))
			return
		}
		logServiceError(r, "failed to get model report", err)
		v.render(w, r, http.StatusBadGateway, pageReport, map[string]any{
			"error": userMessage(err),
		})
		return
	}

	v.render(w, r, http.StatusOK, pageReport, map[string]any{
		"report": report,
	})
}
