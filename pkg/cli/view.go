package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mchmarny/scoring/pkg/api"
	"github.com/mchmarny/scoring/pkg/flash"
	"github.com/mchmarny/scoring/pkg/form"
	"github.com/mchmarny/scoring/pkg/logging"
	"github.com/mchmarny/scoring/pkg/metrics"
)

const (
	resultCookieName = "scoring_result"

	pageHome        = "home"
	pageConsent     = "consent"
	pageApplication = "application"
	pageResults     = "results"
	pageReport      = "report"
	pageFeedback    = "feedback"

	noticeFeedback = "feedback"
)

// scoringService is the part of the API client the views depend on.
type scoringService interface {
	SendConsent(ctx context.Context, req api.ConsentRequest) (*api.ConsentResponse, error)
	SubmitApplication(ctx context.Context, app api.Application) (*api.Prediction, error)
	GetModelReport(ctx context.Context) (*api.Report, error)
}

type views struct {
	tmpl          *template.Template
	svc           scoringService
	fields        []form.Field
	results       *flash.Store[*api.Prediction]
	reportTimeout time.Duration
}

func newViews(svc scoringService, fields []form.Field, results *flash.Store[*api.Prediction], reportTimeout time.Duration) (*views, error) {
	if svc == nil {
		return nil, errors.New("scoring service required")
	}
	if results == nil {
		return nil, errors.New("results store required")
	}
	if err := form.Validate(fields); err != nil {
		return nil, err
	}

	tmpl, err := template.New("").ParseFS(embedFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	return &views{
		tmpl:          tmpl,
		svc:           svc,
		fields:        fields,
		results:       results,
		reportTimeout: reportTimeout,
	}, nil
}

// render executes the page into a buffer first so that template errors
// do not leave a half written page behind.
func (v *views) render(w http.ResponseWriter, r *http.Request, status int, page string, d map[string]any) {
	if d == nil {
		d = map[string]any{}
	}
	d["page"] = page
	d["version"] = version

	var buf bytes.Buffer
	if err := v.tmpl.ExecuteTemplate(&buf, page, d); err != nil {
		slog.Error("template render failed", "page", page, "id", logging.RequestID(r.Context()), "error", err)
		metrics.PageViews.WithLabelValues(page, strconv.Itoa(http.StatusInternalServerError)).Inc()
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	metrics.PageViews.WithLabelValues(page, strconv.Itoa(status)).Inc()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write page", "page", page, "error", err)
	}
}

func faviconHandler(w http.ResponseWriter, r *http.Request) {
	file, err := embedFS.ReadFile("assets/img/favicon.svg")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	if _, err = w.Write(file); err != nil {
		slog.Error("failed to write favicon", "error", err)
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func (v *views) homeViewHandler(w http.ResponseWriter, r *http.Request) {
	v.render(w, r, http.StatusOK, pageHome, map[string]any{
		"thanks": r.URL.Query().Get("notice") == noticeFeedback,
	})
}

// userMessage translates a scoring service error into text for the page.
func userMessage(err error) string {
	var se *api.StatusError
	switch {
	case errors.As(err, &se):
		return fmt.Sprintf("Сервис скоринга вернул ошибку (код %d). Попробуйте позже.", se.Code)
	case errors.Is(err, api.ErrSchema), errors.Is(err, api.ErrDecode):
		return "Сервис скоринга вернул некорректный ответ. Попробуйте позже."
	default:
		return "Сервис скоринга недоступен. Попробуйте позже."
	}
}

func logServiceError(r *http.Request, msg string, err error) {
	slog.Error(msg, "id", logging.RequestID(r.Context()), "error", err)
}

// clientGone reports whether the request was abandoned by the browser;
// results of calls made for it are discarded.
func clientGone(r *http.Request) bool {
	return r.Context().Err() != nil
}
