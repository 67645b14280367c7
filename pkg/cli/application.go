package cli

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mchmarny/scoring/pkg/api"
	"github.com/mchmarny/scoring/pkg/form"
	"github.com/mchmarny/scoring/pkg/logging"
	"github.com/mchmarny/scoring/pkg/score"
)

func (v *views) applicationViewHandler(w http.ResponseWriter, r *http.Request) {
	v.render(w, r, http.StatusOK, pageApplication, map[string]any{
		"sections": form.Inputs(v.fields, nil, nil),
	})
}

func (v *views) applicationSubmitHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	data, err := form.Parse(v.fields, r.PostForm)
	if err != nil {
		var pe *form.ParseError
		if !errors.As(err, &pe) {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		v.render(w, r, http.StatusBadRequest, pageApplication, map[string]any{
			"sections": form.Inputs(v.fields, r.PostForm, pe.Fields),
			"error":    "Проверьте выделенные поля.",
		})
		return
	}

	p, err := v.svc.SubmitApplication(r.Context(), api.Application(data))
	if err != nil {
		if clientGone(r) {
			return
		}
		logServiceError(r, "failed to submit application", err)
		v.render(w, r, http.StatusBadGateway, pageApplication, map[string]any{
			"sections": form.Inputs(v.fields, r.PostForm, nil),
			"error":    userMessage(err),
		})
		return
	}

	id := v.results.Put(p)
	http.SetCookie(w, &http.Cookie{
		Name:     resultCookieName,
		Value:    id,
		Path:     "/results",
		MaxAge:   int(v.results.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/results", http.StatusSeeOther)
}

// resultsViewHandler renders the prediction handed over by the application
// form. Without one (direct link, reload, expiry) the default page is shown.
func (v *views) resultsViewHandler(w http.ResponseWriter, r *http.Request) {
	var p *api.Prediction
	if c, err := r.Cookie(resultCookieName); err == nil {
		if stored, ok := v.results.Take(c.Value); ok {
			p = stored
		}
		http.SetCookie(w, &http.Cookie{
			Name:     resultCookieName,
			Path:     "/results",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	if p == nil {
		slog.Debug("results page without input", "id", logging.RequestID(r.Context()))
	}

	v.render(w, r, http.StatusOK, pageResults, map[string]any{
		"result": score.NewPage(p),
	})
}
