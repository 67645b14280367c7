package cli

import (
	"net/http"

	"github.com/mchmarny/scoring/pkg/api"
)

// consentPage is the state of the consent form; a nil choice is unset.
type consentPage struct {
	Choice *bool
	Error  string
}

// CanContinue reports whether the continue action is enabled.
func (p consentPage) CanContinue() bool {
	return p.Choice != nil
}

func (p consentPage) Yes() bool {
	return p.Choice != nil && *p.Choice
}

func (p consentPage) No() bool {
	return p.Choice != nil && !*p.Choice
}

func parseChoice(s string) *bool {
	var b bool
	switch s {
	case "true":
		b = true
	case "false":
		b = false
	default:
		return nil
	}
	return &b
}

func (v *views) consentViewHandler(w http.ResponseWriter, r *http.Request) {
	v.render(w, r, http.StatusOK, pageConsent, map[string]any{
		"consent": consentPage{},
	})
}

func (v *views) consentSubmitHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	p := consentPage{Choice: parseChoice(r.PostForm.Get("consent"))}
	if !p.CanContinue() {
		p.Error = "Выберите один из вариантов."
		v.render(w, r, http.StatusBadRequest, pageConsent, map[string]any{"consent": p})
		return
	}

	// the response body is not interpreted, only failures stop the flow
	if _, err := v.svc.SendConsent(r.Context(), api.ConsentRequest{Consent: *p.Choice}); err != nil {
		if clientGone(r) {
			return
		}
		logServiceError(r, "failed to send consent", err)
		p.Error = userMessage(err)
		v.render(w, r, http.StatusBadGateway, pageConsent, map[string]any{"consent": p})
		return
	}

	http.Redirect(w, r, "/application", http.StatusSeeOther)
}
