package cli

import (
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/mchmarny/scoring/pkg/logging"
)

const feedbackTypeDefault = "other"

type feedbackType struct {
	Value string
	Label string
}

var feedbackTypes = []feedbackType{
	{"incorrect_decision", "Неверное решение"},
	{"model_accuracy", "Точность модели"},
	{"feature_importance", "Факторы решения"},
	{feedbackTypeDefault, "Другое"},
}

func knownFeedbackType(v string) string {
	for _, t := range feedbackTypes {
		if t.Value == v {
			return v
		}
	}
	return feedbackTypeDefault
}

func (v *views) feedbackViewHandler(w http.ResponseWriter, r *http.Request) {
	v.render(w, r, http.StatusOK, pageFeedback, map[string]any{
		"types": feedbackTypes,
	})
}

// feedbackSubmitHandler records the feedback in the log. The email is
// never logged, only whether one was left.
func (v *views) feedbackSubmitHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	text := strings.TrimSpace(r.PostForm.Get("text"))
	if text == "" {
		v.render(w, r, http.StatusBadRequest, pageFeedback, map[string]any{
			"types": feedbackTypes,
			"error": "Напишите отзыв.",
		})
		return
	}

	slog.Info("feedback received",
		"id", logging.RequestID(r.Context()),
		"type", knownFeedbackType(r.PostForm.Get("type")),
		"length", utf8.RuneCountInString(text),
		"follow_up", strings.TrimSpace(r.PostForm.Get("email")) != "",
	)

	http.Redirect(w, r, "/?notice="+noticeFeedback, http.StatusSeeOther)
}
