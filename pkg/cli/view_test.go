package cli

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/mchmarny/scoring/pkg/api"
	"github.com/mchmarny/scoring/pkg/flash"
	"github.com/mchmarny/scoring/pkg/form"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	consent    *api.ConsentRequest
	app        api.Application
	prediction *api.Prediction
	report     *api.Report
	err        error
}

func (f *fakeService) SendConsent(_ context.Context, req api.ConsentRequest) (*api.ConsentResponse, error) {
	f.consent = &req
	if f.err != nil {
		return nil, f.err
	}
	return &api.ConsentResponse{}, nil
}

func (f *fakeService) SubmitApplication(_ context.Context, app api.Application) (*api.Prediction, error) {
	f.app = app
	if f.err != nil {
		return nil, f.err
	}
	return f.prediction, nil
}

func (f *fakeService) GetModelReport(ctx context.Context) (*api.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

func newTestRouter(t *testing.T, svc *fakeService) *http.ServeMux {
	t.Helper()
	v, err := newViews(svc, form.DefaultFields(), flash.New[*api.Prediction](time.Minute), time.Second)
	require.NoError(t, err)
	return makeRouter(v)
}

func get(t *testing.T, h http.Handler, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func post(t *testing.T, h http.Handler, target string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNewViewsRequiresDependencies(t *testing.T) {
	_, err := newViews(nil, form.DefaultFields(), flash.New[*api.Prediction](0), 0)
	assert.Error(t, err)

	_, err = newViews(&fakeService{}, form.DefaultFields(), nil, 0)
	assert.Error(t, err)

	_, err = newViews(&fakeService{}, nil, flash.New[*api.Prediction](0), 0)
	assert.ErrorIs(t, err, form.ErrInvalidField)
}

func TestHomeView(t *testing.T) {
	r := newTestRouter(t, &fakeService{})

	w := get(t, r, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Кредитный скоринг")
	assert.Contains(t, w.Body.String(), `href="/consent"`)
	assert.NotContains(t, w.Body.String(), "Спасибо за отзыв")

	w = get(t, r, "/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConsentViewStartsDisabled(t *testing.T) {
	r := newTestRouter(t, &fakeService{})

	w := get(t, r, "/consent")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `id="consent-continue" disabled`)
	assert.NotContains(t, w.Body.String(), "checked")
}

func TestConsentSubmit(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"allow", "true", true},
		{"deny", "false", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			r := newTestRouter(t, svc)

			w := post(t, r, "/consent", url.Values{"consent": {tt.value}})
			assert.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, "/application", w.Header().Get("Location"))
			require.NotNil(t, svc.consent)
			assert.Equal(t, tt.want, svc.consent.Consent)
		})
	}
}

func TestConsentSubmitWithoutChoice(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(t, svc)

	w := post(t, r, "/consent", url.Values{"consent": {"maybe"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Выберите один из вариантов.")
	assert.Contains(t, w.Body.String(), `id="consent-continue" disabled`)
	assert.Nil(t, svc.consent)
}

func TestConsentSubmitServiceError(t *testing.T) {
	svc := &fakeService{err: &api.StatusError{Code: http.StatusServiceUnavailable}}
	r := newTestRouter(t, svc)

	w := post(t, r, "/consent", url.Values{"consent": {"true"}})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "код 503")
	assert.NotContains(t, w.Body.String(), `id="consent-continue" disabled`)
	assert.Contains(t, w.Body.String(), `value="true" checked`)
}

func TestApplicationView(t *testing.T) {
	r := newTestRouter(t, &fakeService{})

	w := get(t, r, "/application")
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Личные данные")
	assert.Contains(t, body, `name="days_birth"`)
	assert.Contains(t, body, `value="10000"`)
	assert.Contains(t, body, `type="checkbox" name="flag_own_car"`)
}

func TestApplicationToResults(t *testing.T) {
	svc := &fakeService{prediction: &api.Prediction{
		Approved:    true,
		Probability: 0.725,
		Importance:  map[string]float64{"income": 0.4, "age": -0.15},
	}}
	r := newTestRouter(t, svc)

	w := post(t, r, "/application", url.Values{
		"code_gender":      {"1"},
		"days_birth":       {"12000"},
		"amt_income_total": {"50000.5"},
		"flag_own_car":     {"on"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/results", w.Header().Get("Location"))

	assert.Equal(t, 1, svc.app["code_gender"])
	assert.Equal(t, 12000, svc.app["days_birth"])
	assert.Equal(t, 50000.5, svc.app["amt_income_total"])
	assert.Equal(t, true, svc.app["flag_own_car"])
	assert.Equal(t, false, svc.app["flag_own_realty"])

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, resultCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	w = get(t, r, "/results", cookies[0])
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Одобрено")
	assert.Contains(t, body, "72.5%")
	assert.Contains(t, body, "importance-bar positive")
	assert.Contains(t, body, "importance-bar negative")
	assert.Less(t, strings.Index(body, `feature-name">income`), strings.Index(body, `feature-name">age`))

	// the hand-over is one-shot
	w = get(t, r, "/results", cookies[0])
	assert.Contains(t, w.Body.String(), "Отказано")
	assert.NotContains(t, w.Body.String(), "importance-bar")
}

func TestApplicationInvalidInput(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(t, svc)

	w := post(t, r, "/application", url.Values{"days_birth": {"abc"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Проверьте выделенные поля.")
	assert.Contains(t, w.Body.String(), "must be a whole number")
	assert.Contains(t, w.Body.String(), `value="abc"`)
	assert.Nil(t, svc.app)
}

func TestApplicationServiceError(t *testing.T) {
	svc := &fakeService{err: api.ErrSchema}
	r := newTestRouter(t, svc)

	w := post(t, r, "/application", url.Values{"days_birth": {"12000"}})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "некорректный ответ")
	assert.Empty(t, w.Result().Cookies())
}

func TestResultsWithoutInput(t *testing.T) {
	r := newTestRouter(t, &fakeService{})

	w := get(t, r, "/results")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Отказано")
	assert.Contains(t, w.Body.String(), "Вероятность: —")

	w = get(t, r, "/results", &http.Cookie{Name: resultCookieName, Value: "not-a-uuid"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Отказано")
}

func TestReportView(t *testing.T) {
	svc := &fakeService{report: &api.Report{
		Accuracy:   0.91,
		Precision:  0.88,
		Recall:     0.79,
		BiasChecks: []string{"gender: ok", "age: ok"},
	}}
	r := newTestRouter(t, svc)

	w := get(t, r, "/report")
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Технический отчет модели")
	assert.Contains(t, body, "Accuracy: 0.91")
	assert.Contains(t, body, "<li>gender: ok</li>")
	assert.Contains(t, body, "<li>age: ok</li>")
}

func TestReportViewServiceError(t *testing.T) {
	r := newTestRouter(t, &fakeService{err: errors.New("connection refused")})

	w := get(t, r, "/report")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Технический отчет модели")
	assert.Contains(t, body, "недоступен")
	assert.NotContains(t, body, "Accuracy")
}

func TestReportViewClientGone(t *testing.T) {
	r := newTestRouter(t, &fakeService{report: &api.Report{}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/report", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Empty(t, w.Body.String())
}

func TestFeedback(t *testing.T) {
	r := newTestRouter(t, &fakeService{})

	w := get(t, r, "/feedback")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value="incorrect_decision"`)

	w = post(t, r, "/feedback", url.Values{"type": {"model_accuracy"}, "text": {"  "}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Напишите отзыв.")

	w = post(t, r, "/feedback", url.Values{
		"type":  {"model_accuracy"},
		"text":  {"Слишком строгая модель"},
		"email": {"user@example.com"},
	})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/?notice=feedback", w.Header().Get("Location"))

	w = get(t, r, "/?notice=feedback")
	assert.Contains(t, w.Body.String(), "Спасибо за отзыв")
}

func TestKnownFeedbackType(t *testing.T) {
	assert.Equal(t, "model_accuracy", knownFeedbackType("model_accuracy"))
	assert.Equal(t, feedbackTypeDefault, knownFeedbackType("<script>"))
	assert.Equal(t, feedbackTypeDefault, knownFeedbackType(""))
}

func TestOpsRoutes(t *testing.T) {
	r := newTestRouter(t, &fakeService{})

	w := get(t, r, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","version":"`+version+`"}`, w.Body.String())

	w = get(t, r, "/favicon.ico")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))

	w = get(t, r, "/static/assets/css/app.css")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ".importance-bar")

	get(t, r, "/")
	w = get(t, r, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "scoring_page_views_total")
}

func TestUserMessage(t *testing.T) {
	assert.Contains(t, userMessage(&api.StatusError{Code: 500}), "код 500")
	assert.Contains(t, userMessage(api.ErrDecode), "некорректный ответ")
	assert.Contains(t, userMessage(context.DeadlineExceeded), "недоступен")
}
