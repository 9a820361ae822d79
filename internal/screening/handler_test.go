package screening

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, env *testEnv) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(env.svc, env.reporter))
	return r
}

func startMemory(answer string) string {
	return `{"twilio":{"collected_data":{"accepts-test":{"answers":{"start-screening":{"answer":"` + answer + `"}}}}}}`
}

func livesInAreaMemory(answer string) string {
	return `{"twilio":{"collected_data":{"q1":{"answers":{"lives-in-area":{"answer":"` + answer + `"}}}}}}`
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeDirective(t *testing.T, w *httptest.ResponseRecorder) Directive {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var d Directive
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	return d
}

func TestHandler_Start(t *testing.T) {
	env := newTestEnv(t, DefaultOptions())
	env.addUser(t, "Chile", nil)
	h := newTestRouter(t, env)

	w := postForm(t, h, "/self-screening/start", url.Values{
		"UserIdentifier": {testPhone},
		"Memory":         {startMemory("Yes")},
	})

	d := decodeDirective(t, w)
	assert.Equal(t, skipRiskQuestion(), d)
	assert.JSONEq(t, `{"actions":[
		{"say":"Your country already has cases of COVID-19, so we will skip that question; let's go with the rest"},
		{"redirect":"task://self-screening-q-rest"}
	]}`, w.Body.String())
}

func TestHandler_StartMalformedMemory(t *testing.T) {
	env := newTestEnv(t, DefaultOptions())
	h := newTestRouter(t, env)

	tests := []struct {
		name string
		form url.Values
	}{
		{"bad json", url.Values{"UserIdentifier": {testPhone}, "Memory": {"{"}}},
		{"missing answer", url.Values{"UserIdentifier": {testPhone}, "Memory": {`{"twilio":{}}`}}},
		{"missing user", url.Values{"Memory": {startMemory("Yes")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := decodeDirective(t, postForm(t, h, "/self-screening/start", tt.form))
			assert.Equal(t, Fallback(), d)
		})
	}
}

func TestHandler_LivesInArea(t *testing.T) {
	env := newTestEnv(t, DefaultOptions())
	env.addUser(t, "Chile", nil)
	h := newTestRouter(t, env)

	d := decodeDirective(t, postForm(t, h, "/self-screening/lives-in-area", url.Values{
		"UserIdentifier": {testPhone},
		"Memory":         {livesInAreaMemory("No")},
	}))
	assert.Equal(t, NotInDanger(), d)

	d = decodeDirective(t, postForm(t, h, "/self-screening/lives-in-area", url.Values{
		"UserIdentifier": {testPhone},
		"Memory":         {livesInAreaMemory("Yes")},
	}))
	assert.Equal(t, restOfQuestions(), d)
	_, ok := env.token(t)
	assert.True(t, ok)
}

func TestHandler_AddFeature(t *testing.T) {
	env := newTestEnv(t, DefaultOptions())
	env.addUser(t, "Chile", ptr("tok"))
	h := newTestRouter(t, env)

	w := postForm(t, h, "/self-screening/fever", url.Values{
		"UserIdentifier":      {testPhone},
		"ValidateFieldAnswer": {"Yes"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid":true}`, w.Body.String())

	w = postForm(t, h, "/self-screening/favourite-color", url.Values{
		"UserIdentifier":      {testPhone},
		"ValidateFieldAnswer": {"Yes"},
	})
	assert.JSONEq(t, `{"valid":false}`, w.Body.String())

	w = postForm(t, h, "/self-screening/fever", url.Values{"ValidateFieldAnswer": {"Yes"}})
	assert.JSONEq(t, `{"valid":false}`, w.Body.String())
}

func TestHandler_AnalyzeAnswers(t *testing.T) {
	env := newTestEnv(t, DefaultOptions())
	env.addUser(t, "Chile", ptr("tok"))
	env.inference.outcomes = []Outcome{{"COVID-19", "0.7"}}
	h := newTestRouter(t, env)

	d := decodeDirective(t, postForm(t, h, "/self-screening/analyze-answers", url.Values{
		"UserIdentifier": {testPhone},
	}))

	assert.Equal(t, seekMedicalAttention(), d)
	_, ok := env.token(t)
	assert.False(t, ok)
}

type panickingService struct{ Service }

func (panickingService) Start(context.Context, string, string) Directive {
	panic("boom")
}

func TestHandler_RecoversPanics(t *testing.T) {
	env := newTestEnv(t, DefaultOptions())
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(panickingService{env.svc}, env.reporter))

	d := decodeDirective(t, postForm(t, r, "/self-screening/start", url.Values{
		"UserIdentifier": {testPhone},
		"Memory":         {startMemory("Yes")},
	}))

	assert.Equal(t, ErrorFallback(), d)
	assert.Equal(t, 1, env.reporter.count())
}
