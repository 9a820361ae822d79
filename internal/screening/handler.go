package screening

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"self-screening-bot/internal/platform/log"
)

// Form fields posted by the Twilio Autopilot webhooks.
const (
	fieldUserIdentifier = "UserIdentifier"
	fieldMemory         = "Memory"
	fieldAnswer         = "ValidateFieldAnswer"
)

type Handler struct {
	svc      Service
	reporter ErrorReporter
}

func NewHandler(svc Service, reporter ErrorReporter) *Handler {
	return &Handler{svc: svc, reporter: reporter}
}

// memory is the subset of the Autopilot Memory payload the screening reads.
type memory struct {
	Twilio struct {
		CollectedData map[string]collectedTask `json:"collected_data"`
	} `json:"twilio"`
}

type collectedTask struct {
	Answers map[string]struct {
		Answer string `json:"answer"`
	} `json:"answers"`
}

func (m memory) answer(task, question string) (string, bool) {
	t, ok := m.Twilio.CollectedData[task]
	if !ok {
		return "", false
	}
	a, ok := t.Answers[question]
	if !ok {
		return "", false
	}
	return a.Answer, true
}

// collectedAnswer reads the caller id and one collected answer from the request.
func collectedAnswer(r *http.Request, task, question string) (string, string, error) {
	if err := r.ParseForm(); err != nil {
		return "", "", fmt.Errorf("invalid form: %w", err)
	}
	phone := r.PostForm.Get(fieldUserIdentifier)
	if phone == "" {
		return "", "", fmt.Errorf("missing %s", fieldUserIdentifier)
	}

	var m memory
	if err := json.Unmarshal([]byte(r.PostForm.Get(fieldMemory)), &m); err != nil {
		return "", "", fmt.Errorf("invalid %s: %w", fieldMemory, err)
	}
	answer, ok := m.answer(task, question)
	if !ok {
		return "", "", fmt.Errorf("no answer collected for %s/%s", task, question)
	}
	return phone, answer, nil
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	phone, answer, err := collectedAnswer(r, "accepts-test", "start-screening")
	if err != nil {
		h.badEnvelope(w, r, err)
		return
	}
	writeJSON(w, h.svc.Start(r.Context(), phone, answer))
}

func (h *Handler) LivesInArea(w http.ResponseWriter, r *http.Request) {
	phone, answer, err := collectedAnswer(r, "q1", SymptomLivesInArea)
	if err != nil {
		h.badEnvelope(w, r, err)
		return
	}
	writeJSON(w, h.svc.ConfirmRiskArea(r.Context(), phone, answer))
}

// AnalyzeAnswers does not read Memory: every answer already reached the
// inference session when it was validated.
func (h *Handler) AnalyzeAnswers(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.badEnvelope(w, r, err)
		return
	}
	phone := r.PostForm.Get(fieldUserIdentifier)
	if phone == "" {
		h.badEnvelope(w, r, fmt.Errorf("missing %s", fieldUserIdentifier))
		return
	}
	writeJSON(w, h.svc.Analyze(r.Context(), phone))
}

func (h *Handler) AddFeature(w http.ResponseWriter, r *http.Request) {
	feature := chi.URLParam(r, "feature")
	if err := r.ParseForm(); err != nil {
		log.FromCtx(r.Context()).Warn().Err(err).Msg("invalid feature form")
		writeJSON(w, Validation{Valid: false})
		return
	}
	phone := r.PostForm.Get(fieldUserIdentifier)
	if phone == "" {
		writeJSON(w, Validation{Valid: false})
		return
	}
	writeJSON(w, h.svc.AddFeature(r.Context(), phone, feature, r.PostForm.Get(fieldAnswer)))
}

func (h *Handler) badEnvelope(w http.ResponseWriter, r *http.Request, err error) {
	log.FromCtx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("malformed webhook")
	writeJSON(w, Fallback())
}

// Recoverer turns a panic into the generic error directive, so the dialogue
// never ends on a transport error.
func (h *Handler) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			h.reporter.Capture(r.Context(), fmt.Errorf("panic serving %s: %v", r.URL.Path, rec))
			writeJSON(w, ErrorFallback())
		}()
		next.ServeHTTP(w, r)
	})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/self-screening", func(r chi.Router) {
		r.Use(h.Recoverer)
		r.Post("/start", h.Start)
		r.Post("/lives-in-area", h.LivesInArea)
		r.Post("/analyze-answers", h.AnalyzeAnswers)
		r.Post("/{feature}", h.AddFeature)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
