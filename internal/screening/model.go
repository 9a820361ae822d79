package screening

import (
	"self-screening-bot/internal/user"
)

// Outcome is one ranked (disease, confidence) pair returned by the inference provider.
// Confidence is kept as the provider sent it and parsed when evaluated.
type Outcome struct {
	Disease    string `json:"disease"`
	Confidence string `json:"confidence"`
}

// Task names a step of the dialogue script.
type Task string

const (
	TaskMenu            Task = "menu-description"
	TaskCanHaveName     Task = "can-have-name"
	TaskFallback        Task = "fallback"
	TaskLivesInArea     Task = "self-screening-lives-in-area"
	TaskRestOfQuestions Task = "self-screening-q-rest"
)

func (t Task) URI() string {
	return "task://" + string(t)
}

// Action is a single instruction for the dialogue channel: either something to say
// or a redirect to another task.
type Action struct {
	Say      string `json:"say,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func Say(text string) Action {
	return Action{Say: text}
}

func RedirectTo(t Task) Action {
	return Action{Redirect: t.URI()}
}

// Directive is the ordered list of actions returned by every screening step.
type Directive struct {
	Actions []Action `json:"actions"`
}

func NewDirective(actions ...Action) Directive {
	return Directive{Actions: actions}
}

// Then returns a new directive with more actions appended.
func (d Directive) Then(actions ...Action) Directive {
	out := make([]Action, 0, len(d.Actions)+len(actions))
	out = append(out, d.Actions...)
	out = append(out, actions...)
	return Directive{Actions: out}
}

// Redirect returns the last redirect of the directive, if any.
func (d Directive) Redirect() (string, bool) {
	for i := len(d.Actions) - 1; i >= 0; i-- {
		if d.Actions[i].Redirect != "" {
			return d.Actions[i].Redirect, true
		}
	}
	return "", false
}

// Messages returns everything the directive says, in order.
func (d Directive) Messages() []string {
	var out []string
	for _, a := range d.Actions {
		if a.Say != "" {
			out = append(out, a.Say)
		}
	}
	return out
}

// Validation answers a field validation webhook.
type Validation struct {
	Valid bool `json:"valid"`
}

// State is where a user stands in the screening dialogue.
type State string

const (
	StateNotStarted               State = "not_started"
	StateAwaitingRiskConfirmation State = "awaiting_risk_confirmation"
	StateCollectingSymptoms       State = "collecting_symptoms"
	StateAnalysisPending          State = "analysis_pending"
	StateTerminal                 State = "terminal"
)

// StateOf derives the persisted part of the state: only an open inference session
// survives between steps.
func StateOf(r *user.Record) State {
	if _, ok := r.Token(); ok {
		return StateCollectingSymptoms
	}
	return StateNotStarted
}
