package screening

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"self-screening-bot/internal/platform/log"
	"self-screening-bot/internal/user"
)

// Dialogue answers compared verbatim.
const (
	AnswerYes = "Yes"
	AnswerNo  = "No"
)

// RiskZoneLookup tells whether a country has active disease spread.
type RiskZoneLookup interface {
	IsRiskyCountry(ctx context.Context, country string) (bool, error)
}

// InferenceClient is the remote diagnostic engine. A session is opened with
// NewSession, unlocked with AcceptTerms, fed with AddFeature and scored by Analyze.
type InferenceClient interface {
	NewSession(ctx context.Context) (string, error)
	AcceptTerms(ctx context.Context, token string) (bool, error)
	AddFeature(ctx context.Context, token, feature, value string) (bool, error)
	Analyze(ctx context.Context, token string) ([]Outcome, error)
}

// ErrorReporter receives collaborator failures. It must not block.
type ErrorReporter interface {
	Capture(ctx context.Context, err error)
}

type Options struct {
	Threshold float64
	// SkipRiskQuestion resolves the lives-in-area question through the risk-zone
	// lookup. When false "Yes" goes through the lives-in-area task instead.
	SkipRiskQuestion bool
	// SeekAttentionTask follows a non COVID-19 outcome above the threshold.
	SeekAttentionTask Task
}

func DefaultOptions() Options {
	return Options{
		Threshold:         0.5,
		SkipRiskQuestion:  true,
		SeekAttentionTask: TaskLivesInArea,
	}
}

// Service drives the self-screening dialogue. Every step returns a usable
// response whatever fails underneath.
type Service interface {
	Start(ctx context.Context, phone, answer string) Directive
	ConfirmRiskArea(ctx context.Context, phone, answer string) Directive
	AddFeature(ctx context.Context, phone, symptomID, rawAnswer string) Validation
	Analyze(ctx context.Context, phone string) Directive
}

type service struct {
	users     user.Repository
	riskZones RiskZoneLookup
	inference InferenceClient
	reporter  ErrorReporter
	evaluator Evaluator
	opts      Options
}

func NewService(users user.Repository, riskZones RiskZoneLookup, inference InferenceClient, reporter ErrorReporter, opts Options) Service {
	if opts.SeekAttentionTask == "" {
		opts.SeekAttentionTask = TaskLivesInArea
	}
	return &service{
		users:     users,
		riskZones: riskZones,
		inference: inference,
		reporter:  reporter,
		evaluator: NewEvaluator(opts.Threshold),
		opts:      opts,
	}
}

func (s *service) Start(ctx context.Context, phone, answer string) Directive {
	logger := stepLogger(ctx, "start", phone)

	switch answer {
	case AnswerNo:
		logger.Info().Msg("screening declined")
		return backToMenu()
	case AnswerYes:
	default:
		logger.Info().Str("answer", answer).Msg("unexpected start answer")
		return unknownAnswer()
	}

	rec, err := s.users.GetByPhone(ctx, phone)
	if errors.Is(err, user.ErrNotFound) {
		logger.Info().Msg("user has no record yet, asking for name")
		return needName()
	}
	if err != nil {
		return s.fail(ctx, logger, fmt.Errorf("start: %w", err))
	}
	logger.Debug().Str("state", string(StateOf(rec))).Msg("user loaded")

	if !s.opts.SkipRiskQuestion {
		logger.Info().Str("next", string(StateAwaitingRiskConfirmation)).Msg("asking lives-in-area question")
		return letsStart()
	}

	risky, err := s.riskZones.IsRiskyCountry(ctx, rec.Country)
	if err != nil {
		return s.fail(ctx, logger, fmt.Errorf("start: risk zone lookup: %w", err))
	}
	if !risky {
		logger.Info().Str("country", rec.Country).Msg("country is not a risk zone")
		return NotInDanger()
	}

	if err := s.acceptSessionAndSeed(ctx, rec); err != nil {
		return s.fail(ctx, logger, fmt.Errorf("start: %w", err))
	}

	logger.Info().Str("next", string(StateCollectingSymptoms)).Msg("risk zone confirmed, session opened")
	return skipRiskQuestion()
}

func (s *service) ConfirmRiskArea(ctx context.Context, phone, answer string) Directive {
	logger := stepLogger(ctx, "lives-in-area", phone)

	if answer == AnswerNo {
		logger.Info().Msg("user does not live in a risk zone")
		return NotInDanger()
	}

	rec, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		return s.fail(ctx, logger, fmt.Errorf("lives in area: %w", err))
	}

	if err := s.acceptSessionAndSeed(ctx, rec); err != nil {
		return s.fail(ctx, logger, fmt.Errorf("lives in area: %w", err))
	}

	logger.Info().Str("next", string(StateCollectingSymptoms)).Msg("session opened")
	return restOfQuestions()
}

func (s *service) AddFeature(ctx context.Context, phone, symptomID, rawAnswer string) Validation {
	logger := stepLogger(ctx, "add-feature", phone).With().
		Str("symptom", symptomID).
		Str("answer", rawAnswer).
		Logger()
	invalid := Validation{Valid: false}

	feature, err := FeatureFor(symptomID)
	if err != nil {
		logger.Warn().Err(err).Msg("feature rejected")
		return invalid
	}
	severity, err := SeverityFor(rawAnswer)
	if err != nil {
		logger.Warn().Err(err).Msg("feature rejected")
		return invalid
	}

	rec, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		s.fail(ctx, &logger, fmt.Errorf("add feature: %w", err))
		return invalid
	}
	token, ok := rec.Token()
	if !ok {
		s.fail(ctx, &logger, fmt.Errorf("add feature %s: %w", symptomID, ErrNoSession))
		return invalid
	}

	accepted, err := s.inference.AddFeature(ctx, token, feature, severity)
	if err != nil {
		s.fail(ctx, &logger, fmt.Errorf("add feature %s: %w", symptomID, err))
		return invalid
	}
	if !accepted {
		logger.Warn().Str("feature", feature).Msg("provider rejected feature")
		return invalid
	}

	logger.Info().Str("feature", feature).Str("severity", severity).Msg("feature added")
	return Validation{Valid: true}
}

func (s *service) Analyze(ctx context.Context, phone string) Directive {
	logger := stepLogger(ctx, "analyze", phone)

	sess, err := s.acquireSession(ctx, phone)
	if err != nil {
		return s.fail(ctx, logger, fmt.Errorf("analyze: %w", err))
	}
	defer sess.release()

	outcomes, err := s.inference.Analyze(ctx, sess.token)
	if err != nil {
		s.fail(ctx, logger, fmt.Errorf("analyze: %w", err))
		return analysisFailed()
	}
	logger.Debug().Interface("outcomes", outcomes).Msg("analysis received")

	isCovid, err := s.evaluator.Evaluate(outcomes, DiseaseCovid19)
	if err != nil {
		s.fail(ctx, logger, fmt.Errorf("analyze: %w", err))
		return analysisFailed()
	}
	if isCovid {
		logger.Info().Str("result", "covid-19").Msg("screening finished")
		return seekMedicalAttention()
	}

	isOther, err := s.evaluator.Evaluate(outcomes, "")
	if err != nil {
		s.fail(ctx, logger, fmt.Errorf("analyze: %w", err))
		return analysisFailed()
	}
	if isOther {
		logger.Info().Str("result", "other").Msg("screening finished")
		return probablyNotCovid(s.opts.SeekAttentionTask)
	}

	logger.Info().Str("result", "clear").Msg("screening finished")
	return nothingToWorry()
}

// acceptSessionAndSeed opens an inference session for the user, stores its token
// and answers the lives-in-area question with "yes": reaching this point means the
// user lives in a risk zone.
func (s *service) acceptSessionAndSeed(ctx context.Context, rec *user.Record) error {
	token, err := s.inference.NewSession(ctx)
	if err != nil {
		return fmt.Errorf("new inference session: %w", err)
	}

	accepted, err := s.inference.AcceptTerms(ctx, token)
	if err != nil {
		return fmt.Errorf("accept terms: %w", err)
	}
	if !accepted {
		return ErrTermsRejected
	}

	rec.SetToken(token)
	if err := s.users.Update(ctx, rec); err != nil {
		return fmt.Errorf("store session token: %w", err)
	}

	feature, _ := FeatureFor(SymptomLivesInArea)
	ok, err := s.inference.AddFeature(ctx, token, feature, livesInAreaSeverity)
	if err != nil {
		s.resetToken(ctx, rec.PhoneNumber)
		return fmt.Errorf("seed %s: %w", SymptomLivesInArea, err)
	}
	if !ok {
		log.FromCtx(ctx).Warn().Str("phone", rec.PhoneNumber).Msg("provider rejected lives-in-area seed")
	}
	return nil
}

// activeSession is an inference session taken for analysis. release always clears
// the stored token.
type activeSession struct {
	svc   *service
	ctx   context.Context
	phone string
	token string
}

func (s *service) acquireSession(ctx context.Context, phone string) (*activeSession, error) {
	rec, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	token, ok := rec.Token()
	if !ok {
		return nil, ErrNoSession
	}
	return &activeSession{svc: s, ctx: ctx, phone: phone, token: token}, nil
}

func (a *activeSession) release() {
	a.svc.resetToken(a.ctx, a.phone)
}

func (s *service) resetToken(ctx context.Context, phone string) {
	// The request may already be cancelled; the token has to go regardless.
	ctx = context.WithoutCancel(ctx)

	rec, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		s.reporter.Capture(ctx, fmt.Errorf("reset session token: %w", err))
		return
	}
	rec.ClearToken()
	if err := s.users.Update(ctx, rec); err != nil {
		s.reporter.Capture(ctx, fmt.Errorf("reset session token: %w", err))
		return
	}
	log.FromCtx(ctx).Debug().Str("phone", phone).Msg("session token cleared")
}

// fail reports a collaborator failure and returns the fallback directive.
func (s *service) fail(ctx context.Context, logger *zerolog.Logger, err error) Directive {
	logger.Error().Err(err).Msg("screening step failed")
	s.reporter.Capture(ctx, err)
	return Fallback()
}

func stepLogger(ctx context.Context, step, phone string) *zerolog.Logger {
	l := log.FromCtx(ctx).With().
		Str("step", step).
		Str("phone", phone).
		Logger()
	return &l
}
