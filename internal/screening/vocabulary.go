package screening

import (
	"fmt"
	"strings"
)

// Feature and severity codes understood by the Endless Medical API.

const (
	SymptomLivesInArea = "lives-in-area"
	DiseaseCovid19     = "covid-19"

	// livesInAreaSeverity is the provider value for "lives in a COVID-19 affected
	// area". It is not in answerSeverities because it collides with "severe".
	livesInAreaSeverity = "5"
)

var symptomFeatures = map[string]string{
	SymptomLivesInArea:    "CovidAffectedArea",
	"contact-with-case":   "CovidCloseContact",
	"fever":               "SubjectiveFever",
	"dry-cough":           "SeverityCough",
	"shortness-of-breath": "DyspneaSeverity",
	"fatigue":             "GeneralizedFatigue",
	"sore-throat":         "SoreThroatROS",
	"headache":            "HeadacheIntensity",
	"muscle-pain":         "MyalgiaSeverity",
	"diarrhea":            "DiarrheaSx",
	"loss-of-smell":       "Anosmia",
}

var answerSeverities = map[string]string{
	"no":       "1",
	"none":     "1",
	"mild":     "2",
	"moderate": "3",
	"yes":      "4",
	"severe":   "5",
}

var diseaseNames = map[string]string{
	DiseaseCovid19: "COVID-19",
	"influenza":    "Influenza",
	"common-cold":  "Common cold",
	"pneumonia":    "Pneumonia",
}

func FeatureFor(symptomID string) (string, error) {
	f, ok := symptomFeatures[symptomID]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSymptom, symptomID)
	}
	return f, nil
}

// SeverityFor maps a free-form answer to a severity code, ignoring case and
// surrounding whitespace.
func SeverityFor(answer string) (string, error) {
	s, ok := answerSeverities[NormalizeAnswer(answer)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAnswer, answer)
	}
	return s, nil
}

func DiseaseName(key string) (string, bool) {
	n, ok := diseaseNames[key]
	return n, ok
}

func NormalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}
