package screening

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Evaluator checks ranked outcomes against a confidence threshold.
type Evaluator struct {
	threshold decimal.Decimal
}

func NewEvaluator(threshold float64) Evaluator {
	return Evaluator{threshold: decimal.NewFromFloat(threshold)}
}

// Evaluate reports whether an outcome for target (or for any disease when target
// is empty) reaches the threshold. Diseases match by key or by provider name,
// ignoring case. Confidences are parsed in order and the first
// unparsable one before a match fails the whole evaluation.
func (e Evaluator) Evaluate(outcomes []Outcome, target string) (bool, error) {
	for _, o := range outcomes {
		confidence, err := parseConfidence(o.Confidence)
		if err != nil {
			return false, fmt.Errorf("%w: %q for %q", ErrInvalidConfidence, o.Confidence, o.Disease)
		}
		if target != "" && !sameDisease(o.Disease, target) {
			continue
		}
		if confidence.GreaterThanOrEqual(e.threshold) {
			return true, nil
		}
	}
	return false, nil
}

func parseConfidence(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(raw))
}

func sameDisease(a, b string) bool {
	return strings.EqualFold(canonicalDisease(a), canonicalDisease(b))
}

// canonicalDisease maps a known disease key to its provider name.
func canonicalDisease(d string) string {
	d = strings.TrimSpace(d)
	if name, ok := DiseaseName(strings.ToLower(d)); ok {
		return name
	}
	return d
}
