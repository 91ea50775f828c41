// Package oracle defines the contract the ledger requires of the external
// semantic-judgment capability and provides an HTTP client for it. The
// oracle's judgment is advisory input aggregated by the protocol, never
// proven ground truth.
package oracle

import (
	"context"
	"fmt"
)

// Decision is the oracle's top-level judgment on an entry.
type Decision string

// Set of decisions an oracle response can carry.
const (
	DecisionValid     Decision = "VALID"
	DecisionInvalid   Decision = "INVALID"
	DecisionAmbiguous Decision = "AMBIGUOUS"
)

// Evaluation is the structured response of one oracle call.
type Evaluation struct {
	Paraphrase            string   `json:"paraphrase"`
	IntentMatch           bool     `json:"intent_match"`
	Ambiguities           []string `json:"ambiguities"`
	AdversarialIndicators []string `json:"adversarial_indicators"`
	Decision              Decision `json:"decision"`
}

// validate reports whether the response carries the required fields. A
// response missing them is treated by callers as an abstention, never as
// implicit acceptance.
func (e Evaluation) validate() error {
	switch e.Decision {
	case DecisionValid, DecisionInvalid, DecisionAmbiguous:
	default:
		return fmt.Errorf("response is missing a recognized decision, got %q", e.Decision)
	}

	if e.Paraphrase == "" {
		return fmt.Errorf("response is missing a paraphrase")
	}

	return nil
}

// =============================================================================

// Evaluator represents the behavior required of any semantic oracle: one
// call judging a statement against its declared intent. Errors and timeouts
// count as abstentions in the consensus protocol.
type Evaluator interface {
	Evaluate(ctx context.Context, content string, intent string) (Evaluation, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, content string, intent string) (Evaluation, error)

// Evaluate implements the Evaluator interface.
func (f EvaluatorFunc) Evaluate(ctx context.Context, content string, intent string) (Evaluation, error) {
	return f(ctx, content, intent)
}
