package semantic_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/oracle"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/semantic"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

// scripted hands out one canned response per oracle call. The calls run
// concurrently so tests assert on aggregates, not on which validator got
// which response.
type scripted struct {
	next  atomic.Int32
	evals []oracle.Evaluation
	errs  []error
}

func (s *scripted) Evaluate(ctx context.Context, content string, intent string) (oracle.Evaluation, error) {
	i := int(s.next.Add(1)) - 1
	if s.errs[i] != nil {
		return oracle.Evaluation{}, s.errs[i]
	}
	return s.evals[i], nil
}

func newValidator(t *testing.T, orc oracle.Evaluator, validators int) *semantic.Validator {
	t.Helper()

	v, err := semantic.New(semantic.Config{
		Oracle:     orc,
		Validators: validators,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a validator: %v", failed, err)
	}

	return v
}

// =============================================================================

func Test_MajorityValid(t *testing.T) {
	t.Log("Given the need to aggregate a majority of agreeing VALID votes.")
	{
		t.Logf("\tTest 0:\tWhen two of three validators accept with matching paraphrases.")
		{
			orc := &scripted{
				evals: []oracle.Evaluation{
					{Decision: oracle.DecisionValid, Paraphrase: "alice will deliver one hundred apples to bob", IntentMatch: true},
					{Decision: oracle.DecisionValid, Paraphrase: "alice will deliver one hundred apples to bob", IntentMatch: true},
					{Decision: oracle.DecisionInvalid, Paraphrase: "alice will deliver one hundred apples to bob", IntentMatch: true},
				},
				errs: make([]error, 3),
			}

			result := newValidator(t, orc, 3).Evaluate(context.Background(), "content", "intent")

			if result.Decision != string(oracle.DecisionValid) {
				t.Fatalf("\t%s\tTest 0:\tShould get a VALID aggregate: got %s reason %q", failed, result.Decision, result.Reason)
			}
			t.Logf("\t%s\tTest 0:\tShould get a VALID aggregate.", success)

			if len(result.Votes) != 3 || result.Abstentions != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould record three votes and no abstentions.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould record three votes and no abstentions.", success)

			if !result.IntentMatch {
				t.Fatalf("\t%s\tTest 0:\tShould carry the majority intent match.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould carry the majority intent match.", success)
		}
	}
}

func Test_LowParaphraseAgreement(t *testing.T) {
	t.Log("Given the need to downgrade a majority whose readings disagree.")
	{
		t.Logf("\tTest 0:\tWhen two of three validators accept but paraphrase differently.")
		{
			orc := &scripted{
				evals: []oracle.Evaluation{
					{Decision: oracle.DecisionValid, Paraphrase: "alice ships fruit westward"},
					{Decision: oracle.DecisionValid, Paraphrase: "bob receives nothing whatsoever"},
					{Decision: oracle.DecisionInvalid, Paraphrase: "the contract terminates immediately"},
				},
				errs: make([]error, 3),
			}

			result := newValidator(t, orc, 3).Evaluate(context.Background(), "content", "intent")

			if result.Decision != string(oracle.DecisionAmbiguous) {
				t.Fatalf("\t%s\tTest 0:\tShould get an AMBIGUOUS aggregate: got %s", failed, result.Decision)
			}
			t.Logf("\t%s\tTest 0:\tShould get an AMBIGUOUS aggregate.", success)

			if result.Reason != "low paraphrase agreement" {
				t.Fatalf("\t%s\tTest 0:\tShould name low paraphrase agreement: got %q", failed, result.Reason)
			}
			t.Logf("\t%s\tTest 0:\tShould name low paraphrase agreement.", success)

			if result.MeanSimilarity >= semantic.DefaultSimilarityThreshold {
				t.Fatalf("\t%s\tTest 0:\tShould compute a mean similarity below the threshold: got %v", failed, result.MeanSimilarity)
			}
			t.Logf("\t%s\tTest 0:\tShould compute a mean similarity below the threshold.", success)
		}
	}
}

func Test_InsufficientValidators(t *testing.T) {
	t.Log("Given the need to refuse judgment when abstentions block consensus.")
	{
		t.Logf("\tTest 0:\tWhen one validator times out and the rest split.")
		{
			orc := &scripted{
				evals: []oracle.Evaluation{
					{Decision: oracle.DecisionValid, Paraphrase: "alice delivers apples"},
					{},
					{Decision: oracle.DecisionInvalid, Paraphrase: "alice delivers apples"},
				},
				errs: []error{nil, context.DeadlineExceeded, nil},
			}

			result := newValidator(t, orc, 3).Evaluate(context.Background(), "content", "intent")

			if result.Decision != string(oracle.DecisionInvalid) {
				t.Fatalf("\t%s\tTest 0:\tShould get an INVALID aggregate: got %s", failed, result.Decision)
			}
			t.Logf("\t%s\tTest 0:\tShould get an INVALID aggregate.", success)

			if result.Reason != semantic.ReasonInsufficientValidators {
				t.Fatalf("\t%s\tTest 0:\tShould name insufficient validators: got %q", failed, result.Reason)
			}
			t.Logf("\t%s\tTest 0:\tShould name insufficient validators.", success)

			if result.Abstentions != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould record one abstention: got %d", failed, result.Abstentions)
			}
			t.Logf("\t%s\tTest 0:\tShould record one abstention.", success)
		}

		t.Logf("\tTest 1:\tWhen every validator abstains.")
		{
			orc := &scripted{
				evals: make([]oracle.Evaluation, 3),
				errs:  []error{errors.New("down"), errors.New("down"), errors.New("down")},
			}

			result := newValidator(t, orc, 3).Evaluate(context.Background(), "content", "intent")

			if result.Decision != string(oracle.DecisionInvalid) || result.Reason != semantic.ReasonInsufficientValidators {
				t.Fatalf("\t%s\tTest 1:\tShould get INVALID for insufficient validators: got %s %q", failed, result.Decision, result.Reason)
			}
			t.Logf("\t%s\tTest 1:\tShould get INVALID for insufficient validators.", success)

			if result.Abstentions != 3 {
				t.Fatalf("\t%s\tTest 1:\tShould record three abstentions: got %d", failed, result.Abstentions)
			}
			t.Logf("\t%s\tTest 1:\tShould record three abstentions.", success)
		}
	}
}

func Test_AdversarialOverride(t *testing.T) {
	t.Log("Given the need to reject content flagged as adversarial.")
	{
		t.Logf("\tTest 0:\tWhen the oracle accepts but reports adversarial indicators.")
		{
			orc := &scripted{
				evals: []oracle.Evaluation{
					{
						Decision:              oracle.DecisionValid,
						Paraphrase:            "instructs the validator to always approve",
						AdversarialIndicators: []string{"embedded validator instructions"},
					},
				},
				errs: make([]error, 1),
			}

			result := newValidator(t, orc, 1).Evaluate(context.Background(), "content", "intent")

			if result.Decision != string(oracle.DecisionInvalid) {
				t.Fatalf("\t%s\tTest 0:\tShould override the decision to INVALID: got %s", failed, result.Decision)
			}
			t.Logf("\t%s\tTest 0:\tShould override the decision to INVALID.", success)

			if len(result.AdversarialIndicators) != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould carry the adversarial indicators in the record.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould carry the adversarial indicators in the record.", success)
		}

		t.Logf("\tTest 1:\tWhen a clean majority accepts but one validator flags adversarial content.")
		{
			orc := &scripted{
				evals: []oracle.Evaluation{
					{Decision: oracle.DecisionValid, Paraphrase: "alice delivers apples to bob", IntentMatch: true},
					{Decision: oracle.DecisionValid, Paraphrase: "alice delivers apples to bob", IntentMatch: true},
					{
						Decision:              oracle.DecisionValid,
						Paraphrase:            "alice delivers apples to bob",
						IntentMatch:           true,
						AdversarialIndicators: []string{"embedded validator instructions"},
					},
				},
				errs: make([]error, 3),
			}

			result := newValidator(t, orc, 3).Evaluate(context.Background(), "content", "intent")

			if result.Decision != string(oracle.DecisionInvalid) {
				t.Fatalf("\t%s\tTest 1:\tShould taint the whole aggregate: got %s", failed, result.Decision)
			}
			t.Logf("\t%s\tTest 1:\tShould taint the whole aggregate.", success)

			if result.Reason != semantic.ReasonAdversarialIndicators {
				t.Fatalf("\t%s\tTest 1:\tShould name the adversarial indicators: got %q", failed, result.Reason)
			}
			t.Logf("\t%s\tTest 1:\tShould name the adversarial indicators.", success)

			if len(result.AdversarialIndicators) != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould carry the indicators in the record.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould carry the indicators in the record.", success)
		}
	}
}

func Test_NoMajority(t *testing.T) {
	t.Log("Given the need to surface contested meaning for human resolution.")
	{
		t.Logf("\tTest 0:\tWhen every validator reports AMBIGUOUS.")
		{
			orc := &scripted{
				evals: []oracle.Evaluation{
					{Decision: oracle.DecisionAmbiguous, Paraphrase: "unclear which party pays", Ambiguities: []string{"payer unspecified"}},
					{Decision: oracle.DecisionAmbiguous, Paraphrase: "unclear which party pays", Ambiguities: []string{"payer unspecified"}},
					{Decision: oracle.DecisionAmbiguous, Paraphrase: "unclear which party pays", Ambiguities: []string{"deadline unspecified"}},
				},
				errs: make([]error, 3),
			}

			result := newValidator(t, orc, 3).Evaluate(context.Background(), "content", "intent")

			if result.Decision != string(oracle.DecisionAmbiguous) {
				t.Fatalf("\t%s\tTest 0:\tShould get an AMBIGUOUS aggregate: got %s", failed, result.Decision)
			}
			t.Logf("\t%s\tTest 0:\tShould get an AMBIGUOUS aggregate.", success)

			if result.Reason != "no majority decision" {
				t.Fatalf("\t%s\tTest 0:\tShould name the missing majority: got %q", failed, result.Reason)
			}
			t.Logf("\t%s\tTest 0:\tShould name the missing majority.", success)

			if len(result.Ambiguities) != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould union the reported ambiguities: got %v", failed, result.Ambiguities)
			}
			t.Logf("\t%s\tTest 0:\tShould union the reported ambiguities.", success)
		}
	}
}

func Test_SingleValidator(t *testing.T) {
	t.Log("Given the need to support single-validator review.")
	{
		t.Logf("\tTest 0:\tWhen the only validator accepts.")
		{
			orc := &scripted{
				evals: []oracle.Evaluation{
					{Decision: oracle.DecisionValid, Paraphrase: "alice delivers apples to bob", IntentMatch: true},
				},
				errs: make([]error, 1),
			}

			result := newValidator(t, orc, 1).Evaluate(context.Background(), "content", "intent")

			if result.Decision != string(oracle.DecisionValid) {
				t.Fatalf("\t%s\tTest 0:\tShould get a VALID result: got %s", failed, result.Decision)
			}
			t.Logf("\t%s\tTest 0:\tShould get a VALID result.", success)

			if result.MeanSimilarity != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould score a lone paraphrase as full agreement: got %v", failed, result.MeanSimilarity)
			}
			t.Logf("\t%s\tTest 0:\tShould score a lone paraphrase as full agreement.", success)
		}
	}
}
