// Package semantic wraps the oracle behind the ledger's consensus rules:
// a single review or a multi-validator vote whose determinism is recovered
// from the oracle's stochastic output by aggregation. Contested meaning is
// surfaced as AMBIGUOUS for human resolution, never adjudicated here.
package semantic

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/database"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/oracle"
)

// ReasonInsufficientValidators marks a result where abstentions left too
// few live votes to judge the content. Operators can distinguish this from
// "the content is bad".
const ReasonInsufficientValidators = "insufficient validators"

// ReasonAdversarialIndicators marks a result rejected because at least one
// validator flagged adversarial content, regardless of the vote tally.
const ReasonAdversarialIndicators = "adversarial indicators"

// DefaultSimilarityThreshold is the minimum mean pairwise paraphrase
// similarity for a VALID aggregate when the genesis file does not specify
// one. Deployment policy, not protocol.
const DefaultSimilarityThreshold = 0.55

// Config represents the configuration required to construct a Validator.
type Config struct {
	Oracle              oracle.Evaluator
	Validators          int
	SimilarityThreshold float64
	CallTimeout         time.Duration
	EvHandler           func(v string, args ...any)
}

// Validator aggregates one or more oracle calls into a semantic result.
type Validator struct {
	oracle     oracle.Evaluator
	validators int
	threshold  float64
	timeout    time.Duration
	ev         func(v string, args ...any)
}

// New constructs a Validator from the specified configuration.
func New(cfg Config) (*Validator, error) {
	if cfg.Oracle == nil {
		return nil, fmt.Errorf("an oracle evaluator is required")
	}

	validators := cfg.Validators
	if validators < 1 {
		validators = 1
	}

	threshold := cfg.SimilarityThreshold
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = oracle.DefaultTimeout
	}

	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	return &Validator{
		oracle:     cfg.Oracle,
		validators: validators,
		threshold:  threshold,
		timeout:    timeout,
		ev:         ev,
	}, nil
}

// Evaluate runs the configured number of independent oracle calls on the
// content and aggregates them into a single semantic result. Oracle errors
// and timeouts are abstentions, not votes.
func (v *Validator) Evaluate(ctx context.Context, content string, intent string) database.SemanticResult {
	evals := v.collect(ctx, content, intent)

	votes := make([]database.Vote, 0, len(evals))
	var paraphrases []string
	var intentMatches int
	ambiguities := make(map[string]bool)
	adversarial := make(map[string]bool)

	for _, ev := range evals {
		decision := ev.eval.Decision

		// A vote carrying adversarial indicators is counted as INVALID no
		// matter what its top-level decision claims.
		if len(ev.eval.AdversarialIndicators) > 0 {
			decision = oracle.DecisionInvalid
		}

		votes = append(votes, database.Vote{
			Validator:  ev.validator,
			Decision:   string(decision),
			Paraphrase: ev.eval.Paraphrase,
		})
		paraphrases = append(paraphrases, ev.eval.Paraphrase)

		if ev.eval.IntentMatch {
			intentMatches++
		}
		for _, a := range ev.eval.Ambiguities {
			ambiguities[a] = true
		}
		for _, a := range ev.eval.AdversarialIndicators {
			adversarial[a] = true
		}
	}

	live := len(votes)
	abstentions := v.validators - live
	quorum := v.validators/2 + 1

	result := database.SemanticResult{
		IntentMatch:           intentMatches > live/2,
		Ambiguities:           sortedKeys(ambiguities),
		AdversarialIndicators: sortedKeys(adversarial),
		Votes:                 votes,
		MeanSimilarity:        MeanPairwise(paraphrases),
		Abstentions:           abstentions,
	}

	if live > 0 {
		result.Paraphrase = votes[0].Paraphrase
	}

	// Abstentions below quorum mean we could not judge the content at all.
	if live < quorum {
		result.Decision = string(oracle.DecisionInvalid)
		result.Reason = ReasonInsufficientValidators
		return result
	}

	// One validator detecting adversarial content taints the whole
	// aggregate, not only the vote that carried the indicator.
	if len(result.AdversarialIndicators) > 0 {
		result.Decision = string(oracle.DecisionInvalid)
		result.Reason = ReasonAdversarialIndicators
		return result
	}

	var countValid, countInvalid int
	for _, vote := range votes {
		switch oracle.Decision(vote.Decision) {
		case oracle.DecisionValid:
			countValid++
		case oracle.DecisionInvalid:
			countInvalid++
		}
	}

	switch {
	case countValid >= quorum:
		// A majority accepts, but low agreement on meaning downgrades the
		// result rather than letting near-miss semantic drift through.
		if result.MeanSimilarity >= v.threshold {
			result.Decision = string(oracle.DecisionValid)
			break
		}
		result.Decision = string(oracle.DecisionAmbiguous)
		result.Reason = "low paraphrase agreement"

	case countInvalid >= quorum:
		result.Decision = string(oracle.DecisionInvalid)

	case abstentions > 0:
		// No decision reached quorum and abstentions could have tipped it.
		result.Decision = string(oracle.DecisionInvalid)
		result.Reason = ReasonInsufficientValidators

	default:
		result.Decision = string(oracle.DecisionAmbiguous)
		result.Reason = "no majority decision"
	}

	return result
}

// =============================================================================

// collected pairs a validator index with its evaluation.
type collected struct {
	validator int
	eval      oracle.Evaluation
}

// collect runs the configured number of oracle calls concurrently, each
// individually bounded, so a hung call never blocks the others.
func (v *Validator) collect(ctx context.Context, content string, intent string) []collected {
	results := make(chan collected, v.validators)

	var wg sync.WaitGroup
	wg.Add(v.validators)

	for i := 0; i < v.validators; i++ {
		go func(validator int) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, v.timeout)
			defer cancel()

			eval, err := v.oracle.Evaluate(callCtx, content, intent)
			if err != nil {
				v.ev("semantic: collect: validator[%d]: ABSTAINED: %s", validator, err)
				return
			}

			results <- collected{validator: validator, eval: eval}
		}(i)
	}

	wg.Wait()
	close(results)

	var evals []collected
	for result := range results {
		evals = append(evals, result)
	}

	sort.Slice(evals, func(i, j int) bool {
		return evals[i].validator < evals[j].validator
	})

	return evals
}

// sortedKeys returns the set keys in a stable order for the record.
func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}

	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}
