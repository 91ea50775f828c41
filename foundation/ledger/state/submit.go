package state

import (
	"context"
	"time"

	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/database"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/oracle"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/semantic"
	"github.com/kase1111-hash/NatLangChain-sub001/foundation/ledger/validate"
	"github.com/oklog/ulid/v2"
)

// Outcome classifies what happened to a submission. Ambiguous and
// unavailable are distinct from rejected so callers can tell "the content
// is bad" apart from "could not judge the content".
type Outcome string

// Set of submission outcomes.
const (
	OutcomeAccepted    Outcome = "accepted"
	OutcomeAmbiguous   Outcome = "ambiguous"
	OutcomeRejected    Outcome = "rejected"
	OutcomeUnavailable Outcome = "unavailable"
)

// SubmitOptions adjusts how a submission is processed.
type SubmitOptions struct {
	// DisableValidation skips the semantic review. Symbolic checks always
	// run; they protect the structural integrity of the chain itself.
	DisableValidation bool
}

// SubmitResult is the full validation trace returned for every submission.
// Rejections carry the specific issues or the per-voter semantic record,
// never a bare boolean.
type SubmitResult struct {
	Outcome Outcome                   `json:"outcome"`
	Queued  bool                      `json:"queued"`
	Entry   database.Entry            `json:"entry"`
	Record  database.ValidationRecord `json:"record"`
}

// Submit runs the validation pipeline on the specified entry and, on
// acceptance, appends it to the pending pool in arrival order. The oracle
// round trips run against a private copy of the entry and never hold the
// pool lock, so oracle latency cannot serialize unrelated writers.
func (s *State) Submit(ctx context.Context, entry database.Entry, opts SubmitOptions) (SubmitResult, error) {
	s.evHandler("state: Submit: started: author[%s]", entry.Author)
	defer s.evHandler("state: Submit: completed")

	entry.ID = ulid.Make().String()
	entry.TimeStamp = uint64(time.Now().UTC().Unix())
	entry.Status = database.StatusPending
	entry.Validation = nil

	record := database.ValidationRecord{
		Symbolic: validate.Check(entry, s.genesis.MaxContentLength),
	}

	if !record.Symbolic.Valid {
		s.evHandler("state: Submit: REJECTED: symbolic issues %v", record.Symbolic.Issues)

		entry.Status = database.StatusInvalid
		entry.Validation = &record
		return SubmitResult{Outcome: OutcomeRejected, Entry: entry, Record: record}, nil
	}

	// A derivative must reference existing, valid sealed entries before any
	// oracle call is spent on it.
	if len(entry.ParentRefs) > 0 {
		if err := s.db.ValidateParentRefs(entry.ParentRefs); err != nil {
			s.evHandler("state: Submit: REJECTED: %s", err)

			record.Symbolic.Valid = false
			record.Symbolic.Issues = append(record.Symbolic.Issues, err.Error())
			entry.Status = database.StatusInvalid
			entry.Validation = &record
			return SubmitResult{Outcome: OutcomeRejected, Entry: entry, Record: record}, nil
		}
	}

	if opts.DisableValidation || s.semantic == nil {
		entry.Status = database.StatusUnvalidated
		entry.Validation = &record
		return s.enqueue(entry, record, OutcomeAccepted)
	}

	semResult := s.semantic.Evaluate(ctx, entry.Content, entry.Intent)
	record.Semantic = &semResult

	switch oracle.Decision(semResult.Decision) {
	case oracle.DecisionValid:
		entry.Status = database.StatusValid
		entry.Validation = &record
		return s.enqueue(entry, record, OutcomeAccepted)

	case oracle.DecisionAmbiguous:
		// Ambiguity is queued but flagged for human resolution. Automation
		// never converts contested meaning into a final judgment.
		s.evHandler("state: Submit: AMBIGUOUS: flagged for human resolution")

		entry.Status = database.StatusAmbiguous
		entry.Validation = &record
		return s.enqueue(entry, record, OutcomeAmbiguous)

	default:
		entry.Status = database.StatusInvalid
		entry.Validation = &record

		outcome := OutcomeRejected
		if semResult.Reason == semantic.ReasonInsufficientValidators {
			outcome = OutcomeUnavailable
		}

		s.evHandler("state: Submit: REJECTED: semantic decision[%s] reason[%s]", semResult.Decision, semResult.Reason)

		return SubmitResult{Outcome: outcome, Entry: entry, Record: record}, nil
	}
}

// enqueue performs the final, fast step of a submission under the pool's
// own lock and signals the worker that there is something to mine.
func (s *State) enqueue(entry database.Entry, record database.ValidationRecord, outcome Outcome) (SubmitResult, error) {
	if _, err := s.pool.Upsert(entry); err != nil {
		return SubmitResult{}, err
	}

	s.evHandler("state: Submit: QUEUED: entry[%s] status[%s]", entry.ID, entry.Status)

	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return SubmitResult{Outcome: outcome, Queued: true, Entry: entry, Record: record}, nil
}
