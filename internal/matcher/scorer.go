package matcher

import (
	"errors"

	"fjacquet/camt-recon/internal/models"
	"fjacquet/camt-recon/internal/reconerror"

	"github.com/shopspring/decimal"
)

// ExactConfidence is the lowest confidence reported as an exact match.
const ExactConfidence = 0.95

// confidencePlaces is the rounding applied to confidence before the match type is derived.
const confidencePlaces = 2

// Scorer evaluates transaction/payment pairs. It is stateless and safe for concurrent use.
type Scorer struct{}

// NewScorer creates a Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score compares tx with p on amount, date, reference and counterparty name.
//
// The match is returned whatever its confidence; acceptance is up to the caller.
// When a field cannot be evaluated (non-finite amount, missing date) Score returns
// a zero-confidence fuzzy match together with a *reconerror.ComputationError.
func (s *Scorer) Score(tx *models.BankTransaction, p *models.Payment) (models.ReconciliationMatch, error) {
	match := models.ReconciliationMatch{
		PaymentID:     p.ID,
		TransactionID: tx.ID,
		MatchType:     models.MatchFuzzy,
		Criteria:      []models.MatchCriterion{},
		Discrepancies: []models.Discrepancy{},
	}

	amount, err := MatchAmount(tx, p)
	if err != nil {
		return match, pairError(tx, p, err)
	}
	date, err := MatchDate(tx, p)
	if err != nil {
		return match, pairError(tx, p, err)
	}
	results := []FieldResult{amount, date, MatchReference(tx, p), MatchCounterparty(tx, p)}

	total, matched := decimal.Zero, decimal.Zero
	for _, r := range results {
		w := decimal.NewFromFloat(r.Criterion.Weight)
		total = total.Add(w)
		if r.Criterion.Match {
			matched = matched.Add(w)
		}
		match.Criteria = append(match.Criteria, r.Criterion)
		if r.Discrepancy != nil {
			match.Discrepancies = append(match.Discrepancies, *r.Discrepancy)
		}
	}

	match.Confidence = Confidence(matched, total)
	if match.Confidence >= ExactConfidence {
		match.MatchType = models.MatchExact
	}
	return match, nil
}

// Confidence normalizes matched weight by total weight, rounded to two decimals.
// A zero total yields zero.
func Confidence(matched, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	c, _ := matched.DivRound(total, confidencePlaces+4).Round(confidencePlaces).Float64()
	return c
}

func pairError(tx *models.BankTransaction, p *models.Payment, err error) error {
	ce := &reconerror.ComputationError{TransactionID: tx.ID, PaymentID: p.ID, Err: err}
	var fe *fieldError
	if errors.As(err, &fe) {
		ce.Field = fe.field
		ce.Err = fe.err
	}
	return ce
}
