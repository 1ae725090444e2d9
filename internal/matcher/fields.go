// Package matcher compares a bank transaction with a payment field by field and
// folds the results into a weighted confidence score.
package matcher

import (
	"errors"
	"fmt"

	"fjacquet/camt-recon/internal/dateutils"
	"fjacquet/camt-recon/internal/models"
	"fjacquet/camt-recon/internal/textutils"

	"github.com/shopspring/decimal"
)

// Field weights. They are engine constants and are never read from configuration.
const (
	WeightAmount           = 0.40
	WeightDate             = 0.25
	WeightReference        = 0.20
	WeightCounterpartyName = 0.15
)

// Field thresholds.
const (
	DateToleranceDays        = 3
	ReferenceSimilarity      = 0.8
	CounterpartySimilarity   = 0.7
	majorAmountDifference    = 100
	criticalAmountDifference = 1000
	majorDateDifferenceDays  = 7
)

var amountTolerance = decimal.RequireFromString("0.01")

var (
	errNonFiniteAmount = errors.New("amount is not a finite number")
	errMissingDate     = errors.New("date is missing or unparseable")
)

// FieldResult is the outcome of one field comparison. Discrepancy is set only
// when the criterion did not match.
type FieldResult struct {
	Criterion   models.MatchCriterion
	Discrepancy *models.Discrepancy
}

// fieldError carries the failing field up to the scorer, which attaches the pair ids.
type fieldError struct {
	field string
	err   error
}

func (e *fieldError) Error() string { return fmt.Sprintf("%s: %v", e.field, e.err) }

// MatchAmount matches when the amounts differ by less than one cent.
func MatchAmount(tx *models.BankTransaction, p *models.Payment) (FieldResult, error) {
	if !models.IsFiniteAmount(tx.Amount) || !models.IsFiniteAmount(p.Amount) {
		return FieldResult{}, &fieldError{field: models.FieldAmount, err: errNonFiniteAmount}
	}

	diff := decimal.NewFromFloat(tx.Amount).Sub(decimal.NewFromFloat(p.Amount)).Abs()
	res := FieldResult{Criterion: models.MatchCriterion{
		Field:            models.FieldAmount,
		PaymentValue:     p.Amount,
		TransactionValue: tx.Amount,
		Match:            diff.LessThan(amountTolerance),
		Weight:           WeightAmount,
	}}
	if !res.Criterion.Match {
		res.Discrepancy = discrepancy(res.Criterion, amountSeverity(diff),
			fmt.Sprintf("Amount mismatch: payment %.2f vs transaction %.2f (difference %s)",
				p.Amount, tx.Amount, diff.StringFixed(2)))
	}
	return res, nil
}

// MatchDate matches when the value date is within DateToleranceDays of the execution date.
func MatchDate(tx *models.BankTransaction, p *models.Payment) (FieldResult, error) {
	if tx.ValueDate.IsZero() || p.ExecutionDate.IsZero() {
		return FieldResult{}, &fieldError{field: models.FieldDate, err: errMissingDate}
	}

	res := FieldResult{Criterion: models.MatchCriterion{
		Field:            models.FieldDate,
		PaymentValue:     p.ExecutionDate,
		TransactionValue: tx.ValueDate,
		Match:            dateutils.WithinDays(tx.ValueDate, p.ExecutionDate, DateToleranceDays),
		Weight:           WeightDate,
	}}
	if !res.Criterion.Match {
		days := dateutils.DaysApart(tx.ValueDate, p.ExecutionDate)
		res.Discrepancy = discrepancy(res.Criterion, dateSeverity(days),
			fmt.Sprintf("Date mismatch: executed %s, booked %s (%.1f days apart)",
				dateutils.ToISODate(p.ExecutionDate), dateutils.ToISODate(tx.ValueDate), days))
	}
	return res, nil
}

// MatchReference matches on reference similarity above ReferenceSimilarity.
func MatchReference(tx *models.BankTransaction, p *models.Payment) FieldResult {
	return matchText(models.FieldReference, p.Reference, tx.Reference, ReferenceSimilarity, WeightReference)
}

// MatchCounterparty matches the counterparty name against the beneficiary name.
func MatchCounterparty(tx *models.BankTransaction, p *models.Payment) FieldResult {
	return matchText(models.FieldCounterpartyName, p.BeneficiaryName, tx.CounterpartyName,
		CounterpartySimilarity, WeightCounterpartyName)
}

func matchText(field, paymentValue, txValue string, threshold, weight float64) FieldResult {
	sim := textutils.Similarity(txValue, paymentValue)
	res := FieldResult{Criterion: models.MatchCriterion{
		Field:            field,
		PaymentValue:     paymentValue,
		TransactionValue: txValue,
		Match:            sim > threshold,
		Weight:           weight,
	}}
	if !res.Criterion.Match {
		res.Discrepancy = discrepancy(res.Criterion, models.DiscrepancyMinor,
			fmt.Sprintf("Mismatch in %s: %q vs %q (similarity %.2f)", field, paymentValue, txValue, sim))
	}
	return res
}

func discrepancy(c models.MatchCriterion, sev models.DiscrepancySeverity, desc string) *models.Discrepancy {
	return &models.Discrepancy{
		Field:            c.Field,
		PaymentValue:     c.PaymentValue,
		TransactionValue: c.TransactionValue,
		Severity:         sev,
		Description:      desc,
	}
}

func amountSeverity(diff decimal.Decimal) models.DiscrepancySeverity {
	switch {
	case diff.GreaterThan(decimal.NewFromInt(criticalAmountDifference)):
		return models.DiscrepancyCritical
	case diff.GreaterThan(decimal.NewFromInt(majorAmountDifference)):
		return models.DiscrepancyMajor
	default:
		return models.DiscrepancyMinor
	}
}

func dateSeverity(days float64) models.DiscrepancySeverity {
	if days > majorDateDifferenceDays {
		return models.DiscrepancyMajor
	}
	return models.DiscrepancyMinor
}
