package reconciler

import (
	"context"
	"fmt"

	"fjacquet/camt-recon/internal/audit"
	"fjacquet/camt-recon/internal/logging"
	"fjacquet/camt-recon/internal/models"
	"fjacquet/camt-recon/internal/reconerror"

	"github.com/google/uuid"
)

// ExceptionInput describes an operator-created exception.
type ExceptionInput struct {
	StatementID      string                   `json:"statement_id,omitempty" yaml:"statement_id,omitempty"`
	Type             models.ExceptionType     `json:"type" yaml:"type"`
	PaymentID        string                   `json:"payment_id,omitempty" yaml:"payment_id,omitempty"`
	TransactionID    string                   `json:"transaction_id,omitempty" yaml:"transaction_id,omitempty"`
	Description      string                   `json:"description" yaml:"description"`
	Severity         models.ExceptionSeverity `json:"severity,omitempty" yaml:"severity,omitempty"`
	SuggestedActions []string                 `json:"suggested_actions,omitempty" yaml:"suggested_actions,omitempty"`
}

// ListExceptions returns the exceptions matching filter.
func (s *Service) ListExceptions(ctx context.Context, filter models.ExceptionFilter) ([]models.ReconciliationException, error) {
	exceptions, err := s.repo.ListExceptions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list exceptions: %w", err)
	}
	return exceptions, nil
}

// ResolveException closes an open or investigating exception with a resolution note.
// Resolving an exception that is already resolved or ignored is a state error and
// changes nothing.
func (s *Service) ResolveException(ctx context.Context, id, resolution, actorID string) (*models.ReconciliationException, error) {
	return s.transition(ctx, id, models.ExceptionResolved, resolution, actorID, true)
}

// InvestigateException marks an open exception as under investigation.
func (s *Service) InvestigateException(ctx context.Context, id, actorID string) (*models.ReconciliationException, error) {
	return s.transition(ctx, id, models.ExceptionInvestigating, "", actorID, false)
}

// IgnoreException closes an exception without resolving it.
func (s *Service) IgnoreException(ctx context.Context, id, reason, actorID string) (*models.ReconciliationException, error) {
	return s.transition(ctx, id, models.ExceptionIgnored, reason, actorID, true)
}

func (s *Service) transition(ctx context.Context, id string, to models.ExceptionStatus, note, actorID string, noteRequired bool) (*models.ReconciliationException, error) {
	if err := reconerror.Required("actor id", actorID); err != nil {
		return nil, err
	}
	if err := reconerror.Required("exception id", id); err != nil {
		return nil, err
	}
	if noteRequired {
		if err := reconerror.Required("resolution", note); err != nil {
			return nil, err
		}
	}

	exc, err := s.repo.GetException(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load exception %s: %w", id, err)
	}
	from := exc.Status
	if !from.CanTransitionTo(to) {
		return nil, &reconerror.StateError{Entity: entityException, ID: id, From: string(from), To: string(to)}
	}

	updated := *exc
	updated.Status = to
	if to.Closed() {
		now := s.now()
		updated.ResolvedAt = &now
		updated.ResolvedBy = actorID
		updated.Resolution = note
	}
	if err := s.repo.SaveException(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to save exception %s: %w", id, err)
	}

	action := audit.ActionExceptionStatusChanged
	if to == models.ExceptionResolved {
		action = audit.ActionExceptionResolved
	}
	payload := audit.Payload{"from": string(from), "to": string(to)}
	if note != "" {
		payload["resolution"] = note
	}
	if err := s.sink.Emit(ctx, audit.NewRecord(action, entityException, id, actorID, s.now(), payload)); err != nil {
		return nil, fmt.Errorf("exception %s updated but audit emission failed: %w", id, err)
	}

	s.logger.Info("Exception status changed",
		logging.F(logging.FieldExceptionID, id),
		logging.F(logging.FieldActorID, actorID),
		logging.F(logging.FieldStatus, to))
	return &updated, nil
}

// CreateException records an operator-raised exception in the open state.
// Referenced statement, transaction and payment must exist.
func (s *Service) CreateException(ctx context.Context, in ExceptionInput, actorID string) (*models.ReconciliationException, error) {
	if err := reconerror.Required("actor id", actorID); err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, &reconerror.InputError{Field: "type", Reason: fmt.Sprintf("unknown exception type %q", in.Type)}
	}
	if err := reconerror.Required("description", in.Description); err != nil {
		return nil, err
	}
	if in.Severity == "" {
		in.Severity = models.SeverityMedium
	}
	if !in.Severity.Valid() {
		return nil, &reconerror.InputError{Field: "severity", Reason: fmt.Sprintf("unknown severity %q", in.Severity)}
	}

	if in.TransactionID != "" {
		stmt, err := s.repo.GetStatementByTransaction(ctx, in.TransactionID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve transaction %s: %w", in.TransactionID, err)
		}
		if in.StatementID != "" && in.StatementID != stmt.ID {
			return nil, &reconerror.InputError{Field: "transaction id",
				Reason: fmt.Sprintf("transaction %s does not belong to statement %s", in.TransactionID, in.StatementID)}
		}
		in.StatementID = stmt.ID
	} else if in.StatementID != "" {
		if _, err := s.repo.GetStatement(ctx, in.StatementID); err != nil {
			return nil, fmt.Errorf("failed to resolve statement %s: %w", in.StatementID, err)
		}
	}
	if in.PaymentID != "" {
		if _, err := s.payments.GetPayment(ctx, in.PaymentID); err != nil {
			return nil, fmt.Errorf("failed to resolve payment %s: %w", in.PaymentID, err)
		}
	}

	actions := in.SuggestedActions
	if len(actions) == 0 {
		actions = defaultActions(in.Type)
	}
	exc := &models.ReconciliationException{
		ID:               uuid.NewString(),
		StatementID:      in.StatementID,
		Type:             in.Type,
		PaymentID:        in.PaymentID,
		TransactionID:    in.TransactionID,
		Description:      in.Description,
		Severity:         in.Severity,
		SuggestedActions: actions,
		Status:           models.ExceptionOpen,
		CreatedAt:        s.now(),
		CreatedBy:        actorID,
	}
	if err := s.repo.SaveException(ctx, exc); err != nil {
		return nil, fmt.Errorf("failed to save exception: %w", err)
	}
	if err := s.sink.Emit(ctx, audit.NewRecord(audit.ActionExceptionCreated, entityException, exc.ID, actorID, exc.CreatedAt, audit.Payload{
		"statement_id":   exc.StatementID,
		"type":           string(exc.Type),
		"severity":       string(exc.Severity),
		"transaction_id": exc.TransactionID,
		"payment_id":     exc.PaymentID,
	})); err != nil {
		return nil, fmt.Errorf("exception %s created but audit emission failed: %w", exc.ID, err)
	}

	s.logger.Info("Exception created",
		logging.F(logging.FieldExceptionID, exc.ID),
		logging.F(logging.FieldActorID, actorID))
	return exc, nil
}

func defaultActions(t models.ExceptionType) []string {
	switch t {
	case models.ExceptionUnmatchedTransaction:
		return append([]string(nil), unmatchedTransactionActions...)
	case models.ExceptionUnmatchedPayment:
		return append([]string(nil), unmatchedPaymentActions...)
	case models.ExceptionAmountMismatch:
		return []string{"Compare payment and booked amounts", "Check for bank fees or partial payments"}
	case models.ExceptionDateMismatch:
		return []string{"Verify payment execution date", "Check value date on the bank statement"}
	default:
		return []string{"Review both matches and keep the correct one"}
	}
}

// CreateManualMatch links a payment to a transaction with full confidence,
// bypassing scoring. The transaction must be unmatched and the payment still
// pending; saving the match claims it.
func (s *Service) CreateManualMatch(ctx context.Context, paymentID, transactionID, actorID string) (*models.ManualMatch, error) {
	if err := reconerror.Required("actor id", actorID); err != nil {
		return nil, err
	}
	if err := reconerror.Required("payment id", paymentID); err != nil {
		return nil, err
	}
	if err := reconerror.Required("transaction id", transactionID); err != nil {
		return nil, err
	}

	payment, err := s.payments.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve payment %s: %w", paymentID, err)
	}
	if payment.Status != models.PaymentPending {
		return nil, &reconerror.StateError{Entity: entityPayment, ID: paymentID,
			From: string(payment.Status), To: string(models.PaymentMatched),
			Reason: "only pending payments can be matched"}
	}
	stmt, err := s.repo.GetStatementByTransaction(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve transaction %s: %w", transactionID, err)
	}

	tx := stmt.Transaction(transactionID)
	if tx == nil {
		return nil, reconerror.NotFound(entityTransaction, transactionID)
	}
	if tx.Matched {
		return nil, &reconerror.StateError{Entity: entityTransaction, ID: transactionID, From: "matched", To: "matched",
			Reason: fmt.Sprintf("already matched to payment %s", tx.MatchedPaymentID)}
	}

	now := s.now()
	match := &models.ManualMatch{
		ReconciliationMatch: models.ReconciliationMatch{
			PaymentID:     paymentID,
			TransactionID: transactionID,
			MatchType:     models.MatchManual,
			Confidence:    1.0,
			Criteria: []models.MatchCriterion{{
				Field:            models.FieldManual,
				PaymentValue:     "manual_match",
				TransactionValue: "manual_match",
				Match:            true,
				Weight:           1.0,
			}},
			Discrepancies: []models.Discrepancy{},
		},
		StatementID: stmt.ID,
		CreatedBy:   actorID,
		CreatedAt:   now,
	}

	updated := stmt.Clone()
	updated.Transaction(transactionID).MarkMatched(paymentID, match.Confidence)
	record := audit.NewRecord(audit.ActionManualMatchCreated, entityTransaction, transactionID, actorID, now, audit.Payload{
		"statement_id": stmt.ID,
		"payment_id":   paymentID,
		"confidence":   match.Confidence,
	})
	if err := s.repo.SaveManualMatch(ctx, updated, match, record); err != nil {
		return nil, fmt.Errorf("failed to save manual match: %w", err)
	}

	s.logger.Info("Manual match created",
		logging.F(logging.FieldTransactionID, transactionID),
		logging.F(logging.FieldPaymentID, paymentID),
		logging.F(logging.FieldActorID, actorID))
	return match, nil
}
