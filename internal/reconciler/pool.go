package reconciler

import (
	"fjacquet/camt-recon/internal/models"
	"fjacquet/camt-recon/internal/reconerror"
)

// paymentPool is the candidate set of one run. Payments live in an arena in their
// original order; claiming a payment drops its index so it can never be offered again.
type paymentPool struct {
	arena []models.Payment
	live  []int
	byID  map[string]int
}

func newPaymentPool(payments []models.Payment) (*paymentPool, error) {
	p := &paymentPool{
		arena: make([]models.Payment, len(payments)),
		live:  make([]int, len(payments)),
		byID:  make(map[string]int, len(payments)),
	}
	copy(p.arena, payments)
	for i, pay := range p.arena {
		if pay.ID == "" {
			return nil, &reconerror.InputError{Field: "payment id", Reason: "must not be empty"}
		}
		if _, dup := p.byID[pay.ID]; dup {
			return nil, &reconerror.InputError{Field: "payment id", Reason: "duplicate id " + pay.ID}
		}
		p.byID[pay.ID] = i
		p.live[i] = i
	}
	return p, nil
}

// Len is the number of unclaimed payments.
func (p *paymentPool) Len() int { return len(p.live) }

// Size is the number of payments the pool started with.
func (p *paymentPool) Size() int { return len(p.arena) }

// Each calls fn for every unclaimed payment in original order.
func (p *paymentPool) Each(fn func(*models.Payment)) {
	for _, i := range p.live {
		fn(&p.arena[i])
	}
}

// Claim removes the payment from the pool. It reports false when the payment
// is unknown or already claimed.
func (p *paymentPool) Claim(id string) bool {
	idx, ok := p.byID[id]
	if !ok {
		return false
	}
	for pos, i := range p.live {
		if i == idx {
			p.live = append(p.live[:pos], p.live[pos+1:]...)
			delete(p.byID, id)
			return true
		}
	}
	return false
}

// Remaining returns the unclaimed payments in original order.
func (p *paymentPool) Remaining() []models.Payment {
	out := make([]models.Payment, 0, len(p.live))
	for _, i := range p.live {
		out = append(out, p.arena[i])
	}
	return out
}
