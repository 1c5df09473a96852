package offer

import (
	"fmt"

	domainErrors "github.com/getdryv/checkout-service/internal/domain/errors"
)

// Offer holds the pricing facts for one enrollment offer in one payment mode.
// Amounts are integers in minor currency units (cents).
type Offer struct {
	ID     string
	Label  string
	Amount int64
}

// Catalog is the immutable offer lookup shared by both checkout operations.
// Two tables exist for the same offer ids: the one-shot price and the
// installment total (the latter is higher, pricing the deferred payment).
type Catalog struct {
	oneShot     map[string]Offer
	installment map[string]Offer
}

// Entry is a single catalog row as it appears in configuration.
type Entry struct {
	ID               string
	Label            string
	OneShotAmount    int64
	InstallmentTotal int64
}

// NewCatalog builds the catalog from configuration entries.
func NewCatalog(entries []Entry) *Catalog {
	c := &Catalog{
		oneShot:     make(map[string]Offer, len(entries)),
		installment: make(map[string]Offer, len(entries)),
	}
	for _, e := range entries {
		c.oneShot[e.ID] = Offer{ID: e.ID, Label: e.Label, Amount: e.OneShotAmount}
		c.installment[e.ID] = Offer{ID: e.ID, Label: e.Label, Amount: e.InstallmentTotal}
	}
	return c
}

// OneShot looks up an offer in the one-shot table.
func (c *Catalog) OneShot(offerID string) (Offer, error) {
	o, ok := c.oneShot[offerID]
	if !ok {
		return Offer{}, domainErrors.ErrUnknownOffer
	}
	return o, nil
}

// Installment looks up an offer in the installment table.
func (c *Catalog) Installment(offerID string) (Offer, error) {
	o, ok := c.installment[offerID]
	if !ok {
		return Offer{}, domainErrors.ErrUnknownOffer
	}
	return o, nil
}

// Len returns the number of offers in the one-shot table.
func (c *Catalog) Len() int {
	return len(c.oneShot)
}

// Validate checks catalog integrity: every offer needs a positive one-shot
// amount, and when the same id carries an installment total it must be
// strictly greater than the one-shot price.
func (c *Catalog) Validate() error {
	for id, o := range c.oneShot {
		if o.Amount <= 0 {
			return fmt.Errorf("offer %q: one-shot amount must be positive, got %d", id, o.Amount)
		}
		inst, ok := c.installment[id]
		if !ok {
			continue
		}
		if inst.Amount <= o.Amount {
			return fmt.Errorf("offer %q: installment total %d must exceed one-shot amount %d",
				id, inst.Amount, o.Amount)
		}
	}
	return nil
}
