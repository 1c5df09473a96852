package config

import "github.com/getdryv/checkout-service/internal/domain/offer"

// OfferEntry is one catalog row in the configuration file. Amounts are
// integers in minor currency units.
type OfferEntry struct {
	ID               string `yaml:"id"`
	Label            string `yaml:"label"`
	OneShotAmount    int64  `yaml:"one_shot_amount"`
	InstallmentTotal int64  `yaml:"installment_total"`
}

// Catalog builds the immutable offer catalog from the configured entries.
func Catalog(entries []OfferEntry) *offer.Catalog {
	converted := make([]offer.Entry, 0, len(entries))
	for _, e := range entries {
		converted = append(converted, offer.Entry{
			ID:               e.ID,
			Label:            e.Label,
			OneShotAmount:    e.OneShotAmount,
			InstallmentTotal: e.InstallmentTotal,
		})
	}
	return offer.NewCatalog(converted)
}

// DefaultOffers is the deploy-time catalog used when the config file does
// not override it.
func DefaultOffers() []OfferEntry {
	return []OfferEntry{
		{ID: "classique-10h", Label: "Permis 10 heures", OneShotAmount: 64900, InstallmentTotal: 69900},
		{ID: "classique-20h", Label: "Permis 20 heures", OneShotAmount: 99900, InstallmentTotal: 109900},
		{ID: "classique-30h", Label: "Permis 30 heures", OneShotAmount: 149900, InstallmentTotal: 164900},
		{ID: "accelere-20h", Label: "Accélérée 20 heures", OneShotAmount: 149900, InstallmentTotal: 159900},
		{ID: "accelere-30h", Label: "Accélérée 30 heures", OneShotAmount: 179900, InstallmentTotal: 189900},
	}
}
