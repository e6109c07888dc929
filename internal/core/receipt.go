package core

import (
	"strings"
	"time"
)

type (
	// ReceiptItem is what a scanned receipt resolves to: a product name and
	// the total price of everything on it.
	ReceiptItem struct {
		Name  string `json:"name"`
		Price Money  `json:"price"`
	}

	// Recommendations are generated advice lines for a stored snapshot.
	Recommendations struct {
		SnapshotID string    `json:"snapshot_id"`
		Items      []string  `json:"recommendations"`
		CreatedAt  time.Time `json:"created_at"`
	}
)

func (r ReceiptItem) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(r.Name) == "" {
		verr.Add("name", "is required")
	}
	if r.Price.Cents < 0 {
		verr.Add("price", "must be non-negative")
	}
	return verr.ErrOrNil()
}

// RecommendationKind selects what the advice concentrates on.
type RecommendationKind string

const (
	KindGeneral       RecommendationKind = "general"
	KindSavings       RecommendationKind = "savings"
	KindSubscriptions RecommendationKind = "subscriptions"
	KindDebts         RecommendationKind = "debts"
)

// RecommendationKinds lists every supported kind.
var RecommendationKinds = []RecommendationKind{KindGeneral, KindSavings, KindSubscriptions, KindDebts}

// ParseRecommendationKind maps an empty string to KindGeneral and rejects
// anything not in RecommendationKinds.
func ParseRecommendationKind(s string) (RecommendationKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return KindGeneral, nil
	}
	for _, k := range RecommendationKinds {
		if string(k) == s {
			return k, nil
		}
	}
	verr := &ValidationError{}
	verr.Add("kind", "must be one of general, savings, subscriptions, debts")
	return "", verr
}
