package core

import "sort"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Bucket Bucket `json:"bucket"`
	Amount Money  `json:"amount"`
}

// SpendSummary is the categorized spend breakdown for one year+month.
type SpendSummary struct {
	Year       int              `json:"year"`
	Month      int              `json:"month"` // 1-12
	Income     Money            `json:"income"`
	TotalSpent Money            `json:"total_spent"`
	ByCategory []CategoryAmount `json:"by_category"`
}

// Summarize groups the debits of the most recent month by category, largest
// first. It selects the month exactly like Aggregate.
func Summarize(txs []Transaction, c *Classifier) (SpendSummary, error) {
	year, month, err := latestMonth(txs)
	if err != nil {
		return SpendSummary{}, err
	}

	sum := SpendSummary{Year: year, Month: month, ByCategory: []CategoryAmount{}}
	byName := map[string]Money{}
	for _, t := range txs {
		if !inMonth(t, year, month) {
			continue
		}
		switch t.Direction {
		case Credit:
			if sum.Income, err = sum.Income.Add(t.Amount); err != nil {
				return SpendSummary{}, sumOverflow("income")
			}
		case Debit:
			if sum.TotalSpent, err = sum.TotalSpent.Add(t.Amount); err != nil {
				return SpendSummary{}, sumOverflow("total_spent")
			}
			// Bounded by TotalSpent since amounts are non-negative.
			byName[t.Category] = Money{Cents: byName[t.Category].Cents + t.Amount.Cents}
		}
	}

	for name, amount := range byName {
		sum.ByCategory = append(sum.ByCategory, CategoryAmount{
			Name:   name,
			Bucket: c.Classify(name),
			Amount: amount,
		})
	}
	sort.Slice(sum.ByCategory, func(i, j int) bool {
		a, b := sum.ByCategory[i], sum.ByCategory[j]
		if a.Amount.Cents != b.Amount.Cents {
			return a.Amount.Cents > b.Amount.Cents
		}
		return a.Name < b.Name
	})

	return sum, nil
}

// BucketTotal sums the categories of one bucket.
func (s SpendSummary) BucketTotal(b Bucket) Money {
	var total int64
	for _, ca := range s.ByCategory {
		if ca.Bucket == b {
			total += ca.Amount.Cents
		}
	}
	return Money{Cents: total}
}
