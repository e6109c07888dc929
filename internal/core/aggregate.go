package core

// Aggregate builds the snapshot for the most recent calendar month present in
// txs. The month is taken from the maximum transaction date; every
// transaction outside it is ignored.
//
// Income is the sum of credits regardless of category. Essential categories
// feed FixedExpenses and variable categories are summed per label; other
// labels are dropped. A month without credits yields zero income, which Score
// later rejects with ErrDivisionUndefined.
func Aggregate(txs []Transaction, c *Classifier) (FinancialSnapshot, error) {
	year, month, err := latestMonth(txs)
	if err != nil {
		return FinancialSnapshot{}, err
	}

	snap := FinancialSnapshot{
		Year:             year,
		Month:            month,
		VariableExpenses: map[string]Money{},
		Subscriptions:    []Subscription{},
		Debts:            []Debt{},
		TimeFrameMonths:  DefaultTimeFrameMonths,
	}

	for _, t := range txs {
		if !inMonth(t, year, month) {
			continue
		}
		if t.Direction == Credit {
			if snap.Income, err = snap.Income.Add(t.Amount); err != nil {
				return FinancialSnapshot{}, sumOverflow("income")
			}
		}
		switch c.Classify(t.Category) {
		case BucketEssential:
			if snap.FixedExpenses, err = snap.FixedExpenses.Add(t.Amount); err != nil {
				return FinancialSnapshot{}, sumOverflow("fixed_expenses")
			}
		case BucketVariable:
			total, err := snap.VariableExpenses[t.Category].Add(t.Amount)
			if err != nil {
				return FinancialSnapshot{}, sumOverflow("variable_expenses." + t.Category)
			}
			snap.VariableExpenses[t.Category] = total
		}
	}
	if _, err := snap.CheckedTotalExpenses(); err != nil {
		return FinancialSnapshot{}, err
	}

	return snap, nil
}

// latestMonth returns the year and month of the maximum transaction date.
func latestMonth(txs []Transaction) (int, int, error) {
	if len(txs) == 0 {
		return 0, 0, ErrEmptyDataset
	}
	latest := txs[0].Date
	for _, t := range txs[1:] {
		if t.Date.After(latest.Time) {
			latest = t.Date
		}
	}
	return latest.Year(), latest.Month(), nil
}

func inMonth(t Transaction, year, month int) bool {
	return t.Date.Year() == year && t.Date.Month() == month
}
