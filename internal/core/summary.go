package core

// Summary holds the aggregates derived from a transaction list. Income and
// Expense are reported as positive magnitudes; Balance is the signed sum, so
// Balance == Income - Expense always holds. Never stored, always recomputed.
type Summary struct {
	Income  Money
	Expense Money
	Balance Money
}

// Summarize folds a transaction list into its aggregates.
func Summarize(txs []Transaction) Summary {
	var s Summary
	for _, tx := range txs {
		c := tx.Amount.Cents
		if c > 0 {
			s.Income.Cents += c
		} else {
			s.Expense.Cents += -c
		}
		s.Balance.Cents += c
	}
	return s
}

// Spent returns the expense total for the list, the figure budget remaining
// is computed against.
func Spent(txs []Transaction) Money {
	return Summarize(txs).Expense
}
