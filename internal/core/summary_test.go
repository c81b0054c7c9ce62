package core

import "testing"

func TestSummarize(t *testing.T) {
	cases := []struct {
		name    string
		txs     []Transaction
		income  int64
		expense int64
		balance int64
	}{
		{
			name: "empty list",
		},
		{
			name: "single expense",
			txs: []Transaction{
				{Category: "Coffee", Amount: Money{Cents: -5000}, Type: Expense},
			},
			expense: 5000,
			balance: -5000,
		},
		{
			name: "income and expense",
			txs: []Transaction{
				{Category: "Salary", Amount: Money{Cents: 100000}, Type: Income},
				{Category: "Rent", Amount: Money{Cents: -30000}, Type: Expense},
			},
			income:  100000,
			expense: 30000,
			balance: 70000,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Summarize(tc.txs)
			if s.Income.Cents != tc.income {
				t.Fatalf("income = %d, want %d", s.Income.Cents, tc.income)
			}
			if s.Expense.Cents != tc.expense {
				t.Fatalf("expense = %d, want %d", s.Expense.Cents, tc.expense)
			}
			if s.Balance.Cents != tc.balance {
				t.Fatalf("balance = %d, want %d", s.Balance.Cents, tc.balance)
			}
			if s.Balance.Cents != s.Income.Cents-s.Expense.Cents {
				t.Fatalf("balance invariant broken: %d != %d - %d",
					s.Balance.Cents, s.Income.Cents, s.Expense.Cents)
			}
		})
	}
}
