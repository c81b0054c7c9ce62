package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"fintrack/internal/api"
	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/session"
)

func promptPassword(label string) (string, error) {
	fmt.Printf("%s: ", label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", errors.New("password cannot be empty")
	}
	return pw, nil
}

func monthFlag(fs *flag.FlagSet) *string {
	return fs.String("month", core.CurrentMonth().String(), "month as YYYY-MM")
}

func parseMonthArg(raw string) (core.Month, error) {
	month, err := core.ParseMonth(raw)
	if err != nil {
		return core.Month{}, fmt.Errorf("invalid month %q, expected YYYY-MM", raw)
	}
	return month, nil
}

func (a *app) cmdRegister(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: fintrack register <email>")
	}
	password, err := promptPassword("Password")
	if err != nil {
		return err
	}

	ok, err := a.session.SignUp(ctx, args[0], password)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("registration rejected, is the email already taken?")
	}

	if a.session.State() == session.Authenticated {
		fmt.Printf("Account created, signed in as %s\n", a.session.User().Email)
	} else {
		fmt.Println("Account created, run 'fintrack login' to sign in")
	}
	return nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: fintrack login <email>")
	}
	password, err := promptPassword("Password")
	if err != nil {
		return err
	}

	ok, err := a.session.SignIn(ctx, args[0], password)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("invalid email or password")
	}
	fmt.Printf("Signed in as %s\n", a.session.User().Email)
	return nil
}

func (a *app) cmdLogout(args []string) error {
	if len(args) != 0 {
		return errors.New("usage: fintrack logout")
	}
	a.session.SignOut()
	fmt.Println("Signed out")
	return nil
}

func (a *app) cmdWhoami(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errors.New("usage: fintrack whoami")
	}
	if err := a.requireSession(ctx); err != nil {
		return err
	}
	u := a.session.User()
	if u.Name != "" {
		fmt.Printf("%s <%s>\n", u.Name, u.Email)
	} else {
		fmt.Println(u.Email)
	}
	return nil
}

func (a *app) cmdList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	rawMonth := monthFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	month, err := parseMonthArg(*rawMonth)
	if err != nil {
		return err
	}

	if err := a.requireSession(ctx); err != nil {
		return err
	}

	if err := a.ledger.Load(ctx, month); err != nil {
		if errors.Is(err, api.ErrUnavailable) {
			return a.listOffline(ctx, month)
		}
		return err
	}

	printTransactions(a.ledger.Transactions())
	printSummary(a.ledger.Summary())
	return nil
}

// listOffline renders the mirrored snapshot when the API is unreachable.
func (a *app) listOffline(ctx context.Context, month core.Month) error {
	repo, err := a.openMirror()
	if err != nil {
		return fmt.Errorf("server unreachable and mirror unavailable: %w", err)
	}
	defer repo.Close()

	txs, err := repo.ListMonth(ctx, month)
	if err != nil {
		return fmt.Errorf("server unreachable, no local snapshot: %w", err)
	}
	syncedAt, err := repo.LastSynced(ctx, month)
	if err != nil {
		return err
	}

	fmt.Printf("Server unreachable, showing snapshot from %s\n\n", syncedAt.Local().Format(time.RFC822))
	printTransactions(txs)
	printSummary(core.Summarize(txs))
	return nil
}

func (a *app) cmdAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	rawAmount := fs.String("amount", "", "unsigned amount, e.g. 12.34")
	category := fs.String("category", "", "category label")
	rawType := fs.String("type", string(core.Expense), "income or expense")
	rawDate := fs.String("date", core.Today().String(), "date as YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cents, err := core.ParseDecimalToCents(*rawAmount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", *rawAmount, err)
	}
	txType := core.TxType(*rawType)
	if !txType.Valid() {
		return fmt.Errorf("invalid type %q, expected income or expense", *rawType)
	}
	date, err := core.ParseDate(*rawDate)
	if err != nil {
		return err
	}

	if err := a.requireSession(ctx); err != nil {
		return err
	}
	if err := a.ledger.Load(ctx, date.MonthOf()); err != nil {
		return err
	}

	if _, err := a.ledger.Add(ctx, *category, txType.Sign(cents), txType, date); err != nil {
		return err
	}
	a.advisor.Invalidate()

	fmt.Printf("Added %s %s (%s) on %s\n", *category, txType.Sign(cents), txType, date)
	printSummary(a.ledger.Summary())
	return nil
}

func (a *app) cmdUpdate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	id := fs.String("id", "", "transaction id")
	rawAmount := fs.String("amount", "", "unsigned amount, e.g. 12.34")
	category := fs.String("category", "", "category label")
	rawType := fs.String("type", string(core.Expense), "income or expense")
	rawDate := fs.String("date", "", "date as YYYY-MM-DD, keeps current when omitted")
	rawMonth := monthFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("missing -id")
	}

	month, err := parseMonthArg(*rawMonth)
	if err != nil {
		return err
	}
	cents, err := core.ParseDecimalToCents(*rawAmount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", *rawAmount, err)
	}
	txType := core.TxType(*rawType)
	if !txType.Valid() {
		return fmt.Errorf("invalid type %q, expected income or expense", *rawType)
	}

	if err := a.requireSession(ctx); err != nil {
		return err
	}
	if err := a.ledger.Load(ctx, month); err != nil {
		return err
	}

	date := core.Date{}
	if *rawDate != "" {
		if date, err = core.ParseDate(*rawDate); err != nil {
			return err
		}
	} else {
		for _, tx := range a.ledger.Transactions() {
			if tx.ID == *id {
				date = tx.Date
				break
			}
		}
		if date.IsZero() {
			return fmt.Errorf("transaction %s not found in %s", *id, month)
		}
	}

	if _, err := a.ledger.Update(ctx, *id, *category, txType.Sign(cents), txType, date); err != nil {
		return err
	}
	a.advisor.Invalidate()

	fmt.Printf("Updated %s\n", *id)
	printSummary(a.ledger.Summary())
	return nil
}

func (a *app) cmdDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	id := fs.String("id", "", "transaction id")
	rawMonth := monthFlag(fs)
	noPrompt := fs.Bool("no-prompt", false, "skip the undo prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("missing -id")
	}
	month, err := parseMonthArg(*rawMonth)
	if err != nil {
		return err
	}

	if err := a.requireSession(ctx); err != nil {
		return err
	}
	if err := a.ledger.Load(ctx, month); err != nil {
		return err
	}

	if _, err := a.ledger.Delete(ctx, *id); err != nil {
		return err
	}
	a.advisor.Invalidate()
	fmt.Printf("Deleted %s\n", *id)

	if !*noPrompt {
		if err := a.offerUndo(ctx); err != nil {
			return err
		}
	}
	printSummary(a.ledger.Summary())
	return nil
}

// offerUndo gives the user the undo window to take the deletion back. The
// prompt closes when the window expires.
func (a *app) offerUndo(ctx context.Context) error {
	fmt.Printf("Press Enter within %s to undo, or wait... ", a.cfg.UndoWindow)

	pressed := make(chan struct{})
	go func() {
		reader := bufio.NewReader(os.Stdin)
		if _, err := reader.ReadString('\n'); err == nil {
			close(pressed)
		}
	}()

	select {
	case <-pressed:
		if _, err := a.ledger.Undo(ctx); err != nil {
			return fmt.Errorf("undo: %w", err)
		}
		fmt.Println("Restored")
	case <-time.After(a.cfg.UndoWindow):
		fmt.Println("kept")
	}
	return nil
}

func (a *app) cmdBudget(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("budget", flag.ContinueOnError)
	rawMonth := monthFlag(fs)
	rawSet := fs.String("set", "", "set the budget to this unsigned amount")
	if err := fs.Parse(args); err != nil {
		return err
	}
	month, err := parseMonthArg(*rawMonth)
	if err != nil {
		return err
	}

	if err := a.requireSession(ctx); err != nil {
		return err
	}

	if *rawSet != "" {
		cents, err := core.ParseDecimalToCents(*rawSet)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", *rawSet, err)
		}
		if err := a.budgets.Save(ctx, month, core.Money{Cents: cents}); err != nil {
			return err
		}
		fmt.Printf("Budget for %s set to %s\n", month, core.Money{Cents: cents})
		return nil
	}

	amount, err := a.budgets.Get(ctx, month)
	if err != nil {
		if errors.Is(err, api.ErrUnavailable) {
			return a.budgetOffline(ctx, month)
		}
		return err
	}
	if amount.Cents == 0 {
		fmt.Printf("No budget set for %s\n", month)
		return nil
	}

	fmt.Printf("Budget for %s: %s\n", month, amount)
	if err := a.ledger.Load(ctx, month); err == nil {
		fmt.Printf("Remaining: %s\n", budget.Remaining(amount, a.ledger.Transactions()))
	}
	return nil
}

func (a *app) budgetOffline(ctx context.Context, month core.Month) error {
	repo, err := a.openMirror()
	if err != nil {
		return fmt.Errorf("server unreachable and mirror unavailable: %w", err)
	}
	defer repo.Close()

	amount, ok, err := repo.GetBudget(ctx, month)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("server unreachable, no local budget snapshot for %s", month)
	}
	fmt.Printf("Server unreachable, showing snapshot\nBudget for %s: %s\n", month, amount)
	if txs, err := repo.ListMonth(ctx, month); err == nil {
		fmt.Printf("Remaining: %s\n", budget.Remaining(amount, txs))
	}
	return nil
}

func (a *app) cmdInsights(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errors.New("usage: fintrack insights")
	}
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	o, err := a.advisor.Overview(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Predicted spend this month:  %s\n", o.Prediction)
	fmt.Printf("Recommended monthly budget:  %s\n", o.RecommendedBudget)
	if len(o.Anomalies) > 0 {
		fmt.Printf("Anomalous transactions:      %s\n", strings.Join(o.Anomalies, ", "))
	} else {
		fmt.Println("Anomalous transactions:      none")
	}
	if len(o.Forecast) > 0 {
		fmt.Println("\n30-day forecast:")
		for _, p := range o.Forecast {
			fmt.Printf("  %s  %10s\n", p.Date, p.Amount)
		}
	}
	return nil
}

func (a *app) cmdSavings(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errors.New("usage: fintrack savings")
	}
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	report, err := a.client.Savings(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Total savings: %s\n", report.Total)
	if len(report.History) > 0 {
		fmt.Println("\nMonth     Budget      Spent    Savings")
		for _, e := range report.History {
			fmt.Printf("%s  %9s  %9s  %9s\n", e.Month, e.Budget, e.Spent, e.Savings)
		}
	}
	return nil
}

func (a *app) cmdAdvice(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("advice", flag.ContinueOnError)
	rawMonth := monthFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	month, err := parseMonthArg(*rawMonth)
	if err != nil {
		return err
	}
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	advice, err := a.advisor.Advice(ctx, month)
	if err != nil {
		return err
	}
	if len(advice) == 0 {
		fmt.Printf("No advice for %s, spending looks on track\n", month)
		return nil
	}
	for _, item := range advice {
		fmt.Printf("%-15s %s\n", item.Category, item.Message)
	}
	return nil
}

func (a *app) cmdEfficiency(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("efficiency", flag.ContinueOnError)
	rawMonth := monthFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	month, err := parseMonthArg(*rawMonth)
	if err != nil {
		return err
	}
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	ratings, err := a.advisor.Efficiency(ctx, month)
	if err != nil {
		return err
	}
	if len(ratings) == 0 {
		fmt.Printf("No rated categories for %s\n", month)
		return nil
	}
	for _, r := range ratings {
		fmt.Printf("%-15s %s\n", r.Category, r.Efficiency)
	}
	return nil
}

func (a *app) cmdScore(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	purchaseType := fs.String("type", "want", "need or want")
	frequency := fs.String("frequency", "low", "low, medium or high")
	rawAmount := fs.String("amount", "", "unsigned purchase amount")
	rawMonth := monthFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cents, err := core.ParseDecimalToCents(*rawAmount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", *rawAmount, err)
	}
	month, err := parseMonthArg(*rawMonth)
	if err != nil {
		return err
	}

	if err := a.requireSession(ctx); err != nil {
		return err
	}

	monthlyBudget, err := a.budgets.Get(ctx, month)
	if err != nil {
		return err
	}

	result, err := a.client.NecessityScore(ctx, api.NecessityRequest{
		Type:      *purchaseType,
		Frequency: *frequency,
		Amount:    core.Money{Cents: cents},
		Budget:    monthlyBudget,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Score: %d\nDecision: %s\n", result.Score, result.Decision)
	return nil
}

func (a *app) cmdChat(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: fintrack chat <message>")
	}
	if err := a.requireSession(ctx); err != nil {
		return err
	}

	reply, err := a.advisor.Chat(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Println(reply)
	return nil
}

func printTransactions(txs []core.Transaction) {
	if len(txs) == 0 {
		fmt.Println("No transactions")
		return
	}
	fmt.Println("ID      Date        Category             Amount")
	for _, tx := range txs {
		fmt.Printf("%-7s %s  %-20s %10s\n", tx.ID, tx.Date, tx.Category, tx.Amount)
	}
}

func printSummary(s core.Summary) {
	fmt.Printf("\nIncome: %s  Expenses: %s  Balance: %s\n", s.Income, s.Expense, s.Balance)
}
