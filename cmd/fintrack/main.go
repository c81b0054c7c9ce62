package main

import (
	"context"
	"fmt"
	"os"

	"fintrack/internal/api"
	"fintrack/internal/budget"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/insights"
	"fintrack/internal/log"
	"fintrack/internal/mirror"
	"fintrack/internal/notify"
	"fintrack/internal/secrets"
	"fintrack/internal/session"
	"fintrack/internal/transactions"
)

const usage = `fintrack - personal finance tracker

Usage:
  fintrack <command> [flags]

Account:
  register <email>      create an account (prompts for password)
  login <email>         sign in (prompts for password)
  logout                drop the stored session
  whoami                show the signed-in user

Ledger:
  list                  show a month's transactions and totals
  add                   record a transaction
  update                edit a transaction
  delete                remove a transaction (undo offered briefly)
  budget                show or set a month's budget

Insights:
  insights              dashboard: prediction, recommendation, anomalies, forecast
  savings               savings history across settled months
  advice                category-level overspend hints
  efficiency            per-category efficiency ratings
  score                 score a contemplated purchase
  chat <message>        ask the financial coach

Run 'fintrack <command> -h' for command flags.`

// app bundles the services every command draws from.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	store   *secrets.FileStore
	client  *api.Client
	session *session.Holder
	ledger  *transactions.Manager
	budgets *budget.Service
	advisor *insights.Service
}

func newApp() *app {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.InitSecrets(logger, cfg.SecretsDir)
	client := cli.InitAPIClient(cfg, store, logger)

	holder := session.NewHolder(client, store, session.Config{AutoLogin: cfg.AuthAutoLogin}, logger)
	client.OnSessionExpired(holder.HandleExpiry)

	notifier := notify.NewLogNotifier(logger)
	ledger := transactions.NewManager(client, notifier, logger,
		transactions.WithUndoWindow(cfg.UndoWindow))

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		client:  client,
		session: holder,
		ledger:  ledger,
		budgets: budget.NewService(client, logger),
		advisor: insights.NewService(client, logger),
	}
}

// requireSession restores the stored session and fails the command when the
// user is not signed in.
func (a *app) requireSession(ctx context.Context) error {
	if err := a.session.Bootstrap(ctx); err != nil {
		return err
	}
	if a.session.State() != session.Authenticated {
		return fmt.Errorf("not signed in, run 'fintrack login <email>' first")
	}
	return nil
}

// openMirror opens the local snapshot database for offline reads.
func (a *app) openMirror() (*mirror.Repository, error) {
	return mirror.NewRepository(a.cfg.MirrorDBPath, a.logger)
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		fmt.Println(usage)
		return
	}

	a := newApp()
	ctx := context.Background()

	var err error
	switch cmd {
	case "register":
		err = a.cmdRegister(ctx, args)
	case "login":
		err = a.cmdLogin(ctx, args)
	case "logout":
		err = a.cmdLogout(args)
	case "whoami":
		err = a.cmdWhoami(ctx, args)
	case "list":
		err = a.cmdList(ctx, args)
	case "add":
		err = a.cmdAdd(ctx, args)
	case "update":
		err = a.cmdUpdate(ctx, args)
	case "delete":
		err = a.cmdDelete(ctx, args)
	case "budget":
		err = a.cmdBudget(ctx, args)
	case "insights":
		err = a.cmdInsights(ctx, args)
	case "savings":
		err = a.cmdSavings(ctx, args)
	case "advice":
		err = a.cmdAdvice(ctx, args)
	case "efficiency":
		err = a.cmdEfficiency(ctx, args)
	case "score":
		err = a.cmdScore(ctx, args)
	case "chat":
		err = a.cmdChat(ctx, args)
	default:
		fmt.Printf("unknown command %q\n\n%s\n", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
