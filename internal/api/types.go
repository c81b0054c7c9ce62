package api

import (
	"fmt"

	"fintrack/internal/core"
)

// User is the identity object returned by /api/user.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// LoginResult carries the token and the user /login resolves to.
type LoginResult struct {
	Token string
	User  User
}

// ForecastPoint is one projected day of spending.
type ForecastPoint struct {
	Date   core.Date
	Amount core.Money
}

// SavingsEntry is one settled month in the savings history.
type SavingsEntry struct {
	Month   core.Month
	Budget  core.Money
	Spent   core.Money
	Savings core.Money
}

// SavingsReport aggregates settled months: savings = budget - spent per month.
type SavingsReport struct {
	Total   core.Money
	History []SavingsEntry
}

// BudgetAdvice is one category-level hint from /optimize-budget.
type BudgetAdvice struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// CategoryEfficiency rates spending efficiency per category.
type CategoryEfficiency struct {
	Category   string `json:"category"`
	Efficiency string `json:"efficiency"`
}

// NecessityRequest scores a contemplated purchase before it happens.
type NecessityRequest struct {
	Type      string // "need" or "want"
	Frequency string // "low", "medium", "high"
	Amount    core.Money
	Budget    core.Money
}

// NecessityResult is the server's verdict: BUY, DELAY or AVOID.
type NecessityResult struct {
	Score    int    `json:"score"`
	Decision string `json:"decision"`
}

// APIError is a non-2xx response that did reach the server. The message is
// whatever the backend put in its "msg" field.
type APIError struct {
	Status int
	Msg    string
}

func (e *APIError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Msg)
}

// Wire DTOs. The server speaks unsigned decimal amounts and free-text
// categories; conversion to signed cents with explicit types happens in the
// client methods, never above them.
type (
	credentialsRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	tokenResponse struct {
		AccessToken string `json:"access_token"`
		User        User   `json:"user"`
	}

	transactionRow struct {
		ID       int64   `json:"id"`
		Date     string  `json:"date"`
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
	}

	transactionsResponse struct {
		Transactions []transactionRow `json:"transactions"`
	}

	transactionRequest struct {
		Date     string  `json:"date"`
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
	}

	budgetResponse struct {
		Budget float64 `json:"budget"`
	}

	budgetRequest struct {
		Month  string  `json:"month"`
		Amount float64 `json:"amount"`
	}

	predictionResponse struct {
		Prediction float64 `json:"prediction"`
	}

	recommendResponse struct {
		RecommendedBudget float64 `json:"recommended_budget"`
	}

	anomaliesResponse struct {
		Anomalies []int64 `json:"anomalies"`
	}

	forecastRow struct {
		Date   string  `json:"date"`
		Amount float64 `json:"amount"`
	}

	forecastResponse struct {
		Forecast []forecastRow `json:"forecast"`
	}

	savingsRow struct {
		Month   string  `json:"month"`
		Budget  float64 `json:"budget"`
		Spent   float64 `json:"spent"`
		Savings float64 `json:"savings"`
	}

	savingsResponse struct {
		TotalSavings float64      `json:"total_savings"`
		History      []savingsRow `json:"history"`
	}

	chatRequest struct {
		Message string `json:"message"`
	}

	chatResponse struct {
		Response string `json:"response"`
	}

	necessityRequest struct {
		Type      string  `json:"type"`
		Frequency string  `json:"frequency"`
		Amount    float64 `json:"amount"`
		Budget    float64 `json:"budget"`
	}

	errorResponse struct {
		Msg string `json:"msg"`
	}
)
