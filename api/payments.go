package api

import (
	"context"
	"net/url"
	"strconv"
)

// Transaction is one row of the payments table.
type Transaction struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Status      string  `json:"status"`
	Type        string  `json:"type"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
}

// TransactionPage is one page of the paginated transaction list.
type TransactionPage struct {
	Transactions []Transaction `json:"transactions"`
	TotalCount   int           `json:"total_count"`
	Page         int           `json:"page"`
	Limit        int           `json:"limit"`
	TotalPages   int           `json:"total_pages"`
}

// TransactionListOptions filter the transaction list. Zero values fall back
// to the server defaults (page 1, limit 10, all statuses).
type TransactionListOptions struct {
	Page   int
	Limit  int
	Status string
	Search string
}

// PaymentSummary aggregates payment activity over a trailing window.
type PaymentSummary struct {
	TotalTransactions     int     `json:"total_transactions"`
	TotalRevenue          float64 `json:"total_revenue"`
	CompletedTransactions int     `json:"completed_transactions"`
	FailedTransactions    int     `json:"failed_transactions"`
	SuccessRate           float64 `json:"success_rate"`
	PeriodDays            int     `json:"period_days"`
}

// Transactions fetches one page of the current user's transactions.
func (c *Client) Transactions(ctx context.Context, opts TransactionListOptions) (*TransactionPage, error) {
	query := url.Values{}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Status != "" {
		query.Set("status", opts.Status)
	}
	if opts.Search != "" {
		query.Set("search", opts.Search)
	}

	var page TransactionPage
	if err := c.get(ctx, "/payments/transactions", query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// PaymentSummary aggregates the last N days of transactions. A days value
// of zero or less uses the server default of 30.
func (c *Client) PaymentSummary(ctx context.Context, days int) (*PaymentSummary, error) {
	query := url.Values{}
	if days > 0 {
		query.Set("days", strconv.Itoa(days))
	}

	var summary PaymentSummary
	if err := c.get(ctx, "/payments/transactions/summary", query, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
