package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bizfinhq/bizfin-go/api"
)

func TestTransactionsQueryAndPaging(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payments/transactions", r.URL.Path)
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "25", r.URL.Query().Get("limit"))
		require.Equal(t, "completed", r.URL.Query().Get("status"))
		require.Equal(t, "invoice", r.URL.Query().Get("search"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"transactions": [
				{"id": "tx-1", "amount": 120.5, "status": "completed", "type": "payment", "date": "2026-08-01T10:00:00", "description": "Invoice 1042"}
			],
			"total_count": 51,
			"page": 2,
			"limit": 25,
			"total_pages": 3
		}`))
	}))
	defer server.Close()

	c := api.New(server.URL)
	page, err := c.Transactions(context.Background(), api.TransactionListOptions{
		Page:   2,
		Limit:  25,
		Status: "completed",
		Search: "invoice",
	})
	require.NoError(t, err)
	require.Len(t, page.Transactions, 1)
	require.Equal(t, "tx-1", page.Transactions[0].ID)
	require.Equal(t, 120.5, page.Transactions[0].Amount)
	require.Equal(t, 51, page.TotalCount)
	require.Equal(t, 3, page.TotalPages)
}

func TestTransactionsDefaultsOmitQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transactions": [], "total_count": 0, "page": 1, "limit": 10, "total_pages": 0}`))
	}))
	defer server.Close()

	c := api.New(server.URL)
	page, err := c.Transactions(context.Background(), api.TransactionListOptions{})
	require.NoError(t, err)
	require.Empty(t, page.Transactions)
}

func TestPaymentSummary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payments/transactions/summary", r.URL.Path)
		require.Equal(t, "90", r.URL.Query().Get("days"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"total_transactions": 40,
			"total_revenue": 8250.75,
			"completed_transactions": 36,
			"failed_transactions": 2,
			"success_rate": 0.947,
			"period_days": 90
		}`))
	}))
	defer server.Close()

	c := api.New(server.URL)
	summary, err := c.PaymentSummary(context.Background(), 90)
	require.NoError(t, err)
	require.Equal(t, 40, summary.TotalTransactions)
	require.Equal(t, 8250.75, summary.TotalRevenue)
	require.Equal(t, 90, summary.PeriodDays)
}

func TestFinancingOffers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/financing/offers", r.URL.Path)
		require.Equal(t, "720", r.URL.Query().Get("score"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"offers": [{
				"provider": "MicroStart DE",
				"loan_name": "Starter Capital",
				"amount_range": {"min": 1000, "max": 10000},
				"interest_rate": 12.5,
				"term_months": [12, 24],
				"requirements": ["Business registration"],
				"logo_url": "https://example.com/logo.png"
			}],
			"based_on_score": 720
		}`))
	}))
	defer server.Close()

	c := api.New(server.URL)
	offers, err := c.LoanOffers(context.Background(), 720)
	require.NoError(t, err)
	require.Equal(t, 720, offers.BasedOnScore)
	require.Len(t, offers.Offers, 1)
	require.Equal(t, "Starter Capital", offers.Offers[0].LoanName)
	require.Equal(t, []int{12, 24}, offers.Offers[0].TermMonths)
	require.Equal(t, 10000.0, offers.Offers[0].AmountRange.Max)
}

func TestCreditScore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/financing/score", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"score": 715, "rating": "Good", "factors": {"revenue": 5400.0, "cash_flow": 1200.0}}`))
	}))
	defer server.Close()

	c := api.New(server.URL)
	score, err := c.CreditScore(context.Background())
	require.NoError(t, err)
	require.Equal(t, 715, score.Score)
	require.Equal(t, "Good", score.Rating)
	require.Equal(t, 5400.0, score.Factors["revenue"])
}
