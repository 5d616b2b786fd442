package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bizfinhq/bizfin-go/api"
)

func TestBusinessMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/metrics/business_metrics", r.URL.Path)
		require.Equal(t, "6", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"id": "m-2", "user_id": "user-1",
				"monthly_revenue": 18250.0, "monthly_expenses": 11400.0,
				"profit_margin": 0.375, "cash_flow": 6850.0,
				"customer_count": 212, "avg_order_value": 86.08,
				"repeat_customer_rate": 0.41, "inventory_turnover": 4.2,
				"chargeback_rate": 0.004, "refund_rate": 0.021,
				"payment_failure_rate": 0.013,
				"period_start": "2026-07-01T00:00:00", "period_end": "2026-07-31T23:59:59",
				"calculated_at": "2026-08-01T02:00:00"
			},
			{
				"id": "m-1", "user_id": "user-1",
				"monthly_revenue": 16100.0, "monthly_expenses": null,
				"profit_margin": null, "cash_flow": null,
				"customer_count": null, "avg_order_value": null,
				"repeat_customer_rate": null, "inventory_turnover": null,
				"chargeback_rate": null, "refund_rate": null,
				"payment_failure_rate": null,
				"period_start": "2026-06-01T00:00:00", "period_end": null,
				"calculated_at": "2026-07-01T02:00:00"
			}
		]`))
	}))
	defer server.Close()

	c := api.New(server.URL)
	metrics, err := c.BusinessMetrics(context.Background(), 6)
	require.NoError(t, err)
	require.Len(t, metrics, 2)

	require.Equal(t, "m-2", metrics[0].ID)
	require.Equal(t, 18250.0, metrics[0].MonthlyRevenue)
	require.Equal(t, 212, metrics[0].CustomerCount)
	require.Equal(t, 0.375, metrics[0].ProfitMargin)

	// Snapshots the server has not finished computing carry nulls; they
	// decode to zero values.
	require.Equal(t, 16100.0, metrics[1].MonthlyRevenue)
	require.Zero(t, metrics[1].MonthlyExpenses)
	require.Empty(t, metrics[1].PeriodEnd)
}

func TestBusinessMetricsDefaultOmitsLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := api.New(server.URL)
	metrics, err := c.BusinessMetrics(context.Background(), 0)
	require.NoError(t, err)
	require.Empty(t, metrics)
}
