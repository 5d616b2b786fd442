package api

import (
	"context"
	"net/url"
	"strconv"
)

// BusinessMetric is one calculated snapshot of the business's performance,
// newest first. Fields the server has not computed yet come back as zero.
type BusinessMetric struct {
	ID                 string  `json:"id"`
	UserID             string  `json:"user_id"`
	MonthlyRevenue     float64 `json:"monthly_revenue"`
	MonthlyExpenses    float64 `json:"monthly_expenses"`
	ProfitMargin       float64 `json:"profit_margin"`
	CashFlow           float64 `json:"cash_flow"`
	CustomerCount      int     `json:"customer_count"`
	AvgOrderValue      float64 `json:"avg_order_value"`
	RepeatCustomerRate float64 `json:"repeat_customer_rate"`
	InventoryTurnover  float64 `json:"inventory_turnover"`
	ChargebackRate     float64 `json:"chargeback_rate"`
	RefundRate         float64 `json:"refund_rate"`
	PaymentFailureRate float64 `json:"payment_failure_rate"`
	PeriodStart        string  `json:"period_start"`
	PeriodEnd          string  `json:"period_end"`
	CalculatedAt       string  `json:"calculated_at"`
}

// BusinessMetrics returns the most recent metric snapshots, newest first.
// limit <= 0 uses the server default of 10.
func (c *Client) BusinessMetrics(ctx context.Context, limit int) ([]BusinessMetric, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var metrics []BusinessMetric
	if err := c.get(ctx, "/metrics/business_metrics", query, &metrics); err != nil {
		return nil, err
	}
	return metrics, nil
}
