package api

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Payment statuses reported by the gateway.
const (
	PaymentStatusPending    = "pending"
	PaymentStatusSuccessful = "successful"
	PaymentStatusFailed     = "failed"
)

// ErrPaymentPending is returned by WaitForPayment when the transaction is
// still pending after the attempt budget is spent.
var ErrPaymentPending = errors.New("payment still pending")

// SubscriptionRequest initiates a mobile-money subscription payment.
type SubscriptionRequest struct {
	PlanID      string `json:"plan_id"`
	PhoneNumber string `json:"phone_number"`
	Provider    string `json:"provider"`
}

// SubscriptionResponse acknowledges an initiated payment. The transaction id
// is what status checks poll on.
type SubscriptionResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	TransactionID string `json:"transaction_id"`
}

// PaymentStatus is the gateway-reported state of one transaction.
type PaymentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// LastPayment describes the most recent settled payment.
type LastPayment struct {
	Date     *time.Time `json:"date"`
	Amount   float64    `json:"amount"`
	Provider string     `json:"provider"`
}

// SubscriptionStatus is the account's current subscription state.
type SubscriptionStatus struct {
	Tier        string      `json:"tier"`
	Status      string      `json:"status"`
	EndDate     *time.Time  `json:"end_date"`
	DueDate     *time.Time  `json:"due_date"`
	LastPayment LastPayment `json:"last_payment"`
}

// Subscribe initiates a subscription payment through the mobile-money
// gateway. The returned transaction stays pending until the customer
// approves the charge on their handset.
func (c *Client) Subscribe(ctx context.Context, req SubscriptionRequest) (*SubscriptionResponse, error) {
	var resp SubscriptionResponse
	if err := c.post(ctx, "/billing/subscribe", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CheckPaymentStatus asks the gateway for the current state of one
// transaction.
func (c *Client) CheckPaymentStatus(ctx context.Context, transactionID string) (*PaymentStatus, error) {
	var status PaymentStatus
	if err := c.get(ctx, "/billing/check-status/"+transactionID, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// SubscriptionStatus returns the account's subscription state.
func (c *Client) SubscriptionStatus(ctx context.Context) (*SubscriptionStatus, error) {
	var status SubscriptionStatus
	if err := c.get(ctx, "/billing/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// WaitForPayment polls CheckPaymentStatus at a fixed interval until the
// transaction leaves the pending state, the attempt budget is spent, or ctx
// is cancelled. Transient network failures count as attempts; an API
// rejection stops the poll immediately.
func (c *Client) WaitForPayment(ctx context.Context, transactionID string, interval time.Duration, maxAttempts uint) (*PaymentStatus, error) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if maxAttempts == 0 {
		maxAttempts = 12
	}

	attempt := 0
	operation := func() (*PaymentStatus, error) {
		attempt++
		status, err := c.CheckPaymentStatus(ctx, transactionID)
		if err != nil {
			if IsTransient(err) {
				log.Err(err).Int("attempt", attempt).Msg("Payment status check failed, will retry")
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		if status.Status == PaymentStatusPending {
			log.Info().Int("attempt", attempt).Str("transaction_id", transactionID).Msg("Payment still pending")
			return nil, ErrPaymentPending
		}
		return status, nil
	}

	status, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(interval)),
		backoff.WithMaxTries(maxAttempts),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[WaitForPayment] polling stopped")
	}
	return status, nil
}
