package api

import (
	"context"
	"net/url"
	"strconv"
)

// CreditScore is the business credit score with the inputs that produced it.
type CreditScore struct {
	Score   int                `json:"score"`
	Rating  string             `json:"rating"`
	Factors map[string]float64 `json:"factors"`
}

// AmountRange bounds an offer's principal.
type AmountRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// LoanOffer is one financing offer as the dashboard renders it.
type LoanOffer struct {
	Provider     string      `json:"provider"`
	LoanName     string      `json:"loan_name"`
	AmountRange  AmountRange `json:"amount_range"`
	InterestRate float64     `json:"interest_rate"`
	TermMonths   []int       `json:"term_months"`
	Requirements []string    `json:"requirements"`
	LogoURL      string      `json:"logo_url"`
}

// LoanOffers is the offer list plus the score it was computed from.
type LoanOffers struct {
	Offers       []LoanOffer `json:"offers"`
	BasedOnScore int         `json:"based_on_score"`
}

// LoanApplication is the payload submitted when applying for an offer.
type LoanApplication struct {
	Provider   string  `json:"provider"`
	LoanName   string  `json:"loan_name"`
	Amount     float64 `json:"amount"`
	TermMonths int     `json:"term_months"`
	Purpose    string  `json:"purpose,omitempty"`
}

// ApplicationResult acknowledges a submitted application.
type ApplicationResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CreditScore returns the current user's business credit score.
func (c *Client) CreditScore(ctx context.Context) (*CreditScore, error) {
	var score CreditScore
	if err := c.get(ctx, "/financing/score", nil, &score); err != nil {
		return nil, err
	}
	return &score, nil
}

// LoanOffers lists the offers available at the given score. score <= 0 lets
// the server compute the score itself.
func (c *Client) LoanOffers(ctx context.Context, score int) (*LoanOffers, error) {
	query := url.Values{}
	if score > 0 {
		query.Set("score", strconv.Itoa(score))
	}

	var offers LoanOffers
	if err := c.get(ctx, "/financing/offers", query, &offers); err != nil {
		return nil, err
	}
	return &offers, nil
}

// ApplyForLoan submits a loan application.
func (c *Client) ApplyForLoan(ctx context.Context, application LoanApplication) (*ApplicationResult, error) {
	var result ApplicationResult
	if err := c.post(ctx, "/financing/apply", application, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
