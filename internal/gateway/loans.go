package gateway

import (
	"context"

	"github.com/google/uuid"

	"github.com/securebank/bank-portal/internal/domain"
)

const loansBase = "/api/v1/loans"

// LoanOffers lists loan products, optionally narrowed to one loan type.
func (c *Client) LoanOffers(ctx context.Context, loanType string) ([]domain.LoanOffer, error) {
	var out []domain.LoanOffer
	req := c.request(ctx).SetResult(&out)
	path := loansBase + "/view"
	if loanType != "" {
		req.SetQueryParam("loanTypeName", loanType)
		path = loansBase + "/viewLoans"
	}
	resp, err := req.Get(path)
	return out, check(resp, err)
}

func (c *Client) UserLoan(ctx context.Context, userLoanID string) (domain.UserLoan, error) {
	var out domain.UserLoan
	resp, err := c.request(ctx).
		SetQueryParam("userLoanID", userLoanID).
		SetResult(&out).
		Get(loansBase + "/view/userLoan")
	return out, check(resp, err)
}

// ApplyLoan draws a loan and returns the user's new loan.
func (c *Client) ApplyLoan(ctx context.Context, req domain.LoanApplication) (domain.UserLoan, error) {
	var out domain.UserLoan
	resp, err := c.request(ctx).
		SetHeader(idempotencyHeader, uuid.NewString()).
		SetBody(req).
		SetResult(&out).
		Post(loansBase + "/apply")
	if err := check(resp, err); err != nil {
		return out, err
	}
	if out.UserLoanID == "" {
		return out, ErrMissingID
	}
	return out, nil
}
