package gateway

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/securebank/bank-portal/internal/domain"
)

const (
	accountsBase     = "/api/v1/accounts"
	transactionsBase = "/api/v1/transactions"

	idempotencyHeader = "Idempotency-Key"
)

// AccountsByUser lists the user's active accounts.
func (c *Client) AccountsByUser(ctx context.Context, userID string) ([]domain.Account, error) {
	var out []domain.Account
	resp, err := c.request(ctx).
		SetPathParam("userId", userID).
		SetQueryParam("active", "true").
		SetResult(&out).
		Get(accountsBase + "/by-user/{userId}")
	return out, check(resp, err)
}

func (c *Client) AccountDetails(ctx context.Context, accountID string) (domain.Account, error) {
	var out domain.Account
	resp, err := c.request(ctx).
		SetPathParam("accountId", accountID).
		SetResult(&out).
		Get(accountsBase + "/details/{accountId}")
	return out, check(resp, err)
}

// Transactions returns one page of an account's history. The gateway
// wraps the page in a "data" envelope.
func (c *Client) Transactions(ctx context.Context, accountID string, f domain.TransactionFilter) (domain.TransactionPage, error) {
	var out struct {
		Data domain.TransactionPage `json:"data"`
	}
	req := c.request(ctx).SetPathParam("accountId", accountID).SetResult(&out)

	params := map[string]string{
		"startDate":             f.StartDate,
		"endDate":               f.EndDate,
		"minAmount":             f.MinAmount,
		"maxAmount":             f.MaxAmount,
		"transactionTypeString": f.TransactionType,
		"sortBy":                f.SortBy,
	}
	for k, v := range params {
		if v != "" {
			req.SetQueryParam(k, v)
		}
	}
	req.SetQueryParam("page", strconv.Itoa(f.Page))
	if f.Size > 0 {
		req.SetQueryParam("size", strconv.Itoa(f.Size))
	}

	resp, err := req.Get(transactionsBase + "/by-account/{accountId}")
	return out.Data, check(resp, err)
}

// Deposit credits an account. Each call carries a fresh idempotency key.
func (c *Client) Deposit(ctx context.Context, req domain.DepositRequest) error {
	resp, err := c.request(ctx).
		SetHeader(idempotencyHeader, uuid.NewString()).
		SetBody(req).
		Post(transactionsBase + "/deposit")
	return check(resp, err)
}

func (c *Client) Transfer(ctx context.Context, req domain.TransferRequest) error {
	resp, err := c.request(ctx).
		SetHeader(idempotencyHeader, uuid.NewString()).
		SetBody(req).
		Post(transactionsBase + "/transfer")
	return check(resp, err)
}

// OpenAccount opens an account and returns its id. The gateway wraps the
// new account in a "data" envelope.
func (c *Client) OpenAccount(ctx context.Context, req domain.OpenAccountRequest) (domain.ID, error) {
	var out struct {
		Data domain.Account `json:"data"`
	}
	resp, err := c.request(ctx).
		SetHeader(idempotencyHeader, uuid.NewString()).
		SetBody(req).
		SetResult(&out).
		Post(accountsBase)
	if err := check(resp, err); err != nil {
		return "", err
	}
	if out.Data.AccountID == "" {
		return "", ErrMissingID
	}
	return out.Data.AccountID, nil
}
