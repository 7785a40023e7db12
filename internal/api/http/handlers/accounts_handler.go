package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/securebank/bank-portal/internal/auth"
	"github.com/securebank/bank-portal/internal/domain"
	apperrors "github.com/securebank/bank-portal/pkg/util"
)

// AccountsGateway moves money through the gateway.
type AccountsGateway interface {
	Deposit(ctx context.Context, req domain.DepositRequest) error
	Transfer(ctx context.Context, req domain.TransferRequest) error
	OpenAccount(ctx context.Context, req domain.OpenAccountRequest) (domain.ID, error)
}

// AccountsHandler serves the deposit, transfer and account opening forms.
type AccountsHandler struct {
	gateway AccountsGateway
	logger  *zap.Logger
}

// NewAccountsHandler constructs handler.
func NewAccountsHandler(gw AccountsGateway, logger *zap.Logger) *AccountsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountsHandler{gateway: gw, logger: logger}
}

// Deposit handles POST /accounts/:accountId/deposit.
func (h *AccountsHandler) Deposit(c *fiber.Ctx) error {
	accountID := c.Params("accountId")
	amount, err := parseAmount(c.FormValue("amount"))
	if err != nil {
		return err
	}
	err = h.gateway.Deposit(c.UserContext(), domain.DepositRequest{AccountID: domain.ID(accountID), Amount: amount})
	return h.finish(c, accountID, "deposit", err)
}

// Transfer handles POST /accounts/:accountId/transfer.
func (h *AccountsHandler) Transfer(c *fiber.Ctx) error {
	accountID := c.Params("accountId")
	target := strings.TrimSpace(c.FormValue("targetAccountId"))
	if target == "" {
		return apperrors.NewValidationError("target account is required", nil)
	}
	if target == accountID {
		return apperrors.NewValidationError("cannot transfer to the same account", nil)
	}
	amount, err := parseAmount(c.FormValue("amount"))
	if err != nil {
		return err
	}
	err = h.gateway.Transfer(c.UserContext(), domain.TransferRequest{
		SourceAccountID: domain.ID(accountID),
		TargetAccountID: domain.ID(target),
		Amount:          amount,
	})
	return h.finish(c, accountID, "transfer", err)
}

func (h *AccountsHandler) finish(c *fiber.Ctx, accountID, notice string, err error) error {
	if err != nil {
		return gatewayFailure(c, err, h.logger)
	}
	return c.Redirect("/accounts/"+accountID+"?notice="+notice, fiber.StatusSeeOther)
}

// OpenAccount handles POST /accounts/open/:accountType. A credit account
// carries its limit as the initial balance and continues to the card
// offers for that limit.
func (h *AccountsHandler) OpenAccount(c *fiber.Ctx) error {
	s, ok := auth.SessionFromContext(c)
	if !ok {
		return fiber.ErrInternalServerError
	}
	kind := strings.ToLower(c.Params("accountType"))
	if !domain.IsAccountType(kind) {
		return apperrors.NewValidationError("unknown account type", map[string]any{"accountType": kind})
	}

	var balance float64
	raw := strings.TrimSpace(c.FormValue("initialBalance"))
	switch {
	case kind == domain.AccountCredit:
		limit, err := parseAmount(raw)
		if err != nil {
			return apperrors.NewValidationError("credit limit must be a positive number", map[string]any{"initialBalance": raw})
		}
		balance = limit
	case raw != "" && raw != "0":
		deposit, err := parseAmount(raw)
		if err != nil {
			return err
		}
		balance = deposit
	}

	accountID, err := h.gateway.OpenAccount(c.UserContext(), domain.OpenAccountRequest{
		UserID:         domain.ID(s.Snapshot().UserID),
		AccountType:    strings.ToUpper(kind),
		InitialBalance: balance,
	})
	if err != nil {
		return gatewayFailure(c, err, h.logger)
	}
	if kind == domain.AccountCredit {
		return c.Redirect(fmt.Sprintf("/creditoffers/%s/%.0f", accountID, balance), fiber.StatusSeeOther)
	}
	return c.Redirect("/accounts/"+accountID.String()+"?notice=account-opened", fiber.StatusSeeOther)
}

func parseAmount(raw string) (float64, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || amount <= 0 {
		return 0, apperrors.NewValidationError("amount must be a positive number", map[string]any{"amount": raw})
	}
	return amount, nil
}
