package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/securebank/bank-portal/internal/auth"
	"github.com/securebank/bank-portal/internal/domain"
	apperrors "github.com/securebank/bank-portal/pkg/util"
)

// LoansGateway takes out loans.
type LoansGateway interface {
	LoanOffers(ctx context.Context, loanType string) ([]domain.LoanOffer, error)
	OpenAccount(ctx context.Context, req domain.OpenAccountRequest) (domain.ID, error)
	ApplyLoan(ctx context.Context, req domain.LoanApplication) (domain.UserLoan, error)
}

// LoansHandler serves the loan application form.
type LoansHandler struct {
	gateway LoansGateway
	logger  *zap.Logger
}

// NewLoansHandler constructs handler.
func NewLoansHandler(gw LoansGateway, logger *zap.Logger) *LoansHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoansHandler{gateway: gw, logger: logger}
}

// Apply handles POST /loans/apply. The loan is drawn into a new credit
// account opened for the amount.
func (h *LoansHandler) Apply(c *fiber.Ctx) error {
	s, ok := auth.SessionFromContext(c)
	if !ok {
		return fiber.ErrInternalServerError
	}
	loanID := strings.TrimSpace(c.FormValue("loanID"))
	amount, err := parseAmount(c.FormValue("loanAmount"))
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	offers, err := h.gateway.LoanOffers(ctx, c.FormValue("loanType"))
	if err != nil {
		return gatewayFailure(c, err, h.logger)
	}
	var offer *domain.LoanOffer
	for i := range offers {
		if offers[i].LoanID.String() == loanID {
			offer = &offers[i]
			break
		}
	}
	if offer == nil {
		return apperrors.NewValidationError("this loan is no longer offered", map[string]any{"loanID": loanID})
	}
	if amount < offer.MinAmount || amount > offer.MaxAmount {
		return apperrors.NewValidationError("loan amount must be within the offered range", map[string]any{
			"min": offer.MinAmount,
			"max": offer.MaxAmount,
		})
	}

	accountID, err := h.gateway.OpenAccount(ctx, domain.OpenAccountRequest{
		UserID:         domain.ID(s.Snapshot().UserID),
		AccountType:    strings.ToUpper(domain.AccountCredit),
		InitialBalance: amount,
	})
	if err != nil {
		return gatewayFailure(c, err, h.logger)
	}
	loan, err := h.gateway.ApplyLoan(ctx, domain.LoanApplication{
		LoanID:     offer.LoanID,
		AccountID:  accountID,
		LoanAmount: amount,
	})
	if err != nil {
		h.logger.Warn("loan application failed after opening its account",
			zap.String("account_id", accountID.String()), zap.Error(err))
		return gatewayFailure(c, err, h.logger)
	}
	return c.Redirect("/userloan/"+loan.UserLoanID.String(), fiber.StatusSeeOther)
}
