package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/securebank/bank-portal/internal/domain"
	apperrors "github.com/securebank/bank-portal/pkg/util"
)

const maxPinDigits = 5

// CardsGateway issues and cancels cards.
type CardsGateway interface {
	CreditOffers(ctx context.Context, creditLimit string) ([]domain.CardOffer, error)
	CreateCard(ctx context.Context, req domain.CreateCardRequest) (domain.IssuedCard, error)
	DeleteCard(ctx context.Context, cardID string) error
}

// CardsHandler serves the card request and cancellation forms.
type CardsHandler struct {
	gateway CardsGateway
	logger  *zap.Logger
}

// NewCardsHandler constructs handler.
func NewCardsHandler(gw CardsGateway, logger *zap.Logger) *CardsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CardsHandler{gateway: gw, logger: logger}
}

// CreateCard handles POST /createCard/:accountId/:creditOfferId. The offer
// is looked up again so the posted form cannot alter its terms.
func (h *CardsHandler) CreateCard(c *fiber.Ctx) error {
	pin, err := parsePin(c.FormValue("pin"), c.FormValue("confirmPin"))
	if err != nil {
		return err
	}
	limit := strings.TrimSpace(c.FormValue("creditLimit"))
	offerID := c.Params("creditOfferId")

	ctx := c.UserContext()
	offers, err := h.gateway.CreditOffers(ctx, limit)
	if err != nil {
		return gatewayFailure(c, err, h.logger)
	}
	var offer *domain.CardOffer
	for i := range offers {
		if offers[i].CardOfferID.String() == offerID {
			offer = &offers[i]
			break
		}
	}
	if offer == nil {
		return apperrors.NewValidationError("this offer is no longer available", map[string]any{"creditOfferId": offerID})
	}

	card, err := h.gateway.CreateCard(ctx, domain.CreateCardRequest{
		AccountID:  domain.ID(c.Params("accountId")),
		CardOffer:  *offer,
		Pin:        pin,
		CardTypeID: domain.CreditCardTypeID,
	})
	if err != nil {
		return gatewayFailure(c, err, h.logger)
	}
	return c.Redirect("/creditsuccess?card="+card.CardID.String(), fiber.StatusSeeOther)
}

// DeleteCard handles POST /viewcard/:cardID/delete.
func (h *CardsHandler) DeleteCard(c *fiber.Ctx) error {
	if err := h.gateway.DeleteCard(c.UserContext(), c.Params("cardID")); err != nil {
		return gatewayFailure(c, err, h.logger)
	}
	return c.Redirect("/cards?notice=card-deleted", fiber.StatusSeeOther)
}

func parsePin(raw, confirm string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxPinDigits || strings.Trim(raw, "0123456789") != "" {
		return 0, apperrors.NewValidationError("PIN must be 1 to 5 digits", nil)
	}
	if raw != strings.TrimSpace(confirm) {
		return 0, apperrors.NewValidationError("PINs do not match", nil)
	}
	return strconv.Atoi(raw)
}
