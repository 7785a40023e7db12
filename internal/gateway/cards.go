package gateway

import (
	"context"

	"github.com/google/uuid"

	"github.com/securebank/bank-portal/internal/domain"
)

const cardsBase = "/api/v1/cards"

// Cards lists the signed-in user's cards. The user is taken from the
// bearer token.
func (c *Client) Cards(ctx context.Context) ([]domain.Card, error) {
	var out []domain.Card
	resp, err := c.request(ctx).SetResult(&out).Get(cardsBase + "/user")
	return out, check(resp, err)
}

func (c *Client) Card(ctx context.Context, cardID string) (domain.Card, error) {
	var out domain.Card
	resp, err := c.request(ctx).
		SetQueryParam("cardID", cardID).
		SetResult(&out).
		Get(cardsBase + "/userCard")
	return out, check(resp, err)
}

// CreditOffers lists card products available up to creditLimit.
func (c *Client) CreditOffers(ctx context.Context, creditLimit string) ([]domain.CardOffer, error) {
	var out []domain.CardOffer
	resp, err := c.request(ctx).
		SetQueryParam("creditLimit", creditLimit).
		SetResult(&out).
		Get(cardsBase + "/creditoffers/limit")
	return out, check(resp, err)
}

// CreateCard issues a card from an offer on an existing account.
func (c *Client) CreateCard(ctx context.Context, req domain.CreateCardRequest) (domain.IssuedCard, error) {
	var out domain.IssuedCard
	resp, err := c.request(ctx).
		SetHeader(idempotencyHeader, uuid.NewString()).
		SetBody(req).
		SetResult(&out).
		Post(cardsBase + "/create")
	return out, check(resp, err)
}

// DeleteCard deactivates one of the user's cards.
func (c *Client) DeleteCard(ctx context.Context, cardID string) error {
	resp, err := c.request(ctx).
		SetPathParam("cardID", cardID).
		Delete(cardsBase + "/delete/{cardID}")
	return check(resp, err)
}
