package domain

// Card is a card issued to the signed-in user.
type Card struct {
	CardID         ID     `json:"cardID"`
	CardNumber     string `json:"cardNumber"`
	CardType       string `json:"cardType"`
	CardOffer      string `json:"cardOffer,omitempty"`
	StartDate      string `json:"startDate"`
	ExpirationDate string `json:"expirationDate"`
}

// CardOffer is a credit card product offered for a credit limit.
type CardOffer struct {
	CardOfferID   ID      `json:"cardOfferId"`
	CardOfferName string  `json:"cardOfferName"`
	CreditLimit   float64 `json:"creditLimit"`
	APR           float64 `json:"apr"`
}

// CreditCardTypeID is the card type the gateway uses for credit cards.
const CreditCardTypeID = 2

// CreateCardRequest issues a card on an account from a chosen offer.
type CreateCardRequest struct {
	AccountID  ID        `json:"accountID"`
	CardOffer  CardOffer `json:"cardOffer"`
	Pin        int       `json:"pin"`
	CardTypeID int       `json:"cardTypeId"`
}

// IssuedCard is the gateway's answer to a card request. The offer and
// type are returned in shapes this client does not read.
type IssuedCard struct {
	CardID         ID     `json:"cardID"`
	CardNumber     string `json:"cardNumber"`
	StartDate      string `json:"startDate"`
	ExpirationDate string `json:"expirationDate"`
}
