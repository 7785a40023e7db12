package pages

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/securebank/bank-portal/internal/domain"
)

func money(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

func atoi(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func profileBlock(u domain.UserDetails) Block {
	return Block{
		Heading: "Profile",
		Columns: []string{"Field", "Value"},
		Rows: [][]string{
			{"Username", u.Username},
			{"Email", u.Email},
			{"Name", u.FirstName + " " + u.LastName},
			{"Phone", u.Phone},
			{"Address", u.Address},
			{"City", u.City},
			{"State", u.State},
			{"Zip", u.ZipCode},
		},
	}
}

func accountsBlock(accounts []domain.Account) Block {
	b := Block{Heading: "Accounts", Columns: []string{"Number", "Type", "Balance"}}
	for _, a := range accounts {
		b.Rows = append(b.Rows, []string{a.AccountNumber, a.AccountType, money(a.Balance)})
		b.Links = append(b.Links, Link{Label: a.AccountNumber, Href: "/accounts/" + a.AccountID.String()})
	}
	if len(accounts) == 0 {
		b.Text = []string{"You have no open accounts."}
	}
	return b
}

func cardsBlock(cards []domain.Card) Block {
	b := Block{Heading: "Cards", Columns: []string{"Number", "Type", "Expires"}}
	for _, card := range cards {
		b.Rows = append(b.Rows, []string{card.CardNumber, card.CardType, card.ExpirationDate})
		b.Links = append(b.Links, Link{Label: card.CardNumber, Href: "/viewcard/" + card.CardID.String()})
	}
	if len(cards) == 0 {
		b.Text = []string{"You have no cards."}
	}
	return b
}

func (c *Catalog) userProfile(ctx context.Context, req Request) (Page, error) {
	user, err := c.src.GetUser(ctx, req.Session.UserID)
	if err != nil {
		return Page{}, err
	}
	page := Page{Title: "Your profile", Blocks: []Block{profileBlock(user)}}
	if !user.IsVerified {
		page.Blocks = append(page.Blocks, Block{Text: []string{"Your email address is not confirmed yet."}})
		page.Forms = []Form{{Kind: FormResendConfirm, Action: "/auth/resend-confirmation"}}
	}
	return page, nil
}

func (c *Catalog) userSettings(ctx context.Context, req Request) (Page, error) {
	user, err := c.src.GetUser(ctx, req.Session.UserID)
	if err != nil {
		return Page{}, err
	}
	return Page{
		Title: "Settings",
		Blocks: []Block{profileBlock(user), {
			Heading: "Security",
			Links:   []Link{{Label: "Change password", Href: "/password-reset-request"}},
		}},
		Forms: []Form{
			{Kind: FormProfile, Action: "/user-settings"},
			{Kind: FormDeactivate, Action: "/user-settings/deactivate"},
		},
	}, nil
}

func (c *Catalog) dashboard(ctx context.Context, req Request) (Page, error) {
	accounts, err := c.src.AccountsByUser(ctx, req.Session.UserID)
	if err != nil {
		return Page{}, err
	}
	cards, err := c.src.Cards(ctx)
	if err != nil {
		return Page{}, err
	}
	page := Page{
		Title:  "Dashboard",
		Blocks: []Block{{Heading: "Welcome back, " + req.Session.Username}, accountsBlock(accounts), cardsBlock(cards)},
	}

	verified, err := c.src.VerificationStatus(ctx, req.Session.Username)
	if err == nil && !verified {
		page.Blocks = append(page.Blocks, Block{Text: []string{"Please confirm your email address."}})
		page.Forms = []Form{{Kind: FormResendConfirm, Action: "/auth/resend-confirmation"}}
	}
	return page, nil
}

func (c *Catalog) accounts(ctx context.Context, req Request) (Page, error) {
	accounts, err := c.src.AccountsByUser(ctx, req.Session.UserID)
	if err != nil {
		return Page{}, err
	}
	var total float64
	for _, a := range accounts {
		total += a.Balance
	}
	return Page{
		Title: "Accounts",
		Blocks: []Block{accountsBlock(accounts), {
			Text: []string{"Total balance " + money(total)},
			Links: []Link{
				{Label: "Open checking", Href: "/accounts/open/checking"},
				{Label: "Open savings", Href: "/accounts/open/savings"},
				{Label: "Open credit", Href: "/accounts/open/credit"},
			},
		}},
	}, nil
}

func (c *Catalog) accountDetail(ctx context.Context, req Request) (Page, error) {
	accountID := req.param("accountId")
	account, err := c.src.AccountDetails(ctx, accountID)
	if err != nil {
		return Page{}, err
	}

	filter := domain.TransactionFilter{
		StartDate:       req.Query.Get("startDate"),
		EndDate:         req.Query.Get("endDate"),
		MinAmount:       req.Query.Get("minAmount"),
		MaxAmount:       req.Query.Get("maxAmount"),
		TransactionType: req.Query.Get("transactionType"),
		SortBy:          req.Query.Get("sortBy"),
		Page:            atoi(req.Query.Get("page"), 0),
		Size:            atoi(req.Query.Get("size"), 10),
	}
	txns, err := c.src.Transactions(ctx, accountID, filter)
	if err != nil {
		return Page{}, err
	}

	history := Block{Heading: "Transactions", Columns: []string{"Date", "Description", "Amount", "Balance"}}
	for _, t := range txns.Transactions {
		history.Rows = append(history.Rows, []string{t.DateTime, t.Description, money(t.Amount), money(t.ClosingBalance)})
	}
	if txns.TotalPages > 0 {
		history.Text = []string{fmt.Sprintf("Page %d of %d", txns.PageNumber+1, txns.TotalPages)}
	}
	base := "/accounts/" + accountID
	if txns.PageNumber > 0 {
		history.Links = append(history.Links, Link{Label: "Previous", Href: fmt.Sprintf("%s?page=%d", base, txns.PageNumber-1)})
	}
	if txns.PageNumber+1 < txns.TotalPages {
		history.Links = append(history.Links, Link{Label: "Next", Href: fmt.Sprintf("%s?page=%d", base, txns.PageNumber+1)})
	}

	return Page{
		Title: "Account " + account.AccountNumber,
		Blocks: []Block{{
			Columns: []string{"Type", "Balance"},
			Rows:    [][]string{{account.AccountType, money(account.Balance)}},
		}, history},
		Forms: []Form{
			{Kind: FormDeposit, Action: base + "/deposit"},
			{Kind: FormTransfer, Action: base + "/transfer"},
		},
	}, nil
}

func (c *Catalog) branches(ctx context.Context, req Request) (Page, error) {
	page := atoi(req.Query.Get("page"), 0)
	branches, err := c.src.Branches(ctx, page)
	if err != nil {
		return Page{}, err
	}
	b := Block{Columns: []string{"Branch", "Address", "City", "Phone"}}
	for _, br := range branches {
		b.Rows = append(b.Rows, []string{br.BranchName, br.Address, br.City, br.PhoneNumber})
		b.Links = append(b.Links, Link{Label: br.BranchName + " bankers", Href: "/branches/" + br.BranchID.String() + "/bankers"})
	}
	return Page{Title: "Branches", Blocks: []Block{b}}, nil
}

func (c *Catalog) bankers(ctx context.Context, req Request) (Page, error) {
	bankers, err := c.src.Bankers(ctx, req.param("branchId"))
	if err != nil {
		return Page{}, err
	}
	b := Block{Columns: []string{"Name", "Title", "Email", "Phone"}}
	for _, bk := range bankers {
		b.Rows = append(b.Rows, []string{bk.FirstName + " " + bk.LastName, bk.JobTitle, bk.Email, bk.PhoneNumber})
	}
	if len(bankers) == 0 {
		b.Text = []string{"No bankers are listed for this branch."}
	}
	b.Links = []Link{{Label: "All branches", Href: "/branches"}}
	page := Page{Title: "Bankers", Blocks: []Block{b}}
	if !req.Session.Authenticated() {
		if len(bankers) > 0 {
			page.Blocks = append(page.Blocks, Block{
				Text:  []string{"Sign in to book an appointment."},
				Links: []Link{{Label: "Sign in", Href: "/signin"}},
			})
		}
		return page, nil
	}
	branchID := req.param("branchId")
	for _, bk := range bankers {
		page.Forms = append(page.Forms, Form{
			Kind:   FormAppointment,
			Action: "/branches/" + branchID + "/appointments",
			Fields: map[string]string{
				"bankerId":   bk.BankerID.String(),
				"bankerName": bk.FirstName + " " + bk.LastName,
			},
		})
	}
	return page, nil
}

func (c *Catalog) cards(ctx context.Context, req Request) (Page, error) {
	cards, err := c.src.Cards(ctx)
	if err != nil {
		return Page{}, err
	}
	return Page{Title: "Cards", Blocks: []Block{cardsBlock(cards)}}, nil
}

func (c *Catalog) viewCard(ctx context.Context, req Request) (Page, error) {
	card, err := c.src.Card(ctx, req.param("cardID"))
	if err != nil {
		return Page{}, err
	}
	return Page{
		Title: "Card " + card.CardNumber,
		Blocks: []Block{{
			Columns: []string{"Type", "Offer", "Issued", "Expires"},
			Rows:    [][]string{{card.CardType, card.CardOffer, card.StartDate, card.ExpirationDate}},
			Links:   []Link{{Label: "All cards", Href: "/cards"}},
		}},
		Forms: []Form{{Kind: FormDeleteCard, Action: "/viewcard/" + card.CardID.String() + "/delete"}},
	}, nil
}

func (c *Catalog) offersBlock(ctx context.Context, accountID, limit string) (Block, error) {
	offers, err := c.src.CreditOffers(ctx, limit)
	if err != nil {
		return Block{}, err
	}
	b := Block{Heading: "Offers up to " + limit, Columns: []string{"Offer", "Limit", "APR"}}
	for _, o := range offers {
		b.Rows = append(b.Rows, []string{o.CardOfferName, money(o.CreditLimit), fmt.Sprintf("%.2f%%", o.APR)})
		if accountID != "" {
			b.Links = append(b.Links, Link{Label: o.CardOfferName, Href: "/createCard/" + accountID + "/" + o.CardOfferID.String() + "?creditLimit=" + url.QueryEscape(limit)})
		}
	}
	if len(offers) == 0 {
		b.Text = []string{"No offers match this credit limit."}
	}
	return b, nil
}

func (c *Catalog) creditOffers(ctx context.Context, req Request) (Page, error) {
	b, err := c.offersBlock(ctx, req.param("accountId"), req.param("creditLimit"))
	if err != nil {
		return Page{}, err
	}
	return Page{Title: "Credit offers", Blocks: []Block{b}}, nil
}

func (c *Catalog) signupCards(ctx context.Context, req Request) (Page, error) {
	limit := req.Query.Get("creditLimit")
	if limit == "" {
		limit = "5000"
	}
	b, err := c.offersBlock(ctx, req.Query.Get("accountId"), limit)
	if err != nil {
		return Page{}, err
	}
	return Page{Title: "Choose a card", Blocks: []Block{b}}, nil
}

func (c *Catalog) loans(ctx context.Context, req Request) (Page, error) {
	loanType := req.Query.Get("loanType")
	offers, err := c.src.LoanOffers(ctx, loanType)
	if err != nil {
		return Page{}, err
	}
	b := Block{Columns: []string{"Type", "APR", "Term", "Min", "Max"}}
	for _, o := range offers {
		b.Rows = append(b.Rows, []string{
			o.LoanType,
			fmt.Sprintf("%.2f%%", o.AnnualPercentageRate),
			strconv.Itoa(o.TermMonths) + " months",
			money(o.MinAmount),
			money(o.MaxAmount),
		})
	}
	title := "Loan offers"
	if loanType != "" {
		title += " (" + loanType + ")"
	}
	page := Page{Title: title, Blocks: []Block{b}}
	for _, o := range offers {
		page.Forms = append(page.Forms, Form{
			Kind:   FormApplyLoan,
			Action: "/loans/apply",
			Fields: map[string]string{"loanID": o.LoanID.String(), "loanType": o.LoanType},
		})
	}
	if len(offers) == 0 {
		page.Blocks[0].Text = []string{"No loan offers are available."}
	}
	return page, nil
}

func (c *Catalog) userLoan(ctx context.Context, req Request) (Page, error) {
	loan, err := c.src.UserLoan(ctx, req.param("userLoanId"))
	if err != nil {
		return Page{}, err
	}
	return Page{
		Title: "Loan " + loan.UserLoanID.String(),
		Blocks: []Block{{
			Columns: []string{"Principal", "Balance", "Monthly", "Next due"},
			Rows:    [][]string{{money(loan.Principal), money(loan.Balance), money(loan.MonthlyPayment), loan.NextPaymentDue}},
			Links:   []Link{{Label: "Loan offers", Href: "/loans"}},
		}},
	}, nil
}

// findOffer looks an offer up among those available for a credit limit.
func (c *Catalog) findOffer(ctx context.Context, limit, offerID string) (domain.CardOffer, bool, error) {
	offers, err := c.src.CreditOffers(ctx, limit)
	if err != nil {
		return domain.CardOffer{}, false, err
	}
	for _, o := range offers {
		if o.CardOfferID.String() == offerID {
			return o, true, nil
		}
	}
	return domain.CardOffer{}, false, nil
}

func (c *Catalog) createCard(ctx context.Context, req Request) (Page, error) {
	accountID, offerID := req.param("accountId"), req.param("creditOfferId")
	limit := req.Query.Get("creditLimit")
	back := Link{Label: "Back to offers", Href: "/creditoffers/" + accountID + "/" + limit}

	offer, ok, err := c.findOffer(ctx, limit, offerID)
	if err != nil {
		return Page{}, err
	}
	if !ok {
		return Page{
			Title: "Offer unavailable",
			Blocks: []Block{{
				Text:  []string{"This offer is no longer available. Choose another one."},
				Links: []Link{back},
			}},
		}, nil
	}
	return Page{
		Title: "Confirm your card",
		Blocks: []Block{{
			Columns: []string{"Offer", "Limit", "APR"},
			Rows:    [][]string{{offer.CardOfferName, money(offer.CreditLimit), fmt.Sprintf("%.2f%%", offer.APR)}},
			Links:   []Link{back},
		}},
		Forms: []Form{{
			Kind:   FormCreateCard,
			Action: "/createCard/" + accountID + "/" + offerID,
			Fields: map[string]string{"creditLimit": limit},
		}},
	}, nil
}

func (c *Catalog) creditSuccess(ctx context.Context, req Request) (Page, error) {
	cardID := req.Query.Get("card")
	if cardID == "" {
		return Page{
			Title:  "No new card",
			Blocks: []Block{{Text: []string{"There is no new card to show."}, Links: []Link{{Label: "View cards", Href: "/cards"}}}},
		}, nil
	}
	card, err := c.src.Card(ctx, cardID)
	if err != nil {
		return Page{}, err
	}
	return Page{
		Title: "Your card is on its way",
		Blocks: []Block{{
			Text:    []string{"Card " + card.CardNumber + " was issued."},
			Columns: []string{"Type", "Offer", "Issued", "Expires"},
			Rows:    [][]string{{card.CardType, card.CardOffer, card.StartDate, card.ExpirationDate}},
			Links:   []Link{{Label: "View card", Href: "/viewcard/" + card.CardID.String()}, {Label: "All cards", Href: "/cards"}},
		}},
	}, nil
}
