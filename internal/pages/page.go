package pages

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/securebank/bank-portal/internal/domain"
	"github.com/securebank/bank-portal/internal/session"
)

// Form kinds a page may ask its renderer to show.
const (
	FormSignIn         = "signin"
	FormSignUp         = "signup"
	FormForgotPassword = "forgot-password"
	FormResetPassword  = "reset-password"
	FormDeposit        = "deposit"
	FormTransfer       = "transfer"
	FormResendConfirm  = "resend-confirmation"
	FormProfile        = "profile"
	FormOpenAccount    = "open-account"
	FormCreateCard     = "create-card"
	FormDeleteCard     = "delete-card"
	FormApplyLoan      = "apply-loan"
	FormAppointment    = "appointment"
	FormDeactivate     = "deactivate"
)

// Link is a navigation target shown in a block.
type Link struct {
	Label string
	Href  string
}

// Block is one section of a page: a heading followed by paragraphs, a
// table and links, any of which may be empty.
type Block struct {
	Heading string
	Text    []string
	Columns []string
	Rows    [][]string
	Links   []Link
}

// Form asks the renderer for an input form. Fields carries hidden values.
type Form struct {
	Kind   string
	Action string
	Fields map[string]string
}

// Page is what a renderer draws for one view.
type Page struct {
	Name   string
	Title  string
	Blocks []Block
	Forms  []Form
}

// Request is the input of a loader.
type Request struct {
	Params  map[string]string
	Query   url.Values
	Session session.Snapshot
}

func (r Request) param(name string) string {
	return r.Params[name]
}

// Source is the gateway surface the loaders read from.
type Source interface {
	GetUser(ctx context.Context, userID string) (domain.UserDetails, error)
	AccountsByUser(ctx context.Context, userID string) ([]domain.Account, error)
	AccountDetails(ctx context.Context, accountID string) (domain.Account, error)
	Transactions(ctx context.Context, accountID string, f domain.TransactionFilter) (domain.TransactionPage, error)
	Branches(ctx context.Context, page int) ([]domain.Branch, error)
	Bankers(ctx context.Context, branchID string) ([]domain.Banker, error)
	Cards(ctx context.Context) ([]domain.Card, error)
	Card(ctx context.Context, cardID string) (domain.Card, error)
	CreditOffers(ctx context.Context, creditLimit string) ([]domain.CardOffer, error)
	LoanOffers(ctx context.Context, loanType string) ([]domain.LoanOffer, error)
	UserLoan(ctx context.Context, userLoanID string) (domain.UserLoan, error)
	VerificationStatus(ctx context.Context, emailOrUsername string) (bool, error)
}

// Loader builds a page from a request.
type Loader func(ctx context.Context, req Request) (Page, error)

// ErrUnknownPage is returned by Catalog.Load for a route with no loader.
var ErrUnknownPage = errors.New("no loader for route")

// Catalog maps route names to loaders.
type Catalog struct {
	src     Source
	history HistorySource
	loaders map[string]Loader
}

// NewCatalog builds the loaders for every route in Routes.
func NewCatalog(src Source) *Catalog {
	c := &Catalog{src: src}
	c.loaders = map[string]Loader{
		Home:                 c.home,
		About:                c.about,
		Help:                 c.help,
		Careers:              c.careers,
		SignupDetails:        c.signupDetails,
		Branches:             c.branches,
		Bankers:              c.bankers,
		PasswordResetRequest: c.passwordResetRequest,
		PasswordResetForm:    c.passwordResetForm,
		SignIn:               c.signIn,
		SignUp:               c.signUp,

		UserProfile:   c.userProfile,
		Dashboard:     c.dashboard,
		Accounts:      c.accounts,
		AccountDetail: c.accountDetail,
		AccountOpen:   c.accountOpen,
		UserLoan:      c.userLoan,
		ViewCard:      c.viewCard,
		CreditOffers:  c.creditOffers,
		CreateCard:    c.createCard,
		CreditSuccess: c.creditSuccess,
		Cards:         c.cards,
		Loans:         c.loans,
		SignupCards:   c.signupCards,
		UserSettings:  c.userSettings,
		Activity:      c.activity,
	}
	return c
}

// Load runs the loader of an allowed decision.
func (c *Catalog) Load(ctx context.Context, d session.Decision, snap session.Snapshot, query url.Values) (Page, error) {
	if !d.Allowed() {
		return NotFound(d.Path), nil
	}
	loader, ok := c.loaders[d.Route.Name]
	if !ok {
		return Page{}, fmt.Errorf("%w %q", ErrUnknownPage, d.Route.Name)
	}
	page, err := loader(ctx, Request{Params: d.Params, Query: query, Session: snap})
	if err != nil {
		return Page{}, fmt.Errorf("load %s: %w", d.Route.Name, err)
	}
	page.Name = d.Route.Name
	return page, nil
}

// NotFound is shown for unmatched paths and for authenticated views
// requested without a session.
func NotFound(path string) Page {
	return Page{
		Name:  "not-found",
		Title: "Page not found",
		Blocks: []Block{{
			Text:  []string{fmt.Sprintf("There is nothing to show at %s.", path)},
			Links: []Link{{Label: "Home", Href: "/"}},
		}},
	}
}
