package pages

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/securebank/bank-portal/internal/domain"
	"github.com/securebank/bank-portal/internal/repository"
	"github.com/securebank/bank-portal/internal/session"
)

type stubSource struct {
	accounts []domain.Account
	offers   []domain.CardOffer
	loans    []domain.LoanOffer
	bankers  []domain.Banker
	txFilter domain.TransactionFilter
	err      error
}

func (s *stubSource) GetUser(_ context.Context, id string) (domain.UserDetails, error) {
	return domain.UserDetails{UserID: domain.ID(id), Username: "alice", IsVerified: true}, s.err
}

func (s *stubSource) AccountsByUser(context.Context, string) ([]domain.Account, error) {
	return s.accounts, s.err
}

func (s *stubSource) AccountDetails(_ context.Context, id string) (domain.Account, error) {
	return domain.Account{AccountID: domain.ID(id), AccountNumber: "ACC-" + id, Balance: 10}, s.err
}

func (s *stubSource) Transactions(_ context.Context, _ string, f domain.TransactionFilter) (domain.TransactionPage, error) {
	s.txFilter = f
	return domain.TransactionPage{
		Transactions: []domain.Transaction{{Description: "Coffee", Amount: -3.5, ClosingBalance: 6.5}},
		TotalPages:   3,
		PageNumber:   f.Page,
	}, s.err
}

func (s *stubSource) Branches(context.Context, int) ([]domain.Branch, error) {
	return []domain.Branch{{BranchID: "5", BranchName: "Main"}}, s.err
}

func (s *stubSource) Bankers(context.Context, string) ([]domain.Banker, error) {
	return s.bankers, s.err
}

func (s *stubSource) Cards(context.Context) ([]domain.Card, error) { return nil, s.err }

func (s *stubSource) Card(_ context.Context, id string) (domain.Card, error) {
	return domain.Card{CardID: domain.ID(id)}, s.err
}

func (s *stubSource) CreditOffers(context.Context, string) ([]domain.CardOffer, error) {
	return s.offers, s.err
}

func (s *stubSource) LoanOffers(context.Context, string) ([]domain.LoanOffer, error) {
	return s.loans, s.err
}

func (s *stubSource) UserLoan(_ context.Context, id string) (domain.UserLoan, error) {
	return domain.UserLoan{UserLoanID: domain.ID(id)}, s.err
}

func (s *stubSource) VerificationStatus(context.Context, string) (bool, error) { return true, s.err }

var alice = session.Snapshot{UserID: "42", Role: "CUSTOMER", Username: "alice"}

func TestRouteTableAccess(t *testing.T) {
	table := Table()
	cases := []struct {
		path          string
		authenticated bool
		want          session.Outcome
		route         string
	}{
		{"/", false, session.OutcomeAllowed, Home},
		{"/branches/7/bankers", false, session.OutcomeAllowed, Bankers},
		{"/dashboard", false, session.OutcomeUnauthenticated, Dashboard},
		{"/dashboard", true, session.OutcomeAllowed, Dashboard},
		{"/accounts/open/savings", true, session.OutcomeAllowed, AccountOpen},
		{"/accounts/12", true, session.OutcomeAllowed, AccountDetail},
		{"/signup-details", false, session.OutcomeAllowed, SignupDetails},
		{"/nowhere", true, session.OutcomeNotFound, ""},
	}
	for _, tc := range cases {
		d := table.Resolve(tc.path, tc.authenticated)
		if d.Outcome != tc.want || d.Route.Name != tc.route {
			t.Fatalf("Resolve(%q, %v) = %s/%s, want %s/%s", tc.path, tc.authenticated, d.Outcome, d.Route.Name, tc.want, tc.route)
		}
	}
}

func TestEveryRouteHasLoader(t *testing.T) {
	c := NewCatalog(&stubSource{})
	for _, r := range Routes() {
		if _, ok := c.loaders[r.Name]; !ok {
			t.Fatalf("route %s has no loader", r.Name)
		}
		params := map[string]string{}
		for _, seg := range []string{"branchId", "accountId", "accountType", "userLoanId", "cardID", "creditLimit", "creditOfferId"} {
			params[seg] = "1"
		}
		d := session.Decision{Path: r.Pattern, Route: r, Params: params, Outcome: session.OutcomeAllowed}
		page, err := c.Load(context.Background(), d, alice, url.Values{})
		if err != nil {
			t.Fatalf("route %s: %v", r.Name, err)
		}
		if page.Title == "" || page.Name != r.Name {
			t.Fatalf("route %s: unexpected page %+v", r.Name, page)
		}
	}
}

func TestDeniedDecisionRendersNotFound(t *testing.T) {
	c := NewCatalog(&stubSource{})
	d := Table().Resolve("/accounts", false)
	page, err := c.Load(context.Background(), d, session.Snapshot{}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if page.Name != "not-found" {
		t.Fatalf("expected not-found page, got %s", page.Name)
	}
}

func TestAccountDetailUsesQueryFilter(t *testing.T) {
	src := &stubSource{}
	c := NewCatalog(src)
	d := Table().Resolve("/accounts/12", true)
	query := url.Values{"page": {"1"}, "transactionType": {"DEPOSIT"}}

	page, err := c.Load(context.Background(), d, alice, query)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if src.txFilter.Page != 1 || src.txFilter.Size != 10 || src.txFilter.TransactionType != "DEPOSIT" {
		t.Fatalf("unexpected filter %+v", src.txFilter)
	}
	if page.Title != "Account ACC-12" {
		t.Fatalf("title = %q", page.Title)
	}
	if len(page.Forms) != 2 || page.Forms[0].Action != "/accounts/12/deposit" {
		t.Fatalf("unexpected forms %+v", page.Forms)
	}
	links := page.Blocks[1].Links
	if len(links) != 2 || links[0].Href != "/accounts/12?page=0" || links[1].Href != "/accounts/12?page=2" {
		t.Fatalf("unexpected pagination %+v", links)
	}
}

func TestLoaderErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	c := NewCatalog(&stubSource{err: boom})
	_, err := c.Load(context.Background(), Table().Resolve("/accounts", true), alice, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestResetFormCarriesToken(t *testing.T) {
	c := NewCatalog(&stubSource{})
	d := Table().Resolve("/reset-password-form?token=abc", false)
	page, err := c.Load(context.Background(), d, session.Snapshot{}, url.Values{"token": {"abc"}})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if page.Forms[0].Fields["token"] != "abc" {
		t.Fatalf("unexpected form %+v", page.Forms)
	}
}

func TestMoneyGroupsThousands(t *testing.T) {
	cases := map[float64]string{
		1234567.5: "1,234,567.50",
		-3.5:      "-3.50",
	}
	for in, want := range cases {
		if got := money(in); got != want {
			t.Fatalf("money(%v) = %q, want %q", in, got, want)
		}
	}
}

type stubHistory struct {
	username string
	entries  []repository.SessionAuditEntry
}

func (h *stubHistory) History(_ context.Context, username string, _ int) ([]repository.SessionAuditEntry, error) {
	h.username = username
	return h.entries, nil
}

func TestActivityListsOwnHistory(t *testing.T) {
	history := &stubHistory{entries: []repository.SessionAuditEntry{
		{EventType: "session.signed_in", Source: "portal", OccurredAt: time.Now().Add(-time.Hour)},
	}}
	c := NewCatalog(&stubSource{}).WithHistory(history)
	route, params, _ := Table().Match("/activity")
	d := session.Decision{Path: "/activity", Route: route, Params: params, Outcome: session.OutcomeAllowed}

	page, err := c.Load(context.Background(), d, alice, url.Values{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if history.username != "alice" {
		t.Fatalf("history requested for %q", history.username)
	}
	rows := page.Blocks[0].Rows
	if len(rows) != 1 || rows[0][1] != "Signed in" || rows[0][0] != "1 hour ago" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func load(t *testing.T, c *Catalog, path string, snap session.Snapshot, query url.Values) Page {
	t.Helper()
	page, err := c.Load(context.Background(), Table().Resolve(path, snap.Authenticated()), snap, query)
	if err != nil {
		t.Fatalf("Load(%s): %v", path, err)
	}
	return page
}

func TestCreateCardShowsOnlyListedOffers(t *testing.T) {
	c := NewCatalog(&stubSource{offers: []domain.CardOffer{{CardOfferID: "3", CardOfferName: "Gold", CreditLimit: 5000, APR: 19.9}}})
	query := url.Values{"creditLimit": {"5000"}}

	page := load(t, c, "/createCard/77/3", alice, query)
	if len(page.Forms) != 1 || page.Forms[0].Kind != FormCreateCard || page.Forms[0].Action != "/createCard/77/3" {
		t.Fatalf("unexpected forms %+v", page.Forms)
	}
	if page.Forms[0].Fields["creditLimit"] != "5000" || page.Blocks[0].Rows[0][0] != "Gold" {
		t.Fatalf("unexpected page %+v", page)
	}

	page = load(t, c, "/createCard/77/8", alice, query)
	if len(page.Forms) != 0 || page.Title != "Offer unavailable" {
		t.Fatalf("unknown offer should not offer a form: %+v", page)
	}
}

func TestOfferLinksCarryCreditLimit(t *testing.T) {
	c := NewCatalog(&stubSource{offers: []domain.CardOffer{{CardOfferID: "3", CardOfferName: "Gold"}}})
	page := load(t, c, "/creditoffers/77/5000", alice, url.Values{})
	links := page.Blocks[0].Links
	if len(links) != 1 || links[0].Href != "/createCard/77/3?creditLimit=5000" {
		t.Fatalf("unexpected links %+v", links)
	}
}

func TestAccountOpenRejectsUnknownType(t *testing.T) {
	c := NewCatalog(&stubSource{})
	page := load(t, c, "/accounts/open/credit", alice, url.Values{})
	if len(page.Forms) != 1 || page.Forms[0].Fields["accountType"] != "credit" {
		t.Fatalf("unexpected forms %+v", page.Forms)
	}
	page = load(t, c, "/accounts/open/brokerage", alice, url.Values{})
	if len(page.Forms) != 0 {
		t.Fatalf("unknown account type offered a form: %+v", page.Forms)
	}
}

func TestLoansOfferOneApplicationPerOffer(t *testing.T) {
	c := NewCatalog(&stubSource{loans: []domain.LoanOffer{
		{LoanID: "4", LoanType: "AUTO", MinAmount: 1000, MaxAmount: 20000},
		{LoanID: "5", LoanType: "HOME", MinAmount: 50000, MaxAmount: 500000},
	}})
	page := load(t, c, "/loans", alice, url.Values{})
	if len(page.Forms) != 2 || page.Forms[1].Fields["loanID"] != "5" || page.Forms[1].Action != "/loans/apply" {
		t.Fatalf("unexpected forms %+v", page.Forms)
	}
}

func TestBankersBookableWhenSignedIn(t *testing.T) {
	c := NewCatalog(&stubSource{bankers: []domain.Banker{{BankerID: "5", FirstName: "Sam", LastName: "Lee"}}})
	page := load(t, c, "/branches/3/bankers", session.Snapshot{}, url.Values{})
	if len(page.Forms) != 0 {
		t.Fatalf("anonymous visitor offered a booking form: %+v", page.Forms)
	}
	page = load(t, c, "/branches/3/bankers", alice, url.Values{})
	if len(page.Forms) != 1 || page.Forms[0].Action != "/branches/3/appointments" || page.Forms[0].Fields["bankerId"] != "5" {
		t.Fatalf("unexpected forms %+v", page.Forms)
	}
}

func TestCreditSuccessNeedsIssuedCard(t *testing.T) {
	c := NewCatalog(&stubSource{})
	page := load(t, c, "/creditsuccess", alice, url.Values{})
	if page.Title != "No new card" {
		t.Fatalf("title = %q", page.Title)
	}
	page = load(t, c, "/creditsuccess", alice, url.Values{"card": {"9"}})
	if len(page.Blocks[0].Links) == 0 || page.Blocks[0].Links[0].Href != "/viewcard/9" {
		t.Fatalf("unexpected page %+v", page)
	}
}
