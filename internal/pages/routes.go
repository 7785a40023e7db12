// Package pages holds the portal's route table and the loaders that turn
// gateway data into renderer-neutral pages.
package pages

import "github.com/securebank/bank-portal/internal/session"

// Route names.
const (
	Home                 = "home"
	About                = "about"
	Help                 = "help"
	Careers              = "careers"
	SignupDetails        = "signup-details"
	Branches             = "branches"
	Bankers              = "bankers"
	PasswordResetRequest = "password-reset-request"
	PasswordResetForm    = "reset-password-form"
	SignIn               = "signin"
	SignUp               = "signup"

	UserProfile   = "user-profile"
	Dashboard     = "dashboard"
	Accounts      = "accounts"
	AccountDetail = "account-detail"
	AccountOpen   = "account-open"
	UserLoan      = "user-loan"
	ViewCard      = "view-card"
	CreditOffers  = "credit-offers"
	CreateCard    = "create-card"
	CreditSuccess = "credit-success"
	Cards         = "cards"
	Loans         = "loans"
	SignupCards   = "signup-cards"
	UserSettings  = "user-settings"
	Activity      = "activity"
)

func public(name, pattern string) session.Route {
	return session.Route{Name: name, Pattern: pattern, Access: session.Public}
}

func private(name, pattern string) session.Route {
	return session.Route{Name: name, Pattern: pattern, Access: session.Authenticated}
}

// Routes returns the portal's route table in match order. Public routes
// come first.
func Routes() []session.Route {
	return []session.Route{
		public(Home, "/"),
		public(About, "/about"),
		public(Help, "/help"),
		public(Careers, "/careers"),
		public(SignupDetails, "/signup-details"),
		public(Branches, "/branches"),
		public(Bankers, "/branches/:branchId/bankers"),
		public(PasswordResetRequest, "/password-reset-request"),
		public(PasswordResetForm, "/reset-password-form"),
		public(SignIn, "/signin"),
		public(SignUp, "/signup"),

		private(UserProfile, "/user-profile"),
		private(Dashboard, "/dashboard"),
		private(Accounts, "/accounts"),
		private(AccountOpen, "/accounts/open/:accountType"),
		private(AccountDetail, "/accounts/:accountId"),
		private(UserLoan, "/userloan/:userLoanId"),
		private(ViewCard, "/viewcard/:cardID"),
		private(CreditOffers, "/creditoffers/:accountId/:creditLimit"),
		private(CreateCard, "/createCard/:accountId/:creditOfferId"),
		private(CreditSuccess, "/creditsuccess"),
		private(Cards, "/cards"),
		private(Loans, "/loans"),
		private(SignupCards, "/signup/cards"),
		private(UserSettings, "/user-settings"),
		private(Activity, "/activity"),
	}
}

// Table compiles Routes.
func Table() *session.RouteTable {
	return session.NewRouteTable(Routes()...)
}
