package pages

import (
	"context"
	"strings"

	"github.com/securebank/bank-portal/internal/domain"
)

func staticPage(title string, blocks ...Block) Loader {
	return func(context.Context, Request) (Page, error) {
		return Page{Title: title, Blocks: blocks}, nil
	}
}

func (c *Catalog) home(ctx context.Context, req Request) (Page, error) {
	page := Page{
		Title: "Welcome to SecureBank",
		Blocks: []Block{{
			Text: []string{"Banking that keeps up with you. Manage accounts, cards and loans in one place."},
		}},
	}
	if req.Session.Authenticated() {
		page.Blocks = append(page.Blocks, Block{
			Heading: "Hello, " + req.Session.Username,
			Links: []Link{
				{Label: "Dashboard", Href: "/dashboard"},
				{Label: "Accounts", Href: "/accounts"},
			},
		})
		return page, nil
	}
	page.Blocks = append(page.Blocks, Block{
		Links: []Link{
			{Label: "Sign in", Href: "/signin"},
			{Label: "Open an account", Href: "/signup"},
			{Label: "Find a branch", Href: "/branches"},
		},
	})
	return page, nil
}

func (c *Catalog) about(ctx context.Context, req Request) (Page, error) {
	return staticPage("About us", Block{
		Text: []string{
			"SecureBank serves customers through its branches and online banking.",
			"Our bankers are available at every branch by appointment.",
		},
		Links: []Link{{Label: "Branches", Href: "/branches"}, {Label: "Careers", Href: "/careers"}},
	})(ctx, req)
}

func (c *Catalog) help(ctx context.Context, req Request) (Page, error) {
	return staticPage("Help", Block{
		Heading: "Signing in",
		Text:    []string{"Forgot your password? Request a reset link and follow the instructions in the email."},
		Links:   []Link{{Label: "Reset password", Href: "/password-reset-request"}},
	}, Block{
		Heading: "Visiting a branch",
		Links:   []Link{{Label: "Find a branch", Href: "/branches"}},
	})(ctx, req)
}

func (c *Catalog) careers(ctx context.Context, req Request) (Page, error) {
	return staticPage("Careers", Block{
		Text: []string{"We are hiring bankers, engineers and customer advocates. Ask at your nearest branch."},
	})(ctx, req)
}

func (c *Catalog) signupDetails(ctx context.Context, req Request) (Page, error) {
	page := Page{
		Title: "Complete your profile",
		Blocks: []Block{{
			Text:  []string{"Check your inbox to confirm your email address, then finish setting up your profile."},
			Links: []Link{{Label: "Profile", Href: "/user-profile"}, {Label: "Choose a card", Href: "/signup/cards"}},
		}},
	}
	if req.Session.Authenticated() {
		page.Forms = []Form{{Kind: FormResendConfirm, Action: "/auth/resend-confirmation"}}
	}
	return page, nil
}

func (c *Catalog) passwordResetRequest(ctx context.Context, req Request) (Page, error) {
	return Page{
		Title:  "Reset your password",
		Blocks: []Block{{Text: []string{"Enter your email or username and we will send you a reset link."}}},
		Forms:  []Form{{Kind: FormForgotPassword, Action: "/auth/forgot-password"}},
	}, nil
}

func (c *Catalog) passwordResetForm(ctx context.Context, req Request) (Page, error) {
	return Page{
		Title: "Choose a new password",
		Forms: []Form{{
			Kind:   FormResetPassword,
			Action: "/auth/reset-password",
			Fields: map[string]string{"token": req.Query.Get("token")},
		}},
	}, nil
}

func (c *Catalog) signIn(ctx context.Context, req Request) (Page, error) {
	return Page{
		Title:  "Sign in",
		Blocks: []Block{{Links: []Link{{Label: "Forgot password?", Href: "/password-reset-request"}}}},
		Forms:  []Form{{Kind: FormSignIn, Action: "/auth/signin"}},
	}, nil
}

func (c *Catalog) signUp(ctx context.Context, req Request) (Page, error) {
	return Page{
		Title: "Open an account",
		Forms: []Form{{Kind: FormSignUp, Action: "/auth/signup"}},
	}, nil
}

func (c *Catalog) accountOpen(ctx context.Context, req Request) (Page, error) {
	kind := strings.ToLower(req.param("accountType"))
	page := Page{
		Title:  "Open a " + kind + " account",
		Blocks: []Block{{Links: []Link{{Label: "Back to accounts", Href: "/accounts"}}}},
	}
	if !domain.IsAccountType(kind) {
		page.Blocks[0].Text = []string{"We do not offer " + kind + " accounts."}
		return page, nil
	}
	if kind == domain.AccountCredit {
		page.Blocks[0].Text = []string{"Choose a credit limit. We will show you the cards available for it."}
	}
	page.Forms = []Form{{
		Kind:   FormOpenAccount,
		Action: "/accounts/open/" + kind,
		Fields: map[string]string{"accountType": kind},
	}}
	return page, nil
}
