package shell

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/securebank/bank-portal/internal/pages"
)

// formHints tells the user which command replaces a page's form.
var formHints = map[string]string{
	pages.FormSignIn:         "signin [username]",
	pages.FormSignUp:         "signup",
	pages.FormForgotPassword: "forgot <email or username>",
	pages.FormResetPassword:  "open the reset link from your email in the web portal",
	pages.FormDeposit:        "deposit <accountId> <amount>",
	pages.FormTransfer:       "transfer <fromId> <toId> <amount>",
	pages.FormResendConfirm:  "resend <email or username>",
}

// webForms are the forms only the web portal submits.
var webForms = map[string]string{
	pages.FormProfile:     "edit your profile",
	pages.FormOpenAccount: "open this account",
	pages.FormCreateCard:  "request this card",
	pages.FormDeleteCard:  "cancel this card",
	pages.FormApplyLoan:   "apply for a loan",
	pages.FormAppointment: "book a banker",
	pages.FormDeactivate:  "close your online account",
}

func (a *App) render(page pages.Page) {
	a.printf("\n== %s ==\n", page.Title)
	for _, block := range page.Blocks {
		if block.Heading != "" {
			a.printf("\n%s\n%s\n", block.Heading, strings.Repeat("-", len(block.Heading)))
		}
		for _, text := range block.Text {
			a.printf("%s\n", text)
		}
		if len(block.Rows) > 0 {
			a.table(block.Columns, block.Rows)
		}
		for _, link := range block.Links {
			a.printf("  > %s: %s\n", link.Label, link.Href)
		}
	}
	shown := map[string]bool{}
	for _, form := range page.Forms {
		hint, ok := formHints[form.Kind]
		if !ok {
			if action, web := webForms[form.Kind]; web && !shown[form.Kind] {
				shown[form.Kind] = true
				a.printf("  web portal: %s\n", action)
			}
			continue
		}
		if len(form.Fields) > 0 {
			a.printf("  use: %s  (%s)\n", hint, formatFields(form.Fields))
			continue
		}
		a.printf("  use: %s\n", hint)
	}
	a.printf("\n")
}

func (a *App) table(columns []string, rows [][]string) {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	if len(columns) > 0 {
		fmt.Fprintln(w, "  "+strings.Join(columns, "\t"))
	}
	for _, row := range rows {
		fmt.Fprintln(w, "  "+strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatFields(values map[string]string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+values[k])
	}
	return strings.Join(parts, " ")
}
