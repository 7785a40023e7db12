package shell

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/securebank/bank-portal/internal/domain"
	"github.com/securebank/bank-portal/internal/gateway"
	"github.com/securebank/bank-portal/internal/pages"
	"github.com/securebank/bank-portal/internal/session"
)

type command struct {
	usage string
	help  string
	run   func(a *App, args []string)
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":     {"help", "list commands", (*App).help},
		"goto":     {"goto <path>", "open a view, e.g. goto /accounts", (*App).gotoPath},
		"back":     {"back", "show the landing view", func(a *App, _ []string) { a.navigate(session.LandingPath) }},
		"signin":   {"signin [username]", "open the sign-in dialog", (*App).signIn},
		"signup":   {"signup", "open the sign-up dialog", func(a *App, _ []string) { a.openModal(modalSignUp, nil) }},
		"close":    {"close", "close the open dialog", func(a *App, _ []string) { a.closeModal() }},
		"signout":  {"signout", "end the session", (*App).signOut},
		"whoami":   {"whoami", "show the signed-in user", (*App).whoami},
		"forgot":   {"forgot <email or username>", "request a password reset link", (*App).forgot},
		"resend":   {"resend <email or username>", "resend the confirmation email", (*App).resend},
		"deposit":  {"deposit <accountId> <amount>", "deposit into an account", (*App).deposit},
		"transfer": {"transfer <fromId> <toId> <amount>", "transfer between accounts", (*App).transfer},
		"quit":     {"quit", "leave", func(a *App, _ []string) { a.quit = true }},
	}
	commands["exit"] = commands["quit"]
}

func (a *App) handle(line string) {
	if a.modal != nil {
		a.modalInput(line)
		return
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	if strings.HasPrefix(fields[0], "/") {
		a.navigate(fields[0])
		return
	}
	cmd, ok := commands[strings.ToLower(fields[0])]
	if !ok {
		a.printf("Unknown command %q. Type help for commands.\n", fields[0])
		return
	}
	cmd.run(a, fields[1:])
}

func (a *App) help(_ []string) {
	names := []string{"help", "goto", "back", "signin", "signup", "close", "signout", "whoami", "forgot", "resend", "deposit", "transfer", "quit"}
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{commands[name].usage, commands[name].help})
	}
	a.table(nil, rows)
}

func (a *App) gotoPath(args []string) {
	if len(args) != 1 {
		a.printf("usage: %s\n", commands["goto"].usage)
		return
	}
	path := args[0]
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	a.navigate(path)
}

// navigate asks the gate about path and shows the resulting view. Only the
// latest navigation is rendered; slower earlier loads are dropped.
func (a *App) navigate(target string) {
	path, query := splitTarget(target)
	decision, expired := a.gate.Authorize(a.ctx, path, nil)
	if expired {
		a.printf("Your session expired. Please sign in again.\n")
		if path != session.LandingPath {
			a.navigate(session.LandingPath)
			return
		}
	}

	a.nav++
	seq := a.nav
	a.path = path
	if !decision.Allowed() {
		a.render(pages.NotFound(decision.Path))
		return
	}

	ctx := a.ctx
	snap := a.gate.State().Read()
	a.async(func() func() {
		page, err := a.catalog.Load(ctx, decision, snap, query)
		return func() {
			if seq != a.nav {
				return
			}
			if err != nil {
				a.loadFailed(err)
				return
			}
			a.render(page)
		}
	})
}

func (a *App) loadFailed(err error) {
	if gateway.StatusOf(err) == http.StatusUnauthorized {
		a.logger.Info("gateway rejected session token")
		a.printf("The bank ended your session. Please sign in again.\n")
		if err := a.gate.SignOut(a.ctx, nil); err != nil {
			a.logger.Warn("sign out after gateway rejection", zap.Error(err))
		}
		a.navigate(session.LandingPath)
		return
	}
	a.logger.Warn("load view", zap.String("path", a.path), zap.Error(err))
	a.printf("Could not load %s: %s\n", a.path, gatewayMessage(err))
}

func (a *App) signIn(args []string) {
	prefill := map[string]string{}
	if len(args) > 0 {
		prefill["username"] = args[0]
	}
	a.openModal(modalSignIn, prefill)
}

// signOut always clears the store, even when no session is shown.
func (a *App) signOut(_ []string) {
	if a.gate.State().Read().Anonymous() {
		a.printf("You are not signed in.\n")
	} else {
		a.printf("Signed out.\n")
	}
	if err := a.gate.SignOut(a.ctx, a.navigate); err != nil {
		a.logger.Warn("sign out", zap.Error(err))
		a.printf("Could not clear the stored session: %v\n", err)
	}
}

func (a *App) whoami(_ []string) {
	snap := a.gate.State().Read()
	if !snap.Authenticated() {
		a.printf("Not signed in.\n")
		return
	}
	rows := [][]string{
		{"Username", snap.Username},
		{"User ID", snap.UserID},
		{"Role", snap.Role},
	}
	if claims, ok := a.gate.Tokens().Payload(a.ctx); ok && !claims.ExpiresAt.IsZero() {
		rows = append(rows, []string{"Session ends", humanize.Time(claims.ExpiresAt)})
	}
	a.table(nil, rows)
}

func (a *App) forgot(args []string) {
	if len(args) != 1 {
		a.printf("usage: %s\n", commands["forgot"].usage)
		return
	}
	ctx := a.ctx
	a.async(func() func() {
		err := a.auth.ForgotPassword(ctx, args[0])
		return func() {
			if err != nil {
				a.printf("%s\n", failureMessage(err))
				return
			}
			a.printf("If the account exists, a reset link is on its way.\n")
		}
	})
}

func (a *App) resend(args []string) {
	if len(args) != 1 {
		a.printf("usage: %s\n", commands["resend"].usage)
		return
	}
	ctx := a.ctx
	a.async(func() func() {
		err := a.auth.ResendConfirmation(ctx, args[0])
		return func() {
			if err != nil {
				a.printf("%s\n", failureMessage(err))
				return
			}
			a.printf("We sent you a new confirmation email.\n")
		}
	})
}

func (a *App) deposit(args []string) {
	if len(args) != 2 {
		a.printf("usage: %s\n", commands["deposit"].usage)
		return
	}
	amount, ok := a.amount(args[1])
	if !ok || !a.requireSession() {
		return
	}
	accountID := args[0]
	a.pay("Deposit", accountID, func() error {
		return a.payments.Deposit(a.ctx, domain.DepositRequest{AccountID: domain.ID(accountID), Amount: amount})
	})
}

func (a *App) transfer(args []string) {
	if len(args) != 3 {
		a.printf("usage: %s\n", commands["transfer"].usage)
		return
	}
	if args[0] == args[1] {
		a.printf("Cannot transfer to the same account.\n")
		return
	}
	amount, ok := a.amount(args[2])
	if !ok || !a.requireSession() {
		return
	}
	source, target := args[0], args[1]
	a.pay("Transfer", source, func() error {
		return a.payments.Transfer(a.ctx, domain.TransferRequest{
			SourceAccountID: domain.ID(source),
			TargetAccountID: domain.ID(target),
			Amount:          amount,
		})
	})
}

func (a *App) pay(label, accountID string, call func() error) {
	a.async(func() func() {
		err := call()
		return func() {
			if err != nil {
				if gateway.StatusOf(err) == http.StatusUnauthorized {
					a.loadFailed(err)
					return
				}
				a.printf("%s failed: %s\n", label, gatewayMessage(err))
				return
			}
			a.printf("%s complete.\n", label)
			a.navigate("/accounts/" + url.PathEscape(accountID))
		}
	})
}

func (a *App) amount(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		a.printf("Amount must be a positive number.\n")
		return 0, false
	}
	return v, true
}

func (a *App) requireSession() bool {
	if a.gate.State().Read().Authenticated() {
		return true
	}
	a.printf("Sign in first.\n")
	return false
}

func splitTarget(target string) (string, url.Values) {
	u, err := url.Parse(target)
	if err != nil || u.Path == "" {
		return target, url.Values{}
	}
	return u.Path, u.Query()
}

func gatewayMessage(err error) string {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%s (%d)", apiErr.Message, apiErr.Status)
	}
	return "the bank could not be reached"
}
