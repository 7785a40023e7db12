package shell

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/securebank/bank-portal/internal/domain"
	"github.com/securebank/bank-portal/internal/service"
	"github.com/securebank/bank-portal/internal/session"
)

const (
	modalSignIn = "signin"
	modalSignUp = "signup"
)

// modal collects the fields of a sign-in or sign-up dialog one line at a
// time. Once submitted it waits for the gateway until it is answered or
// closed.
type modal struct {
	kind      string
	fields    []string
	values    map[string]string
	next      int
	submitted bool
	cancel    context.CancelFunc
}

func newModal(kind string, prefill map[string]string) *modal {
	m := &modal{kind: kind, values: map[string]string{}}
	switch kind {
	case modalSignIn:
		m.fields = []string{"username", "password"}
	case modalSignUp:
		m.fields = []string{"username", "email", "password"}
	}
	for k, v := range prefill {
		if v != "" {
			m.values[k] = v
		}
	}
	m.skipFilled()
	return m
}

func (m *modal) skipFilled() {
	for m.next < len(m.fields) && m.values[m.fields[m.next]] != "" {
		m.next++
	}
}

// label is the field currently asked for, or "" while waiting.
func (m *modal) label() string {
	if m.submitted || m.next >= len(m.fields) {
		return ""
	}
	return m.fields[m.next]
}

func (m *modal) fill(value string) {
	m.values[m.fields[m.next]] = value
	m.next++
	m.skipFilled()
}

func (m *modal) complete() bool {
	return m.next >= len(m.fields)
}

// reopen keeps the username and asks for everything else again.
func (m *modal) reopen() {
	username := m.values["username"]
	m.values = map[string]string{"username": username}
	m.next = 0
	m.submitted = false
	m.cancel = nil
	m.skipFilled()
}

func (a *App) openModal(kind string, prefill map[string]string) {
	if a.modal != nil {
		a.printf("Finish or close the %s dialog first.\n", a.modal.kind)
		return
	}
	if a.gate.State().Read().Authenticated() {
		a.printf("You are already signed in. Sign out first.\n")
		return
	}
	a.modal = newModal(kind, prefill)
	a.printf("%s (type close to cancel)\n", titleOf(kind))
	a.maybeSubmit()
}

// closeModal dismisses the dialog. An in-flight request is cancelled and
// its late answer ignored.
func (a *App) closeModal() {
	m := a.modal
	if m == nil {
		a.printf("Nothing to close.\n")
		return
	}
	if m.cancel != nil {
		m.cancel()
	}
	a.modal = nil
	a.printf("%s closed.\n", titleOf(m.kind))
}

func (a *App) modalInput(line string) {
	m := a.modal
	if line == "close" {
		a.closeModal()
		return
	}
	if m.submitted {
		a.printf("Waiting for the bank. Type close to cancel.\n")
		return
	}
	m.fill(line)
	a.maybeSubmit()
}

func (a *App) maybeSubmit() {
	m := a.modal
	if !m.complete() {
		return
	}
	ctx, cancel := context.WithCancel(a.ctx)
	m.submitted = true
	m.cancel = cancel
	values := m.values

	a.async(func() func() {
		issued, err := a.request(ctx, m.kind, values)
		return func() {
			defer cancel()
			if a.modal != m {
				a.logger.Debug("ignoring answer for a closed dialog", zap.String("dialog", m.kind))
				return
			}
			var landing string
			if err == nil {
				landing, err = a.auth.Start(ctx, a.gate, issued)
			}
			if err != nil {
				a.printf("%s\n", failureMessage(err))
				m.reopen()
				return
			}
			a.modal = nil
			a.landed(landing)
		}
	})
}

// request only talks to the gateway. The session is started on the event
// loop once the dialog is known to still be open.
func (a *App) request(ctx context.Context, kind string, values map[string]string) (service.Issued, error) {
	if kind == modalSignUp {
		return a.auth.Register(ctx, domain.RegisterRequest{
			Username: values["username"],
			Email:    values["email"],
			Password: values["password"],
		})
	}
	return a.auth.Authenticate(ctx, values["username"], values["password"])
}

// landed shows the first view after a successful sign-in or sign-up.
func (a *App) landed(landing string) {
	snap := a.gate.State().Read()
	a.printf("Signed in as %s.\n", snap.Username)
	if strings.HasPrefix(landing, "http://") || strings.HasPrefix(landing, "https://") {
		a.printf("Administrators continue at %s\n", landing)
		a.navigate(session.LandingPath)
		return
	}
	a.navigate(landing)
}

func failureMessage(err error) string {
	var failure *service.AuthenticationFailure
	if errors.As(err, &failure) {
		return failure.Message
	}
	if session.IsMalformed(err) || session.IsExpired(err) {
		return "The bank returned an unusable session. Please try again."
	}
	return "Something went wrong: " + err.Error()
}

func titleOf(kind string) string {
	if kind == modalSignUp {
		return "Sign up"
	}
	return "Sign in"
}
