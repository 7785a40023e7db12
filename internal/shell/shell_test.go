package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/securebank/bank-portal/internal/events"
	"github.com/securebank/bank-portal/internal/gateway"
	"github.com/securebank/bank-portal/internal/pages"
	"github.com/securebank/bank-portal/internal/service"
	"github.com/securebank/bank-portal/internal/session"
	"github.com/securebank/bank-portal/internal/tokenstore"
)

// syncBuffer is written by the event loop and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func signToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    "alice",
		"userId": 42,
		"role":   "CUSTOMER",
		"exp":    exp.Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

type bank struct {
	issued    string
	rejectAll atomic.Bool
	hold      chan struct{}
	deposits  atomic.Int32
}

type harness struct {
	bank    *bank
	store   *tokenstore.Memory
	client  *gateway.Client
	out     *syncBuffer
	now     atomic.Int64
	events  events.Dispatcher
	expired atomic.Int32
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		bank:  &bank{issued: signToken(t, time.Now().Add(time.Hour))},
		store: tokenstore.NewMemory(tokenstore.Config{}),
		out:   &syncBuffer{},
	}
	h.now.Store(time.Now().UnixNano())
	h.events = events.NewInMemoryDispatcher()
	h.events.Subscribe(func(context.Context, events.Event) error {
		h.expired.Add(1)
		return nil
	}, events.EventSessionExpired)

	reply := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	b := h.bank
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/authenticate", func(w http.ResponseWriter, r *http.Request) {
		if b.hold != nil {
			select {
			case <-b.hold:
			case <-r.Context().Done():
				return
			}
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			reply(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
			return
		}
		reply(w, http.StatusOK, map[string]string{"token": b.issued})
	})
	mux.HandleFunc("/api/v1/users/42", func(w http.ResponseWriter, r *http.Request) {
		if b.rejectAll.Load() || r.Header.Get("Authorization") != "Bearer "+b.issued {
			reply(w, http.StatusUnauthorized, map[string]string{"message": "expired"})
			return
		}
		reply(w, http.StatusOK, map[string]any{"userId": 42, "username": "alice", "email": "alice@example.com", "isVerified": true})
	})
	mux.HandleFunc("/api/v1/accounts/details/12", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]any{"accountId": 12, "accountNumber": "ACC-12", "balance": 10})
	})
	mux.HandleFunc("/api/v1/transactions/by-account/12", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]any{"data": map[string]any{"content": []any{}}})
	})
	mux.HandleFunc("/api/v1/transactions/deposit", func(w http.ResponseWriter, r *http.Request) {
		b.deposits.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	t.Cleanup(func() {
		if b.hold != nil {
			close(b.hold)
		}
	})
	return h.withGateway(srv.URL)
}

func (h *harness) withGateway(url string) *harness {
	h.client = gateway.New(gateway.Options{BaseURL: url, Timeout: 2 * time.Second, Tokens: h.store})
	return h
}

func (h *harness) clock() time.Time { return time.Unix(0, h.now.Load()) }

func (h *harness) app(in io.Reader) *App {
	gate := session.NewGate(h.store, session.NewState(), session.Options{
		Routes:        pages.Table(),
		Dispatcher:    h.events,
		Clock:         h.clock,
		CheckInterval: 5 * time.Millisecond,
	})
	return New(Options{
		Gate:     gate,
		Auth:     service.NewAuthService(service.AuthDependencies{Gateway: h.client, AdminURL: "https://admin.example"}),
		Catalog:  pages.NewCatalog(h.client),
		Payments: h.client,
		In:       in,
		Out:      h.out,
	})
}

func (h *harness) run(t *testing.T, script string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.app(strings.NewReader(script)).Run(ctx); err != nil {
		t.Fatalf("Run: %v\n%s", err, h.out.String())
	}
	return h.out.String()
}

func (h *harness) stored(t *testing.T) string {
	t.Helper()
	token, err := h.store.Get(context.Background())
	if errors.Is(err, session.ErrNoToken) {
		return ""
	}
	if err != nil {
		t.Fatalf("store get: %v", err)
	}
	return token
}

// start runs the app on a pipe. Closing feed ends the input.
func (h *harness) start(t *testing.T, ctx context.Context) (*io.PipeWriter, <-chan error) {
	t.Helper()
	in, feed := io.Pipe()
	t.Cleanup(func() { _ = feed.Close() })
	done := make(chan error, 1)
	go func() { done <- h.app(in).Run(ctx) }()
	return feed, done
}

func wait(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(3 * time.Second):
		t.Fatalf("Run did not stop")
		return nil
	}
}

func waitFor(t *testing.T, out *syncBuffer, text string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), text) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("output never contained %q:\n%s", text, out.String())
}

func TestAnonymousCannotReachAuthenticatedViews(t *testing.T) {
	h := newHarness(t)
	out := h.run(t, "goto /dashboard\n/nowhere\n")

	if strings.Count(out, "Page not found") != 2 {
		t.Fatalf("expected two not-found views:\n%s", out)
	}
}

func TestSignInDialogStartsSessionAndLandsOnProfile(t *testing.T) {
	h := newHarness(t)
	out := h.run(t, "signin alice\nsecret\n")

	if !strings.Contains(out, "Signed in as alice.") || !strings.Contains(out, "Your profile") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if h.stored(t) != h.bank.issued {
		t.Fatalf("token not stored")
	}

	out = h.run(t, "whoami\n")
	if !strings.Contains(out, "Welcome back, alice.") || !strings.Contains(out, "CUSTOMER") {
		t.Fatalf("session not restored:\n%s", out)
	}
	if !strings.Contains(out, "from now") {
		t.Fatalf("expiry not shown:\n%s", out)
	}
}

func TestRejectedSignInKeepsDialogOpen(t *testing.T) {
	h := newHarness(t)
	feed, done := h.start(t, context.Background())

	_, _ = io.WriteString(feed, "signin alice\nwrong\n")
	waitFor(t, h.out, "Invalid username or password")
	if h.stored(t) != "" {
		t.Fatalf("token stored after rejection")
	}

	_, _ = io.WriteString(feed, "secret\n")
	waitFor(t, h.out, "Signed in as alice.")
	_ = feed.Close()
	if err := wait(t, done); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestClosingDialogIgnoresLateAnswer(t *testing.T) {
	h := newHarness(t)
	h.bank.hold = make(chan struct{})
	out := h.run(t, "signin alice\nsecret\nclose\n")

	if !strings.Contains(out, "Sign in closed.") {
		t.Fatalf("dialog not closed:\n%s", out)
	}
	if strings.Contains(out, "Signed in as") {
		t.Fatalf("closed dialog still signed in:\n%s", out)
	}
	if h.stored(t) != "" {
		t.Fatalf("token stored after close")
	}
}

func TestAnswerProcessedAfterCloseLeavesSessionAnonymous(t *testing.T) {
	h := newHarness(t)
	a := h.app(strings.NewReader(""))
	a.ctx = context.Background()

	a.handle("signin alice")
	a.handle("secret")
	var answer func()
	select {
	case answer = <-a.posts:
	case <-time.After(3 * time.Second):
		t.Fatalf("gateway never answered")
	}
	if a.gate.State().Read().Authenticated() || h.stored(t) != "" {
		t.Fatalf("session started before the event loop saw the answer")
	}

	a.handle("close")
	answer()
	if snap := a.gate.State().Read(); !snap.Anonymous() {
		t.Fatalf("closed dialog started a session: %+v", snap)
	}
	if h.stored(t) != "" {
		t.Fatalf("token stored after close")
	}
	if strings.Contains(h.out.String(), "Signed in as") {
		t.Fatalf("closed dialog still signed in:\n%s", h.out.String())
	}
}

func TestSignOutClearsStore(t *testing.T) {
	h := newHarness(t)
	if err := h.store.Set(context.Background(), h.bank.issued, time.Hour); err != nil {
		t.Fatalf("seed: %v", err)
	}
	out := h.run(t, "signout\nsignout\n")

	if !strings.Contains(out, "Signed out.") || !strings.Contains(out, "You are not signed in.") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if h.stored(t) != "" {
		t.Fatalf("token survived sign out")
	}
}

func TestGatewayRejectionSignsOut(t *testing.T) {
	h := newHarness(t)
	if err := h.store.Set(context.Background(), h.bank.issued, time.Hour); err != nil {
		t.Fatalf("seed: %v", err)
	}
	h.bank.rejectAll.Store(true)
	out := h.run(t, "goto /user-profile\n")

	if !strings.Contains(out, "The bank ended your session.") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if h.stored(t) != "" {
		t.Fatalf("token survived gateway rejection")
	}
}

func TestDepositValidatesAndRequiresSession(t *testing.T) {
	h := newHarness(t)
	out := h.run(t, "deposit 12 -5\ndeposit 12 10\n")
	if !strings.Contains(out, "Amount must be a positive number.") || !strings.Contains(out, "Sign in first.") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if h.bank.deposits.Load() != 0 {
		t.Fatalf("deposit reached the gateway")
	}

	if err := h.store.Set(context.Background(), h.bank.issued, time.Hour); err != nil {
		t.Fatalf("seed: %v", err)
	}
	out = h.run(t, "deposit 12 10.50\n")
	if !strings.Contains(out, "Deposit complete.") || h.bank.deposits.Load() != 1 {
		t.Fatalf("deposit not made:\n%s", out)
	}
}

func TestWatcherSignsOutExpiredSession(t *testing.T) {
	h := newHarness(t)
	if err := h.store.Set(context.Background(), h.bank.issued, 24*time.Hour); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, done := h.start(t, ctx)

	waitFor(t, h.out, "Welcome back, alice.")
	h.now.Store(time.Now().Add(2 * time.Hour).UnixNano())
	waitFor(t, h.out, "Your session expired.")

	cancel()
	if err := wait(t, done); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v", err)
	}
	if h.stored(t) != "" {
		t.Fatalf("expired token kept")
	}
}

func TestWatcherOnlySchedulesChecks(t *testing.T) {
	h := newHarness(t)
	if err := h.store.Set(context.Background(), h.bank.issued, 24*time.Hour); err != nil {
		t.Fatalf("seed: %v", err)
	}
	a := h.app(strings.NewReader(""))
	if status := a.Mount(context.Background()); status != session.StatusAuthenticated {
		t.Fatalf("status = %v", status)
	}
	defer a.Unmount()
	h.now.Store(time.Now().Add(2 * time.Hour).UnixNano())

	var tick func()
	select {
	case tick = <-a.posts:
	case <-time.After(3 * time.Second):
		t.Fatalf("watcher never ticked")
	}
	if !a.gate.State().Read().Authenticated() || h.stored(t) == "" {
		t.Fatalf("watcher changed the session off the event loop")
	}

	tick()
	a.handle("goto /dashboard")
	if a.gate.State().Read().Authenticated() {
		t.Fatalf("expired session kept")
	}
	if n := strings.Count(h.out.String(), "Your session expired."); n != 1 {
		t.Fatalf("expiry reported %d times:\n%s", n, h.out.String())
	}
	if n := h.expired.Load(); n != 1 {
		t.Fatalf("expired events = %d", n)
	}
}

func TestUnmountStopsWatcher(t *testing.T) {
	h := newHarness(t)
	a := h.app(strings.NewReader(""))
	a.Mount(context.Background())

	stopped := make(chan struct{})
	go func() {
		a.Unmount()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatalf("Unmount did not return")
	}
}

func TestWebOnlyFormsArePointedOutOnce(t *testing.T) {
	var out bytes.Buffer
	a := New(Options{Out: &out})
	a.render(pages.Page{
		Title: "Loan offers",
		Forms: []pages.Form{
			{Kind: pages.FormApplyLoan, Fields: map[string]string{"loanID": "4"}},
			{Kind: pages.FormApplyLoan, Fields: map[string]string{"loanID": "5"}},
			{Kind: pages.FormDeposit},
		},
	})
	got := out.String()
	if strings.Count(got, "web portal: apply for a loan") != 1 || !strings.Contains(got, "use: deposit") {
		t.Fatalf("unexpected output %q", got)
	}
}
