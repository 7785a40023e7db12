// Package shell is the terminal client: a single-user, long-lived view of
// the bank portal driven by typed commands.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/securebank/bank-portal/internal/domain"
	"github.com/securebank/bank-portal/internal/pages"
	"github.com/securebank/bank-portal/internal/service"
	"github.com/securebank/bank-portal/internal/session"
)

// Payments moves money through the gateway.
type Payments interface {
	Deposit(ctx context.Context, req domain.DepositRequest) error
	Transfer(ctx context.Context, req domain.TransferRequest) error
}

// Options configures an App.
type Options struct {
	Gate     *session.Gate
	Auth     *service.AuthService
	Catalog  *pages.Catalog
	Payments Payments
	In       io.Reader
	Out      io.Writer
	Logger   *zap.Logger
	// Interactive prints prompts. It is off when input is piped.
	Interactive bool
}

// App owns the terminal session. Every change to what is shown happens on
// the goroutine running Run; other goroutines hand work to it with post.
type App struct {
	gate        *session.Gate
	auth        *service.AuthService
	catalog     *pages.Catalog
	payments    Payments
	in          io.Reader
	out         io.Writer
	logger      *zap.Logger
	interactive bool

	ctx     context.Context
	posts   chan func()
	stopped chan struct{}
	stop    sync.Once

	path    string
	nav     int
	modal   *modal
	pending int
	quit    bool

	checkQueued atomic.Bool
	watchCancel context.CancelFunc
	watchers    *errgroup.Group
	unsubscribe func()
}

// New builds an App.
func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		gate:        opts.Gate,
		auth:        opts.Auth,
		catalog:     opts.Catalog,
		payments:    opts.Payments,
		in:          opts.In,
		out:         opts.Out,
		logger:      logger,
		interactive: opts.Interactive,
		posts:       make(chan func(), 64),
		stopped:     make(chan struct{}),
		path:        session.LandingPath,
	}
}

// Mount restores the stored session, subscribes to session changes and
// starts the ticker that schedules expiry checks on the event loop.
func (a *App) Mount(ctx context.Context) session.Status {
	a.ctx = ctx
	status := a.gate.Restore(ctx)

	a.unsubscribe = a.gate.State().Subscribe(func(s session.Snapshot) {
		a.post(func() { a.sessionChanged(s) })
	})

	watchCtx, cancel := context.WithCancel(ctx)
	a.watchCancel = cancel
	a.watchers, watchCtx = errgroup.WithContext(watchCtx)
	a.watchers.Go(func() error {
		a.gate.Every(watchCtx, a.scheduleCheck)
		return nil
	})
	return status
}

// Unmount stops the expiry check and waits for it to exit.
func (a *App) Unmount() {
	a.stop.Do(func() { close(a.stopped) })
	if a.watchCancel != nil {
		a.watchCancel()
		_ = a.watchers.Wait()
		a.watchCancel = nil
	}
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	if a.modal != nil && a.modal.cancel != nil {
		a.modal.cancel()
	}
}

// Run mounts the app and processes commands until quit, end of input or
// ctx cancellation.
func (a *App) Run(ctx context.Context) error {
	status := a.Mount(ctx)
	defer a.Unmount()

	a.printf("SecureBank terminal. Type help for commands.\n")
	if status == session.StatusAuthenticated {
		a.printf("Welcome back, %s.\n", a.gate.State().Read().Username)
	}
	a.navigate(a.path)

	lines := make(chan string)
	go a.readLines(lines)

	for {
		a.prompt()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-a.posts:
			fn()
		case line, ok := <-lines:
			if !ok {
				lines = nil
				break
			}
			a.handle(strings.TrimSpace(line))
		}
		if a.quit || (lines == nil && a.pending == 0) {
			return nil
		}
	}
}

func (a *App) readLines(lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(a.in)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-a.stopped:
			return
		}
	}
}

// post queues fn for the event loop. It is dropped once the app stopped.
func (a *App) post(fn func()) {
	select {
	case a.posts <- fn:
	case <-a.stopped:
	}
}

// async runs work off the event loop. The func work returns is applied on
// the loop.
func (a *App) async(work func() func()) {
	a.pending++
	go func() {
		done := work()
		a.post(func() {
			a.pending--
			done()
		})
	}()
}

// scheduleCheck queues one expiry check on the event loop. Ticks arriving
// while a check is still queued are dropped.
func (a *App) scheduleCheck() {
	if !a.checkQueued.CompareAndSwap(false, true) {
		return
	}
	a.post(func() {
		a.checkQueued.Store(false)
		a.checkSession()
	})
}

// checkSession runs on the event loop for every watcher tick, so it never
// races a navigation's own check.
func (a *App) checkSession() {
	if !session.IsExpired(a.gate.Check(a.ctx, nil)) {
		return
	}
	a.printf("Your session expired. Please sign in again.\n")
	a.navigate(session.LandingPath)
}

func (a *App) sessionChanged(s session.Snapshot) {
	if s.Authenticated() {
		a.logger.Debug("session changed", zap.String("username", s.Username))
		return
	}
	a.logger.Debug("session cleared")
}

func (a *App) prompt() {
	if !a.interactive {
		return
	}
	if a.modal != nil {
		if label := a.modal.label(); label != "" {
			a.printf("%s: ", label)
		}
		return
	}
	who := "guest"
	if snap := a.gate.State().Read(); snap.Authenticated() {
		who = snap.Username
	}
	a.printf("[%s] %s> ", who, a.path)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
