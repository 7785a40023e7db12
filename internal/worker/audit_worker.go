package worker

import (
	"context"
	"sync"

	"github.com/securebank/bank-portal/internal/events"
	"github.com/securebank/bank-portal/internal/service"
)

// StartAuditWorker registers the audit handlers on dispatcher and starts
// writing events in the background. The returned function cancels the
// worker and waits for queued events to be flushed.
func StartAuditWorker(ctx context.Context, auditService *service.AuditService, dispatcher events.Dispatcher) func() {
	if auditService == nil {
		return func() {}
	}
	auditService.RegisterHandlers(dispatcher)

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		auditService.Run(ctx)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}
}
