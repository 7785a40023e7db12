package pages

import (
	"context"

	"github.com/dustin/go-humanize"

	"github.com/securebank/bank-portal/internal/events"
	"github.com/securebank/bank-portal/internal/repository"
)

const activityLimit = 20

// HistorySource lists the recorded session events of one user.
type HistorySource interface {
	History(ctx context.Context, username string, limit int) ([]repository.SessionAuditEntry, error)
}

var eventLabels = map[string]string{
	string(events.EventSignedIn):       "Signed in",
	string(events.EventSignedOut):      "Signed out",
	string(events.EventSessionExpired): "Session expired",
	string(events.EventAccessDenied):   "Page refused",
}

// WithHistory enables the activity view.
func (c *Catalog) WithHistory(h HistorySource) *Catalog {
	c.history = h
	return c
}

func (c *Catalog) activity(ctx context.Context, req Request) (Page, error) {
	page := Page{Title: "Recent activity"}
	if c.history == nil {
		page.Blocks = []Block{{Text: []string{"Activity history is not available."}}}
		return page, nil
	}

	entries, err := c.history.History(ctx, req.Session.Username, activityLimit)
	if err != nil {
		return Page{}, err
	}
	b := Block{Heading: "Sessions", Columns: []string{"When", "Event", "Where"}}
	for _, e := range entries {
		label, ok := eventLabels[e.EventType]
		if !ok {
			label = e.EventType
		}
		b.Rows = append(b.Rows, []string{humanize.Time(e.OccurredAt), label, e.Source})
	}
	if len(b.Rows) == 0 {
		b.Columns = nil
		b.Text = []string{"No recorded activity yet."}
	}
	page.Blocks = []Block{b}
	return page, nil
}
