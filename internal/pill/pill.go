// Package pill implements the detail-view orchestrator behind an entity's
// content panel: it routes to the right aggregate fetcher, keeps the
// filter-pill selection state, and exposes the active sub-list.
package pill

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/hivehq/hive-bff/internal/dents"
	"github.com/hivehq/hive-bff/internal/models"
)

// ErrMissingIdentifier is recorded when a refresh has neither a contact id
// nor a home-member id to fetch for. It is surfaced via Err, never panicked.
var ErrMissingIdentifier = errors.New("no contact, tile, or user identifier")

// Pill labels. The zero-state selection is Tasks.
const (
	LabelTasks  = "Tasks"
	LabelNotes  = "Notes"
	LabelDocs   = "Docs"
	LabelEvents = "Events"
)

// Pill is one filter pill: a label, its selection flag, and the count
// sourced from the last fetched aggregate.
type Pill struct {
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
	Count    int    `json:"count"`
}

// pillKind maps a pill label to the aggregate content kind it counts.
var pillKind = map[string]models.ContentKind{
	LabelTasks:  models.KindTasks,
	LabelNotes:  models.KindNotes,
	LabelDocs:   models.KindFiles,
	LabelEvents: models.KindEvents,
}

// Identity names the entity a detail view is showing and the credentials
// context the fetch runs under.
type Identity struct {
	AccountID    string
	UserID       string
	ContactID    string
	HomeMemberID string
	EntityType   models.EntityType
}

// Detail orchestrates one entity detail view. Safe for concurrent use.
type Detail struct {
	fetcher dents.Fetcher
	logger  *slog.Logger

	mu        sync.Mutex
	pills     []Pill
	aggregate *models.DentsResponse
	loading   bool
	err       error
	seq       uint64 // last issued fetch sequence
	applied   uint64 // sequence of the installed aggregate
}

// NewDetail creates a Detail with the default pill set, Tasks selected.
func NewDetail(fetcher dents.Fetcher, logger *slog.Logger) *Detail {
	return &Detail{
		fetcher: fetcher,
		logger:  logger,
		pills: []Pill{
			{Label: LabelTasks, Selected: true},
			{Label: LabelNotes},
			{Label: LabelDocs},
			{Label: LabelEvents},
		},
	}
}

// Select marks the pill with the given label selected and deselects all
// others. Exactly one pill is selected after any call; an unknown label
// leaves the selection unchanged. Counts are never touched by selection.
func (d *Detail) Select(label string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	known := false
	for i := range d.pills {
		if d.pills[i].Label == label {
			known = true
			break
		}
	}
	if !known {
		return
	}
	for i := range d.pills {
		d.pills[i].Selected = d.pills[i].Label == label
	}
}

// Refresh fetches the aggregate for id and installs it, unless a newer
// refresh was issued while this one was in flight: stale results are
// discarded so rapid identity changes cannot overwrite fresher state.
//
// Routing: ContactID wins; else HomeMemberID with EntityType user goes to
// the user fetcher; else HomeMemberID goes to the tile fetcher; with
// neither, ErrMissingIdentifier is recorded and the state is untouched.
//
// A degraded fetch (upstream failure absorbed into the empty aggregate)
// installs the empty aggregate and leaves Err nil: the panel shows empty
// lists, not an error banner. Only the missing-identifier precondition is
// surfaced as an error.
func (d *Detail) Refresh(ctx context.Context, id Identity) {
	d.mu.Lock()
	d.seq++
	seq := d.seq
	d.loading = true
	d.err = nil
	d.mu.Unlock()

	var (
		resp *models.DentsResponse
		err  error
	)
	opts := dents.Options{AccountID: id.AccountID, UserID: id.UserID}

	switch {
	case id.ContactID != "":
		resp, err = d.fetcher.ContactDents(ctx, id.ContactID, opts)
	case id.HomeMemberID != "" && id.EntityType == models.EntityUser:
		resp, err = d.fetcher.UserDents(ctx, id.HomeMemberID, opts)
	case id.HomeMemberID != "":
		resp, err = d.fetcher.TileDents(ctx, id.HomeMemberID, opts)
	default:
		d.finish(seq, nil, ErrMissingIdentifier)
		return
	}

	if err != nil {
		// The fetcher already degraded to a well-shaped empty aggregate;
		// keep the empty-state UX and only log the cause.
		d.logger.Warn("detail refresh degraded", "entityId", resp.EntityID, "error", err)
	}
	d.finish(seq, resp, nil)
}

// finish installs the outcome of fetch seq if it is still the newest.
func (d *Detail) finish(seq uint64, resp *models.DentsResponse, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if seq != d.seq {
		d.logger.Debug("discarding stale dents response", "seq", seq, "latest", d.seq)
		return
	}
	d.loading = false
	if err != nil {
		d.err = err
		return
	}
	d.aggregate = resp
	d.applied = seq
	for i := range d.pills {
		d.pills[i].Count = resp.Count(pillKind[d.pills[i].Label])
	}
}

// Pills returns a copy of the current pill states.
func (d *Detail) Pills() []Pill {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Pill, len(d.pills))
	copy(out, d.pills)
	return out
}

// Selected returns the label of the selected pill.
func (d *Detail) Selected() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.pills {
		if d.pills[i].Selected {
			return d.pills[i].Label
		}
	}
	return ""
}

// Counts returns the per-kind counts from the installed aggregate.
func (d *Detail) Counts() map[models.ContentKind]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[models.ContentKind]int, len(d.pills))
	for i := range d.pills {
		out[pillKind[d.pills[i].Label]] = d.pills[i].Count
	}
	return out
}

// Items returns the active sub-view's list: the items of whichever kind the
// selected pill filters for, as loosely-typed rows for rendering.
func (d *Detail) Items() []any {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.aggregate == nil {
		return nil
	}
	var selected string
	for i := range d.pills {
		if d.pills[i].Selected {
			selected = d.pills[i].Label
		}
	}
	switch pillKind[selected] {
	case models.KindTasks:
		out := make([]any, len(d.aggregate.Dents.Tasks))
		for i := range d.aggregate.Dents.Tasks {
			out[i] = d.aggregate.Dents.Tasks[i]
		}
		return out
	case models.KindNotes:
		out := make([]any, len(d.aggregate.Dents.Notes))
		for i := range d.aggregate.Dents.Notes {
			out[i] = d.aggregate.Dents.Notes[i]
		}
		return out
	case models.KindFiles:
		out := make([]any, len(d.aggregate.Dents.Files))
		for i := range d.aggregate.Dents.Files {
			out[i] = d.aggregate.Dents.Files[i]
		}
		return out
	case models.KindEvents:
		out := make([]any, len(d.aggregate.Dents.Events))
		for i := range d.aggregate.Dents.Events {
			out[i] = d.aggregate.Dents.Events[i]
		}
		return out
	}
	return nil
}

// Aggregate returns the installed aggregate, nil before the first refresh.
func (d *Detail) Aggregate() *models.DentsResponse {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.aggregate
}

// Loading reports whether a refresh is in flight.
func (d *Detail) Loading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loading
}

// Err returns the recorded precondition error, if any.
func (d *Detail) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}
