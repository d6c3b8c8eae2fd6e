package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jpalmerr/solarboard/internal/document"
)

// Change sources.
const (
	SourceAPI  = "api"
	SourceFile = "file"
)

// ChangeEvent announces that the dashboard document changed.
type ChangeEvent struct {
	// Source is SourceAPI for range updates made through this service and
	// SourceFile for edits made to the file by something else.
	Source string `json:"source"`

	// PanelID is set for range updates.
	PanelID string `json:"panel_id,omitempty"`

	// Min and Max carry the new range for range updates.
	Min json.RawMessage `json:"min,omitempty"`
	Max json.RawMessage `json:"max,omitempty"`

	// ChangedAt is when the change was observed.
	ChangedAt time.Time `json:"changed_at"`
}

// RangeUpdate requests a new min/max for one panel.
type RangeUpdate struct {
	PanelID string
	Range   document.Range

	// NoMatch marks an id that equals no panel, such as an absent or
	// boolean panelId. PanelID then only names it in the NotFoundError.
	NoMatch bool
}

// Store defines access to the dashboard document and its change feed.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Load reads and parses the current document.
	// Failures are returned as *document.ConfigLoadError.
	Load(ctx context.Context) (*document.Document, error)

	// UpdateRange validates u, applies it to the current document and
	// persists the whole document. Failures are returned as
	// *document.ValidationError, *document.NotFoundError,
	// *document.ConfigLoadError or *document.PersistError.
	UpdateRange(ctx context.Context, u RangeUpdate) error

	// Subscribe returns a channel that receives change events.
	// Caller must call Unsubscribe when done.
	Subscribe() <-chan ChangeEvent

	// Unsubscribe removes a subscription and closes the channel.
	Unsubscribe(ch <-chan ChangeEvent)
}
