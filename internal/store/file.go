package store

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/jpalmerr/solarboard/internal/document"
	"github.com/jpalmerr/solarboard/internal/metrics"
)

// FileStore is the file-backed [Store].
//
// Nothing is cached: every Load reads the file. Range updates run one at a
// time and replace the file atomically, so readers never see a partial write.
// Other programs may edit the file between calls.
type FileStore struct {
	path   string
	broker *Broker
	logger zerolog.Logger
	now    func() time.Time

	// mu serializes read-modify-write cycles and external-change checks.
	mu       sync.Mutex
	lastSeen [sha256.Size]byte
	primed   bool
}

// NewFileStore creates a [FileStore] for the document at path.
// Change events are published on broker.
func NewFileStore(path string, broker *Broker, logger zerolog.Logger) *FileStore {
	return &FileStore{
		path:   path,
		broker: broker,
		logger: logger,
		now:    time.Now,
	}
}

// Path returns the document path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and parses the document.
func (s *FileStore) Load(ctx context.Context) (*document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, &document.ConfigLoadError{Path: s.path, Err: err}
	}

	doc, err := document.Load(s.path)
	metrics.RecordDocumentLoad(err == nil)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateRange applies u to the document on disk and publishes a
// [ChangeEvent] with source [SourceAPI].
//
// The range is validated before the file is read. The whole document is
// written back, two-space indented.
func (s *FileStore) UpdateRange(ctx context.Context, u RangeUpdate) error {
	if err := u.Range.Validate(); err != nil {
		metrics.RecordRangeUpdate(metrics.OutcomeInvalid)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.Load(ctx)
	if err != nil {
		metrics.RecordRangeUpdate(metrics.OutcomeFailure)
		return err
	}

	if u.NoMatch {
		metrics.RecordRangeUpdate(metrics.OutcomeNotFound)
		return &document.NotFoundError{PanelID: u.PanelID}
	}

	updated, err := doc.SetRange(u.PanelID, u.Range)
	if err != nil {
		var nf *document.NotFoundError
		if errors.As(err, &nf) {
			metrics.RecordRangeUpdate(metrics.OutcomeNotFound)
		} else {
			metrics.RecordRangeUpdate(metrics.OutcomeFailure)
		}
		return err
	}

	data := updated.Pretty()
	if err := s.write(data); err != nil {
		metrics.RecordRangeUpdate(metrics.OutcomeFailure)
		return &document.PersistError{Path: s.path, Err: err}
	}
	s.remember(data)
	metrics.RecordRangeUpdate(metrics.OutcomeSuccess)

	s.logger.Info().
		Str("panel_id", u.PanelID).
		RawJSON("min", u.Range.Min).
		RawJSON("max", u.Range.Max).
		Msg("panel range updated")

	s.broker.Publish(ChangeEvent{
		Source:    SourceAPI,
		PanelID:   u.PanelID,
		Min:       u.Range.Min,
		Max:       u.Range.Max,
		ChangedAt: s.now(),
	})
	return nil
}

// write replaces the document atomically: temp file, fsync, rename.
func (s *FileStore) write(data []byte) error {
	pendingFile, err := renameio.NewPendingFile(s.path, renameio.WithExistingPermissions())
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		// no-op once committed
		if err := pendingFile.Cleanup(); err != nil {
			s.logger.Debug().Err(err).Msg("cleanup pending document file")
		}
	}()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write document: %w", err)
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace document: %w", err)
	}
	return nil
}

// prime records the current file content as already seen.
func (s *FileStore) prime() {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("dashboard document not readable")
		return
	}
	s.lastSeen = sha256.Sum256(data)
	s.primed = true
}

// remember records data as the latest content. Caller holds s.mu.
func (s *FileStore) remember(data []byte) {
	s.lastSeen = sha256.Sum256(data)
	s.primed = true
}

// CheckExternal compares the file against the last content this store wrote
// or observed. If it differs and still parses, a [ChangeEvent] with source
// [SourceFile] is published and true is returned.
func (s *FileStore) CheckExternal(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return false, &document.ConfigLoadError{Path: s.path, Err: err}
	}

	sum := sha256.Sum256(data)
	if s.primed && sum == s.lastSeen {
		return false, nil
	}

	if _, err := document.Parse(data); err != nil {
		var le *document.ConfigLoadError
		if errors.As(err, &le) {
			le.Path = s.path
		}
		return false, err
	}

	s.lastSeen = sum
	s.primed = true
	s.broker.Publish(ChangeEvent{
		Source:    SourceFile,
		ChangedAt: s.now(),
	})
	return true, nil
}

// Subscribe implements [Store].
func (s *FileStore) Subscribe() <-chan ChangeEvent {
	return s.broker.Subscribe()
}

// Unsubscribe implements [Store].
func (s *FileStore) Unsubscribe(ch <-chan ChangeEvent) {
	s.broker.Unsubscribe(ch)
}
