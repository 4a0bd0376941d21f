package services

import (
	"context"
	"fmt"
	"time"

	"github.com/AnshRaj112/journal-backend/internal/logger"
	"github.com/AnshRaj112/journal-backend/internal/metrics"
	"github.com/AnshRaj112/journal-backend/internal/models"
	"github.com/AnshRaj112/journal-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Auditor records journal mutations. Implemented by the audit package.
type Auditor interface {
	Record(ctx context.Context, action, userName, entryID string) error
}

// JournalEntryService keeps the entry collection and each owner's embedded
// journalEntries in sync. Without a transactional store the two writes are not atomic.
type JournalEntryService struct {
	entries repository.Repository[*models.JournalEntry]
	users   *UserService
	tx      repository.Transactor

	publisher EventPublisher
	auditor   Auditor
	metrics   *metrics.Metrics
	now       func() time.Time
}

type JournalOption func(*JournalEntryService)

func WithPublisher(p EventPublisher) JournalOption {
	return func(s *JournalEntryService) { s.publisher = p }
}

func WithAuditor(a Auditor) JournalOption {
	return func(s *JournalEntryService) { s.auditor = a }
}

func WithMetrics(m *metrics.Metrics) JournalOption {
	return func(s *JournalEntryService) { s.metrics = m }
}

// WithClock overrides the source of entry dates.
func WithClock(now func() time.Time) JournalOption {
	return func(s *JournalEntryService) { s.now = now }
}

func NewJournalEntryService(entries repository.Repository[*models.JournalEntry], users *UserService, tx repository.Transactor, opts ...JournalOption) *JournalEntryService {
	if tx == nil {
		tx = repository.NoopTransactor{}
	}
	s := &JournalEntryService{
		entries: entries,
		users:   users,
		tx:      tx,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveEntry stamps the entry date, upserts the entry and puts it into the owner's
// journalEntries, replacing an element with the same id. Every failure is wrapped in ErrPersistence.
func (s *JournalEntryService) SaveEntry(ctx context.Context, entry *models.JournalEntry, userName string) (*models.JournalEntry, error) {
	var saved *models.JournalEntry
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		user, ok, err := s.users.FindByUserName(ctx, userName)
		if err != nil {
			return err
		}
		if !ok {
			return ErrUserNotFound
		}

		// BSON dates carry millisecond precision
		entry.Date = s.now().UTC().Truncate(time.Millisecond)
		saved, err = s.entries.Save(ctx, entry)
		if err != nil {
			return err
		}

		user.PutJournalEntry(*saved)
		_, err = s.users.SaveUser(ctx, user)
		return err
	})
	s.metrics.RecordOperation("journal.save", err)
	if err != nil {
		logger.FromContext(ctx).WithError(err).WithField("userName", userName).Error("failed to save journal entry")
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.notify(ctx, EventEntrySaved, userName, saved)
	return saved, nil
}

// GetAllJournalEntries returns every entry of every user.
func (s *JournalEntryService) GetAllJournalEntries(ctx context.Context) ([]*models.JournalEntry, error) {
	return s.entries.FindAll(ctx)
}

// GetJournalEntryByID does not check ownership.
func (s *JournalEntryService) GetJournalEntryByID(ctx context.Context, id primitive.ObjectID) (*models.JournalEntry, bool, error) {
	return found(s.entries.FindByID(ctx, id))
}

// GetEntriesOfUser returns the owner sequence of userName. found is false for an unknown user.
func (s *JournalEntryService) GetEntriesOfUser(ctx context.Context, userName string) ([]models.JournalEntry, bool, error) {
	user, ok, err := s.users.FindByUserName(ctx, userName)
	if err != nil || !ok {
		return nil, ok, err
	}
	return user.JournalEntries, true, nil
}

// DeleteEntityByID removes the entry from userName's sequence and deletes it from
// the entry collection. Ownership is not enforced: the entry is deleted even when
// it belongs to someone else or userName is unknown.
func (s *JournalEntryService) DeleteEntityByID(ctx context.Context, id primitive.ObjectID, userName string) error {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		user, ok, err := s.users.FindByUserName(ctx, userName)
		if err != nil {
			return err
		}
		if !ok {
			logger.FromContext(ctx).WithField("userName", userName).Warn("user not found, skipping journal entry cleanup")
		} else if user.RemoveJournalEntry(id) {
			if _, err := s.users.SaveUser(ctx, user); err != nil {
				return err
			}
		}
		return s.entries.DeleteByID(ctx, id)
	})
	s.metrics.RecordOperation("journal.delete", err)
	if err != nil {
		return fmt.Errorf("failed to delete journal entry %s: %w", id.Hex(), err)
	}

	s.notify(ctx, EventEntryDeleted, userName, &models.JournalEntry{ID: id})
	return nil
}

// DeleteEntity deletes the entry document only.
func (s *JournalEntryService) DeleteEntity(ctx context.Context, entry *models.JournalEntry) error {
	return s.entries.DeleteByID(ctx, entry.ID)
}

// DeleteAllEntities empties the entry collection. Owner sequences are left as they are.
func (s *JournalEntryService) DeleteAllEntities(ctx context.Context) error {
	return s.entries.DeleteAll(ctx)
}

// AddAttachment appends url to the entry's attachments and saves it for userName.
func (s *JournalEntryService) AddAttachment(ctx context.Context, id primitive.ObjectID, userName, url string) (*models.JournalEntry, bool, error) {
	entry, ok, err := s.GetJournalEntryByID(ctx, id)
	if err != nil || !ok {
		return nil, ok, err
	}
	entry.Attachments = append(entry.Attachments, url)
	saved, err := s.SaveEntry(ctx, entry, userName)
	if err != nil {
		return nil, true, err
	}
	return saved, true, nil
}

// notify publishes and audits a completed mutation. Failures are only logged.
func (s *JournalEntryService) notify(ctx context.Context, eventType, userName string, entry *models.JournalEntry) {
	log := logger.FromContext(ctx).WithField("entryId", entry.ID.Hex())

	if s.publisher != nil {
		event := JournalEvent{
			Type:     eventType,
			UserName: userName,
			EntryID:  entry.ID.Hex(),
		}
		if eventType == EventEntrySaved {
			event.Entry = entry
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.WithError(err).Warn("failed to publish journal event")
		}
	}

	if s.auditor != nil {
		if err := s.auditor.Record(ctx, eventType, userName, entry.ID.Hex()); err != nil {
			log.WithError(err).Warn("failed to record journal audit")
		}
	}
}
