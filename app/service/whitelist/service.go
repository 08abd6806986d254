package whitelist

import (
	"context"
	"time"

	"videoadguard/app/database"
	"videoadguard/app/dto"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
	"github.com/samber/oops"
)

// Service manages the set of uploaders exempted from detection.
type Service struct {
	queries database.TxQueries
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		queries: do.MustInvoke[database.TxQueries](di),
	}, nil
}

func (s *Service) List(ctx context.Context) ([]dto.WhitelistEntry, error) {
	entries, err := s.queries.ListWhitelistEntries(ctx)
	if err != nil {
		return nil, oops.Errorf("ListWhitelistEntries: %w", err)
	}

	return pie.Map(entries, func(entry database.WhitelistEntry) dto.WhitelistEntry {
		return dto.WhitelistEntry{
			UID:         entry.UID,
			DisplayName: entry.DisplayName,
			AddedAt:     entry.AddedAt,
		}
	}), nil
}

// Add inserts an uploader. Returns false if the uploader was already present.
func (s *Service) Add(ctx context.Context, uid, displayName string) (bool, error) {
	added, err := s.queries.AddWhitelistEntry(ctx, database.AddWhitelistEntryParams{
		UID:         uid,
		DisplayName: displayName,
		AddedAt:     time.Now(),
	})
	if err != nil {
		return false, oops.Errorf("AddWhitelistEntry: %w", err)
	}

	return added, nil
}

// Remove deletes an uploader. Returns false if the uploader was not present.
func (s *Service) Remove(ctx context.Context, uid string) (bool, error) {
	removed, err := s.queries.RemoveWhitelistEntry(ctx, uid)
	if err != nil {
		return false, oops.Errorf("RemoveWhitelistEntry: %w", err)
	}

	return removed, nil
}

func (s *Service) Has(ctx context.Context, uid string) (bool, error) {
	result, err := s.queries.HasWhitelistEntry(ctx, uid)
	if err != nil {
		return false, oops.Errorf("HasWhitelistEntry: %w", err)
	}

	return result, nil
}
