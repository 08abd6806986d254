package settings

import (
	"context"

	"videoadguard/app/database"

	"github.com/samber/do"
	"github.com/samber/oops"
)

type Service struct {
	queries database.TxQueries
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		queries: do.MustInvoke[database.TxQueries](di),
	}, nil
}

func (s *Service) Get(ctx context.Context) (database.Setting, error) {
	result, err := s.queries.GetSettings(ctx)
	if err != nil {
		return database.Setting{}, oops.Errorf("GetSettings: %w", err) //nolint:exhaustruct
	}

	return result, nil
}

func (s *Service) Update(ctx context.Context, setting database.Setting) error {
	if err := s.queries.UpdateSettings(ctx, setting); err != nil {
		return oops.Errorf("UpdateSettings: %w", err)
	}

	return nil
}
