package history

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	domain "github.com/bryanwahyu/greenscan/internal/domain/history"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Service reads past analyses for the history drawer
type Service struct {
	Repo     domain.Repository
	PageSize int
}

func NewService(repo domain.Repository, pageSize int) *Service {
	return &Service{Repo: repo, PageSize: pageSize}
}

// List returns one page of decoded history entries for userID, newest first.
// page starts at 1; pageSize <= 0 uses the configured default.
func (s *Service) List(ctx context.Context, userID string, page, pageSize int) ([]domain.Entry, error) {
	if page <= 0 {
		page = 1
	}
	pageSize = s.PageSizeFor(pageSize)

	records, err := s.Repo.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list history",
			goerr.V("user_id", userID), goerr.V("page", page))
	}
	return domain.DecodeAll(records), nil
}

// PageSizeFor resolves a requested page size against the default and the cap
func (s *Service) PageSizeFor(pageSize int) int {
	if pageSize <= 0 {
		pageSize = s.PageSize
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return pageSize
}
