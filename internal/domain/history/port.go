package history

import "context"

// Repository port for stored analysis rows
type Repository interface {
	Save(ctx context.Context, r *Record) error
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]*Record, error)
}
