package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/m-mizutani/goerr/v2"

	domain "github.com/bryanwahyu/greenscan/internal/domain/history"
	"github.com/bryanwahyu/greenscan/internal/infra/db"
)

type HistoryRepository struct {
	db    *sql.DB
	table string
}

func NewHistoryRepository(conn *sql.DB, table string) *HistoryRepository {
	if table == "" {
		table = db.DefaultHistoryTable
	}
	return &HistoryRepository{db: conn, table: table}
}

func (r *HistoryRepository) Migrate(ctx context.Context) error {
	q := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
  %[2]s BIGSERIAL PRIMARY KEY,
  %[3]s TEXT NOT NULL,
  %[4]s TEXT, %[5]s TEXT, %[6]s TEXT, %[7]s TEXT,
  %[8]s TEXT,
  %[9]s TEXT, %[10]s TEXT, %[11]s TEXT,
  %[12]s TEXT, %[13]s TEXT, %[14]s TEXT,
  %[15]s TEXT
);
CREATE INDEX IF NOT EXISTS idx_history_user ON %[1]s (%[3]s, %[2]s DESC);`,
		quote(r.table), quote(db.RowNumberColumn),
		quote("userID_AUTH"), quote("product"), quote("brand"), quote("packaging "), quote("origin"),
		quote("Sustainability_score"),
		quote("packaging_impact"), quote("ingredient_impact"), quote("certifications"),
		quote("major_concerns"), quote("actionable_advice"), quote("suggested_alternative"),
		quote("summary"),
	)
	if _, err := r.db.ExecContext(ctx, q); err != nil {
		return goerr.Wrap(err, "failed to create history table", goerr.V("table", r.table))
	}
	return nil
}

// Save inserts a history row and reads back the generated row_number
func (r *HistoryRepository) Save(ctx context.Context, rec *domain.Record) error {
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		quote(r.table),
		db.QuotedColumns(quote),
		db.Placeholders(len(db.HistoryColumns), func(i int) string { return fmt.Sprintf("$%d", i) }),
		quote(db.RowNumberColumn),
	)
	if err := r.db.QueryRowContext(ctx, q, db.RecordArgs(rec)...).Scan(&rec.RowNumber); err != nil {
		return goerr.Wrap(err, "failed to insert history row", goerr.V("user_id", rec.UserID))
	}
	return nil
}

// ListByUser returns a page of rows ordered by row_number desc
func (r *HistoryRepository) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]*domain.Record, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	q := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s=$1 ORDER BY %s DESC LIMIT $2 OFFSET $3",
		quote(db.RowNumberColumn), db.QuotedColumns(quote),
		quote(r.table), quote("userID_AUTH"), quote(db.RowNumberColumn),
	)
	rows, err := r.db.QueryContext(ctx, q, userID, pageSize, db.Offset(page, pageSize))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query history", goerr.V("user_id", userID))
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		rec, err := db.ScanRecord(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan history row")
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
