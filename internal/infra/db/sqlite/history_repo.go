package sqlite

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
  %[2]s INTEGER PRIMARY KEY AUTOINCREMENT,
  %[3]s TEXT NOT NULL,
  %[4]s TEXT, %[5]s TEXT, %[6]s TEXT, %[7]s TEXT,
  %[8]s TEXT,
  %[9]s TEXT, %[10]s TEXT, %[11]s TEXT,
  %[12]s TEXT, %[13]s TEXT, %[14]s TEXT,
  %[15]s TEXT
);`,
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
	idx := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_history_user ON %s (%s, %s)",
		quote(r.table), quote("userID_AUTH"), quote(db.RowNumberColumn))
	if _, err := r.db.ExecContext(ctx, idx); err != nil {
		return goerr.Wrap(err, "failed to create history index", goerr.V("table", r.table))
	}
	return nil
}

func (r *HistoryRepository) Save(ctx context.Context, rec *domain.Record) error {
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(r.table),
		db.QuotedColumns(quote),
		db.Placeholders(len(db.HistoryColumns), func(int) string { return "?" }),
	)
	res, err := r.db.ExecContext(ctx, q, db.RecordArgs(rec)...)
	if err != nil {
		return goerr.Wrap(err, "failed to insert history row", goerr.V("user_id", rec.UserID))
	}
	if id, err := res.LastInsertId(); err == nil {
		rec.RowNumber = id
	}
	return nil
}

func (r *HistoryRepository) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]*domain.Record, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	q := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s=? ORDER BY %s DESC LIMIT ? OFFSET ?",
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
