// Package db holds what the dialect packages share about the history table.
package db

import (
	"database/sql"
	"strings"

	domain "github.com/bryanwahyu/greenscan/internal/domain/history"
)

// DefaultHistoryTable is the table the analysis workflow writes to
const DefaultHistoryTable = "sustainability_results"

// RowNumberColumn is the ordering key of the history table
const RowNumberColumn = "row_number"

// HistoryColumns lists the data columns in insert order. "packaging " keeps
// its trailing space; it is the column name of the existing table.
var HistoryColumns = []string{
	"userID_AUTH",
	"product",
	"brand",
	"packaging ",
	"origin",
	"Sustainability_score",
	"packaging_impact",
	"ingredient_impact",
	"certifications",
	"major_concerns",
	"actionable_advice",
	"suggested_alternative",
	"summary",
}

// Scanner is satisfied by *sql.Row and *sql.Rows
type Scanner interface {
	Scan(dest ...any) error
}

// QuotedColumns joins the data columns quoted for a dialect
func QuotedColumns(quote func(string) string) string {
	q := make([]string, len(HistoryColumns))
	for i, c := range HistoryColumns {
		q[i] = quote(c)
	}
	return strings.Join(q, ", ")
}

// Placeholders returns n placeholders built by ph(i), i starting at 1
func Placeholders(n int, ph func(i int) string) string {
	p := make([]string, n)
	for i := range p {
		p[i] = ph(i + 1)
	}
	return strings.Join(p, ",")
}

// RecordArgs returns the insert arguments in HistoryColumns order.
// Empty JSON text columns are stored as empty JSON values.
func RecordArgs(r *domain.Record) []any {
	return []any{
		r.UserID,
		r.Product,
		r.Brand,
		r.Packaging,
		r.Origin,
		r.SustainabilityScore,
		r.PackagingImpact,
		r.IngredientImpact,
		r.Certifications,
		jsonOrDefault(r.MajorConcerns, "[]"),
		jsonOrDefault(r.ActionableAdvice, "[]"),
		jsonOrDefault(r.SuggestedAlternative, "{}"),
		r.Summary,
	}
}

// ScanRecord reads row_number followed by HistoryColumns. Legacy rows may
// carry NULLs; they read as empty strings.
func ScanRecord(s Scanner) (*domain.Record, error) {
	var (
		r    domain.Record
		cols [13]sql.NullString
	)
	dest := []any{&r.RowNumber}
	for i := range cols {
		dest = append(dest, &cols[i])
	}
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	r.UserID = cols[0].String
	r.Product = cols[1].String
	r.Brand = cols[2].String
	r.Packaging = cols[3].String
	r.Origin = cols[4].String
	r.SustainabilityScore = cols[5].String
	r.PackagingImpact = cols[6].String
	r.IngredientImpact = cols[7].String
	r.Certifications = cols[8].String
	r.MajorConcerns = cols[9].String
	r.ActionableAdvice = cols[10].String
	r.SuggestedAlternative = cols[11].String
	r.Summary = cols[12].String
	return &r, nil
}

// Offset converts a 1-based page into a row offset
func Offset(page, pageSize int) int {
	if page <= 0 {
		page = 1
	}
	return (page - 1) * pageSize
}

func jsonOrDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
