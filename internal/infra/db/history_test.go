package db_test

import (
	"fmt"
	"testing"

	"github.com/m-mizutani/gt"

	domain "github.com/bryanwahyu/greenscan/internal/domain/history"
	"github.com/bryanwahyu/greenscan/internal/infra/db"
)

func TestQuotedColumns(t *testing.T) {
	cols := db.QuotedColumns(func(s string) string { return "`" + s + "`" })
	gt.S(t, cols).Contains("`packaging `")
	gt.S(t, cols).Contains("`userID_AUTH`, `product`")
}

func TestPlaceholders(t *testing.T) {
	gt.Equal(t, db.Placeholders(3, func(i int) string { return fmt.Sprintf("$%d", i) }), "$1,$2,$3")
	gt.Equal(t, db.Placeholders(2, func(int) string { return "?" }), "?,?")
}

func TestOffset(t *testing.T) {
	gt.Equal(t, db.Offset(1, 20), 0)
	gt.Equal(t, db.Offset(3, 20), 40)
	gt.Equal(t, db.Offset(0, 20), 0)
}

func TestRecordArgs(t *testing.T) {
	args := db.RecordArgs(&domain.Record{UserID: "u", Packaging: "Box", MajorConcerns: " "})
	gt.A(t, args).Length(len(db.HistoryColumns))
	gt.Equal(t, args[3], any("Box"))
	gt.Equal(t, args[9], any("[]"))
	gt.Equal(t, args[11], any("{}"))
}
