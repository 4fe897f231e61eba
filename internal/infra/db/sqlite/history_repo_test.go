package sqlite_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/m-mizutani/gt"

	domain "github.com/bryanwahyu/greenscan/internal/domain/history"
	"github.com/bryanwahyu/greenscan/internal/infra/db/sqlite"
)

func newRepo(t *testing.T) *sqlite.HistoryRepository {
	t.Helper()
	ctx := context.Background()
	conn, err := sqlite.Open(ctx, ":memory:")
	gt.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	repo := sqlite.NewHistoryRepository(conn, "")
	gt.NoError(t, repo.Migrate(ctx))
	// twice is fine
	gt.NoError(t, repo.Migrate(ctx))
	return repo
}

func TestHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	rec := &domain.Record{
		UserID:               "user_1",
		Product:              "Shampoo",
		Brand:                "EcoCo",
		Packaging:            "Plastic bottle",
		Origin:               "France",
		SustainabilityScore:  "Low",
		Certifications:       "None found",
		MajorConcerns:        `["plastic"]`,
		SuggestedAlternative: `{"product":"Soap Bar","brand":"EcoCo","reason":"less plastic"}`,
		Summary:              "Bottle is the main issue",
	}
	gt.NoError(t, repo.Save(ctx, rec))
	gt.True(t, rec.RowNumber > 0)

	got, err := repo.ListByUser(ctx, "user_1", 1, 10)
	gt.NoError(t, err)
	gt.A(t, got).Length(1)
	gt.Equal(t, got[0].Packaging, "Plastic bottle")
	gt.Equal(t, got[0].ActionableAdvice, "[]")
	gt.Equal(t, got[0].Summary, "Bottle is the main issue")

	e := domain.Decode(got[0])
	gt.Equal(t, e.Alternative.Product, "Soap Bar")
	gt.A(t, e.Concerns).Length(1)
}

func TestHistoryPagination(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	for i := 1; i <= 5; i++ {
		gt.NoError(t, repo.Save(ctx, &domain.Record{UserID: "user_1", Product: fmt.Sprintf("p%d", i)}))
	}
	gt.NoError(t, repo.Save(ctx, &domain.Record{UserID: "user_2", Product: "other"}))

	first, err := repo.ListByUser(ctx, "user_1", 1, 2)
	gt.NoError(t, err)
	gt.A(t, first).Length(2)
	gt.Equal(t, first[0].Product, "p5")
	gt.Equal(t, first[1].Product, "p4")

	last, err := repo.ListByUser(ctx, "user_1", 3, 2)
	gt.NoError(t, err)
	gt.A(t, last).Length(1)
	gt.Equal(t, last[0].Product, "p1")

	none, err := repo.ListByUser(ctx, "nobody", 1, 10)
	gt.NoError(t, err)
	gt.A(t, none).Length(0)
}
