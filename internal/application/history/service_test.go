package history_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"

	apphistory "github.com/bryanwahyu/greenscan/internal/application/history"
	domain "github.com/bryanwahyu/greenscan/internal/domain/history"
)

type mockRepo struct {
	page, pageSize int
	records        []*domain.Record
	err            error
}

func (m *mockRepo) Save(context.Context, *domain.Record) error { return nil }

func (m *mockRepo) ListByUser(_ context.Context, _ string, page, pageSize int) ([]*domain.Record, error) {
	m.page, m.pageSize = page, pageSize
	return m.records, m.err
}

func TestList(t *testing.T) {
	repo := &mockRepo{records: []*domain.Record{
		{RowNumber: 2, Product: "Soap", MajorConcerns: `["a"]`},
		{RowNumber: 1, Product: "Oats", MajorConcerns: "not valid json"},
	}}
	svc := apphistory.NewService(repo, 0)

	entries, err := svc.List(context.Background(), "u1", 0, 0)
	gt.NoError(t, err)
	gt.A(t, entries).Length(2)
	gt.A(t, entries[0].Concerns).Length(1)
	gt.A(t, entries[1].Concerns).Length(0)
	gt.Equal(t, repo.page, 1)
	gt.Equal(t, repo.pageSize, apphistory.DefaultPageSize)
}

func TestListError(t *testing.T) {
	svc := apphistory.NewService(&mockRepo{err: errors.New("db down")}, 10)
	_, err := svc.List(context.Background(), "u1", 1, 0)
	gt.Error(t, err)
}

func TestPageSizeFor(t *testing.T) {
	svc := apphistory.NewService(&mockRepo{}, 15)
	gt.Equal(t, svc.PageSizeFor(0), 15)
	gt.Equal(t, svc.PageSizeFor(5), 5)
	gt.Equal(t, svc.PageSizeFor(500), apphistory.MaxPageSize)
}
