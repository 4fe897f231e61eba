package storage_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/bryanwahyu/greenscan/internal/infra/storage"
)

func TestReportKey(t *testing.T) {
	key, err := storage.ReportKey("reports", "auth0|u1", "a1")
	gt.NoError(t, err)
	gt.Equal(t, key, "reports/auth0|u1/a1.json")

	key, err = storage.ReportKey("", "j.doe", "a1")
	gt.NoError(t, err)
	gt.Equal(t, key, "j.doe/a1.json")
}

func TestReportKeyRejectsTraversal(t *testing.T) {
	for _, user := range []string{"..", ".", "", "a/b", `a\b`} {
		_, err := storage.ReportKey("reports", user, "a1")
		gt.Error(t, err)
	}
	_, err := storage.ReportKey("reports", "u1", "..")
	gt.Error(t, err)
}
