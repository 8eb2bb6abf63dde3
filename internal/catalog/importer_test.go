package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgerrors "github.com/khetihal/khetihal-backend/pkg/errors"
)

func TestColumnIndexesRejectsMissingColumns(t *testing.T) {
	_, err := columnIndexes([]string{"name", "price"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseRowValidation(t *testing.T) {
	columns, err := columnIndexes([]string{"name", "description", "price", "image_url", "stock"})
	if err != nil {
		t.Fatalf("column indexes: %v", err)
	}

	dto, err := parseRow([]string{"Organic Tomatoes", "Fresh produce", "2.50", "/img/p1.jpg", "100"}, columns)
	if err != nil {
		t.Fatalf("parse valid row: %v", err)
	}
	if dto.Name != "Organic Tomatoes" || dto.Stock != 100 {
		t.Fatalf("unexpected dto %+v", dto)
	}
	if !dto.Price.Equal(mustDecimal(t, "2.50")) {
		t.Fatalf("unexpected price %s", dto.Price)
	}

	cases := []struct {
		name string
		row  []string
	}{
		{"empty name", []string{"", "desc", "2.50", "", "10"}},
		{"zero price", []string{"Eggs", "desc", "0", "", "10"}},
		{"bad price", []string{"Eggs", "desc", "cheap", "", "10"}},
		{"negative stock", []string{"Eggs", "desc", "2.50", "", "-1"}},
	}
	for _, tc := range cases {
		if _, err := parseRow(tc.row, columns); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestImportCSVCollectsRowErrors(t *testing.T) {
	runner := &stubTxRunner{}
	importer := &importer{db: runner, repo: NewRepository(nil)}

	// The bad row is reported and parsing continues; the valid row reaches the
	// transaction runner.
	csvBody := strings.Join([]string{
		"name,description,price,image_url,stock",
		"Good Row,desc,2.50,/img.jpg,5",
		",missing name,1.00,,5",
	}, "\n")

	result, err := importer.ImportCSV(context.Background(), strings.NewReader(csvBody))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "row 3") {
		t.Fatalf("expected one error for row 3, got %v", result.Errors)
	}
	if runner.calls != 1 {
		t.Fatalf("expected one transaction for the valid row, got %d", runner.calls)
	}
}

func TestImportCSVRejectsBadHeader(t *testing.T) {
	importer := &importer{db: &stubTxRunner{}, repo: NewRepository(nil)}

	_, err := importer.ImportCSV(context.Background(), strings.NewReader("only,two\n1,2\n"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

type stubTxRunner struct {
	calls int
}

func (s *stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.calls++
	return nil
}

func mustDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", value, err)
	}
	return d
}
