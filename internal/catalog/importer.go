package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/khetihal/khetihal-backend/pkg/db"
	"github.com/khetihal/khetihal-backend/pkg/db/models"
	pkgerrors "github.com/khetihal/khetihal-backend/pkg/errors"
)

var csvColumns = []string{"name", "description", "price", "image_url", "stock"}

// ImportResult summarizes one CSV import run. Row errors are collected rather
// than aborting the import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Updated  int      `json:"updated"`
	Errors   []string `json:"errors"`
}

// Importer ingests catalog rows from CSV, upserting by product name.
type Importer interface {
	ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type importer struct {
	db   txRunner
	repo *Repository
}

// NewImporter constructs the CSV import service.
func NewImporter(client *db.Client, repo *Repository) (Importer, error) {
	if client == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	return &importer{db: client, repo: repo}, nil
}

func (s *importer) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "CSV file is empty or unreadable")
	}
	columns, err := columnIndexes(header)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: []string{}}
	rowNum := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}

		dto, err := parseRow(record, columns)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}

		if err := s.upsert(ctx, dto, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
		}
	}
	return result, nil
}

// upsert runs each row in its own transaction so one bad row never rolls back
// the rows already imported.
func (s *importer) upsert(ctx context.Context, dto UpsertProductDTO, result *ImportResult) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindByName(ctx, dto.Name)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if existing != nil {
			existing.Description = dto.Description
			existing.Price = dto.Price
			existing.ImageURL = dto.ImageURL
			existing.Stock = dto.Stock
			if _, err := repo.Update(ctx, existing); err != nil {
				return err
			}
			result.Updated++
			return nil
		}

		if _, err := repo.Create(ctx, &models.Product{
			Name:        dto.Name,
			Description: dto.Description,
			Price:       dto.Price,
			ImageURL:    dto.ImageURL,
			Stock:       dto.Stock,
		}); err != nil {
			return err
		}
		result.Imported++
		return nil
	})
}

func columnIndexes(header []string) (map[string]int, error) {
	indexes := make(map[string]int, len(header))
	for i, name := range header {
		indexes[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range csvColumns {
		if _, ok := indexes[required]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				`CSV must contain "name", "description", "price", "image_url", "stock" columns`)
		}
	}
	return indexes, nil
}

func parseRow(record []string, columns map[string]int) (UpsertProductDTO, error) {
	field := func(name string) string {
		idx := columns[name]
		if idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	name := field("name")
	if name == "" {
		return UpsertProductDTO{}, fmt.Errorf("name is required")
	}

	price, err := decimal.NewFromString(field("price"))
	if err != nil || price.LessThanOrEqual(decimal.Zero) {
		return UpsertProductDTO{}, fmt.Errorf("invalid price %q", field("price"))
	}

	stock, err := strconv.Atoi(field("stock"))
	if err != nil || stock < 0 {
		return UpsertProductDTO{}, fmt.Errorf("invalid stock %q", field("stock"))
	}

	dto := UpsertProductDTO{
		Name:  name,
		Price: price,
		Stock: stock,
	}
	if desc := field("description"); desc != "" {
		dto.Description = &desc
	}
	if img := field("image_url"); img != "" {
		dto.ImageURL = &img
	}
	return dto, nil
}
