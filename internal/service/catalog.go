package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/footballcurrency/portal/internal/domain"
	"github.com/footballcurrency/portal/internal/infra"
	"github.com/footballcurrency/portal/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/xuri/excelize/v2"
)

// CatalogService manages shop items.
type CatalogService struct {
	db     DB
	items  repository.ItemRepository
	outbox repository.OutboxRepository
	logger *slog.Logger
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(db DB, items repository.ItemRepository, outbox repository.OutboxRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{db: db, items: items, outbox: outbox, logger: logger}
}

// List returns every catalog item.
func (s *CatalogService) List(ctx context.Context) ([]domain.Item, error) {
	items, err := s.items.List(ctx, s.db)
	if err != nil {
		return nil, domain.ErrInternal("list items", err)
	}
	return items, nil
}

// Add creates a catalog item.
func (s *CatalogService) Add(ctx context.Context, in domain.ItemInput) (*domain.Item, error) {
	in, err := domain.ValidateItem(in)
	if err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	item := &domain.Item{ID: uuid.New(), Name: in.Name, Price: in.Price, Currency: in.Currency}
	err = infra.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		if err := s.items.Create(ctx, tx, item); err != nil {
			return err
		}
		return s.outbox.Insert(ctx, tx, domain.NewItemEvent(domain.EventItemChanged, item))
	})
	if err != nil {
		return nil, asAppError(err, "add item")
	}
	s.logger.Info("item added", "item_id", item.ID, "name", item.Name)
	return item, nil
}

// Edit replaces name, price and currency of an existing item.
func (s *CatalogService) Edit(ctx context.Context, id uuid.UUID, in domain.ItemInput) (*domain.Item, error) {
	in, err := domain.ValidateItem(in)
	if err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	item := &domain.Item{ID: id, Name: in.Name, Price: in.Price, Currency: in.Currency}
	err = infra.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		if err := s.items.Update(ctx, tx, item); err != nil {
			return err
		}
		return s.outbox.Insert(ctx, tx, domain.NewItemEvent(domain.EventItemChanged, item))
	})
	if err != nil {
		return nil, asAppError(err, "edit item")
	}
	return item, nil
}

// Delete removes an item. Existing shop requests keep their name and price.
func (s *CatalogService) Delete(ctx context.Context, id uuid.UUID) error {
	err := infra.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		item, err := s.items.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound("item", id.String())
		}
		if err := s.items.Delete(ctx, tx, id); err != nil {
			return err
		}
		return s.outbox.Insert(ctx, tx, domain.NewItemEvent(domain.EventItemDeleted, item))
	})
	if err != nil {
		return asAppError(err, "delete item")
	}
	s.logger.Info("item deleted", "item_id", id)
	return nil
}

// Import upserts items by name from the first sheet of an xlsx workbook.
// The first row is a header. Columns: name, price, currency (optional).
// Invalid rows are skipped and reported.
func (s *CatalogService) Import(ctx context.Context, r io.Reader) (*domain.ImportResult, error) {
	rows, err := ReadItemSheet(r)
	if err != nil {
		return nil, err
	}

	res := &domain.ImportResult{}
	err = infra.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		for _, row := range rows {
			if row.Err != nil {
				res.Skipped++
				res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", row.Line, row.Err))
				continue
			}
			item := &domain.Item{ID: uuid.New(), Name: row.Input.Name, Price: row.Input.Price, Currency: row.Input.Currency}
			if _, err := s.items.Upsert(ctx, tx, item); err != nil {
				return err
			}
			if err := s.outbox.Insert(ctx, tx, domain.NewItemEvent(domain.EventItemChanged, item)); err != nil {
				return err
			}
			res.Imported++
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err, "import items")
	}
	s.logger.Info("items imported", "imported", res.Imported, "skipped", res.Skipped)
	return res, nil
}

// SheetRow is one parsed data row of an import workbook.
type SheetRow struct {
	Line  int
	Input domain.ItemInput
	Err   error
}

// ReadItemSheet parses the first sheet of an xlsx workbook into validated
// item rows. Blank rows are ignored.
func ReadItemSheet(r io.Reader) ([]SheetRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.ErrValidation("Invalid Excel file.")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.ErrValidation("Workbook has no sheets.")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, domain.ErrValidation("Failed to read sheet.")
	}

	var out []SheetRow
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if blankRow(row) {
			continue
		}
		out = append(out, parseSheetRow(i+1, row))
	}
	return out, nil
}

func parseSheetRow(line int, row []string) SheetRow {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	sr := SheetRow{Line: line}
	price, err := strconv.ParseInt(cell(1), 10, 64)
	if err != nil {
		sr.Err = fmt.Errorf("price %q is not an integer", cell(1))
		return sr
	}
	in, err := domain.ValidateItem(domain.ItemInput{
		Name:     cell(0),
		Price:    price,
		Currency: domain.BalanceField(strings.ToLower(cell(2))),
	})
	if err != nil {
		sr.Err = err
		return sr
	}
	sr.Input = in
	return sr
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
