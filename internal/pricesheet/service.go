package pricesheet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"time"

	"rasoi/internal/erp"
	"rasoi/internal/pricing"
)

// Catalog names items for the sheet; satisfied by the ERP client.
type Catalog interface {
	Products(ctx context.Context) ([]erp.Product, error)
}

// Uploader publishes exported workbooks; satisfied by the R2 client.
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// Service owns the two-way sync between computed costs and the
// operator-edited price sheet.
type Service struct {
	repo     Repository
	catalog  Catalog
	uploader Uploader
}

func NewService(repo Repository, catalog Catalog, uploader Uploader) *Service {
	return &Service{repo: repo, catalog: catalog, uploader: uploader}
}

// --------------------------------------------------
// Push computed costs (called by the price sync)
// --------------------------------------------------

// PushComputedCosts writes the complete cost map into the sheet store.
// Only the computed columns are written; distributor prices and min
// levels survive untouched. The batch is a single transaction, so a
// reader never sees a half-written sheet.
func (s *Service) PushComputedCosts(ctx context.Context, costs pricing.CostMap) error {
	if len(costs) == 0 {
		return errors.New("refusing to push an empty cost map")
	}

	products, err := s.catalog.Products(ctx)
	if err != nil {
		return fmt.Errorf("fetch catalog: %w", err)
	}

	names := make(map[string]erp.Product, len(products))
	for _, p := range products {
		names[p.ID] = p
	}

	batch := make([]ComputedCost, 0, len(costs))
	for itemID, uc := range costs {
		c := ComputedCost{
			ItemID: itemID,
			Name:   itemID,
			Cost:   uc.Cost,
			Source: string(uc.Source),
		}
		if p, ok := names[itemID]; ok {
			c.Name = p.Name
			c.Unit = p.Unit
		}
		batch = append(batch, c)
	}

	// Deterministic write order keeps reruns byte-for-byte identical.
	sort.Slice(batch, func(i, j int) bool { return batch[i].ItemID < batch[j].ItemID })

	return s.repo.UpsertComputedCosts(ctx, batch)
}

// --------------------------------------------------
// Rows / export
// --------------------------------------------------

func (s *Service) Rows(ctx context.Context) ([]PriceRow, error) {
	return s.repo.ListRows(ctx)
}

// ExportWorkbook renders the current sheet as xlsx bytes.
func (s *Service) ExportWorkbook(ctx context.Context) ([]byte, error) {
	rows, err := s.repo.ListRows(ctx)
	if err != nil {
		return nil, err
	}

	f, err := BuildWorkbook(rows)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// PublishWorkbook exports the sheet and uploads it to object storage,
// returning the public URL.
func (s *Service) PublishWorkbook(ctx context.Context) (string, error) {
	if s.uploader == nil {
		return "", errors.New("no uploader configured")
	}

	data, err := s.ExportWorkbook(ctx)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("pricesheets/%s.xlsx", time.Now().Format("2006-01-02_150405"))

	url, err := s.uploader.Upload(ctx, key, bytes.NewReader(data),
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err != nil {
		return "", fmt.Errorf("upload workbook: %w", err)
	}

	log.Printf("SHEET_PUBLISHED key=%s bytes=%d", key, len(data))
	return url, nil
}

// --------------------------------------------------
// Import manual edits
// --------------------------------------------------

// ImportWorkbook pulls operator edits out of an uploaded workbook and
// persists them: distributor prices and min stock levels. Computed
// columns in the upload are ignored.
func (s *Service) ImportWorkbook(ctx context.Context, r io.Reader) (int, error) {
	edits, minLevels, err := ParseWorkbook(r)
	if err != nil {
		return 0, err
	}

	if len(edits) > 0 {
		if err := s.repo.SaveManualEdits(ctx, edits); err != nil {
			return 0, fmt.Errorf("save manual edits: %w", err)
		}
	}
	if len(minLevels) > 0 {
		if err := s.repo.SaveMinLevels(ctx, minLevels); err != nil {
			return 0, fmt.Errorf("save min levels: %w", err)
		}
	}

	log.Printf("SHEET_IMPORTED edits=%d min_levels=%d", len(edits), len(minLevels))
	return len(edits), nil
}
