package scan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/grocerwatch/grocerwatch/internal/market"
	"github.com/grocerwatch/grocerwatch/internal/ocr"
	"github.com/grocerwatch/grocerwatch/internal/parsing"
)

// IDGenerator generates unique IDs for scans
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service runs the receipt pipeline and owns its persistence. A nil
// transcriber is valid; the service then accepts raw transcripts only.
type Service struct {
	db          DB
	transcriber ocr.Transcriber
	source      market.PriceSource
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, transcriber ocr.Transcriber, source market.PriceSource) *Service {
	return &Service{
		db:          db,
		transcriber: transcriber,
		source:      source,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, transcriber ocr.Transcriber, source market.PriceSource, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		transcriber: transcriber,
		source:      source,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// ProcessImage transcribes a receipt image and runs the pipeline over the
// resulting text
func (s *Service) ProcessImage(ctx context.Context, imageData []byte, contentType string) (*Record, error) {
	if s.transcriber == nil {
		return nil, fmt.Errorf("no transcriber configured; upload a text transcript instead")
	}

	rawText, err := s.transcriber.Transcribe(imageData, contentType)
	if err != nil {
		slog.Error("Failed to transcribe receipt",
			"content_type", contentType,
			"image_size", len(imageData),
			"error", err,
		)
		return nil, fmt.Errorf("transcribing receipt: %w", err)
	}

	return s.ProcessTranscript(ctx, rawText)
}

// ProcessTranscript runs one receipt transcript through the whole pipeline:
// normalize, extract line items, identify the store, compare against the
// price source, award credits, persist. Garbled transcripts that produce no
// items still yield a saved record; deciding how to present an empty scan is
// the caller's problem.
func (s *Service) ProcessTranscript(ctx context.Context, rawText string) (*Record, error) {
	now := s.timeSource.Now()

	normalized := parsing.Normalize(rawText)
	items := parsing.ExtractLineItems(normalized)
	store := parsing.IdentifyStore(rawText)
	comparisons := market.Compare(ctx, items, s.source)

	record := &Record{
		ID:          s.idGenerator.Generate(),
		StoreName:   store.StoreName,
		StoreType:   store.StoreType,
		RawText:     rawText,
		Items:       items,
		Comparisons: comparisons,
		CreditAward: CreditsFor(store.StoreType),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.SaveScan(record); err != nil {
		return nil, fmt.Errorf("saving scan: %w", err)
	}
	if err := s.db.SavePriceRows(record.ID, priceRowsFor(record)); err != nil {
		return nil, fmt.Errorf("saving price rows: %w", err)
	}

	slog.Info("Processed receipt",
		"scan_id", record.ID,
		"store", record.StoreName,
		"store_type", record.StoreType,
		"items", len(items),
	)

	return record, nil
}

// GetScan retrieves a scan by ID
func (s *Service) GetScan(id string) (*Record, error) {
	record, err := s.db.GetScan(id)
	if err != nil {
		return nil, fmt.Errorf("getting scan: %w", err)
	}
	return record, nil
}

// ListScans returns all scans
func (s *Service) ListScans() ([]*Record, error) {
	records, err := s.db.ListScans()
	if err != nil {
		return nil, fmt.Errorf("listing scans: %w", err)
	}
	return records, nil
}

// DeleteScan removes a scan and its price rows
func (s *Service) DeleteScan(id string) error {
	if _, err := s.db.GetScan(id); err != nil {
		return fmt.Errorf("getting scan for deletion: %w", err)
	}
	if err := s.db.DeleteScan(id); err != nil {
		return fmt.Errorf("deleting scan: %w", err)
	}
	return nil
}

// GetPriceRows retrieves the persisted price observations for a scan
func (s *Service) GetPriceRows(scanID string) ([]PriceRow, error) {
	rows, err := s.db.GetPriceRows(scanID)
	if err != nil {
		return nil, fmt.Errorf("getting price rows: %w", err)
	}
	return rows, nil
}
