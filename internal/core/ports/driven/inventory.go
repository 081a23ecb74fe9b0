package driven

import (
	"context"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

// InventoryWriter publishes an archive inventory as a table.
type InventoryWriter interface {
	// WriteInventory replaces any previous inventory with rows.
	WriteInventory(ctx context.Context, rows []domain.InventoryRow) error
}
