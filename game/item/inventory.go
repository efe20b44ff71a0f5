package item

import (
	"context"
	"errors"

	"github.com/kasuganosora/questd/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryService resolves catalog items and grants them to players.
type InventoryService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewInventoryService creates a new InventoryService.
func NewInventoryService(db *gorm.DB, logger *zap.Logger) *InventoryService {
	return &InventoryService{db: db, logger: logger}
}

// Lookup resolves an item name to its catalog id. ok is false when no such
// item exists.
func (svc *InventoryService) Lookup(tx *gorm.DB, name string) (id int64, ok bool, err error) {
	var it model.Item
	err = tx.Select("id").Where("name = ?", name).First(&it).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return it.ID, true, nil
}

// Grant adds qty of itemID to the player's bag: a new stack is created at
// qty, an existing stack is incremented. It is a single upsert statement.
func (svc *InventoryService) Grant(tx *gorm.DB, playerID, itemID int64, qty int) error {
	entry := &model.InventoryEntry{PlayerID: playerID, ItemID: itemID, Qty: qty}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "player_id"}, {Name: "item_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"qty": gorm.Expr("qty + ?", qty),
		}),
	}).Create(entry).Error
}

// List returns all inventory rows for playerID.
func (svc *InventoryService) List(ctx context.Context, playerID int64) ([]model.InventoryEntry, error) {
	var items []model.InventoryEntry
	err := svc.db.WithContext(ctx).Where("player_id = ?", playerID).Order("item_id").Find(&items).Error
	return items, err
}
