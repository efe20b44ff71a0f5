package player

import (
	"fmt"

	"github.com/kasuganosora/questd/model"
	"gorm.io/gorm"
)

// Store reads and credits player progression records.
// Every method runs against the handle it is given so callers can compose
// them into their own transaction.
type Store struct{}

// NewStore creates a player Store.
func NewStore() *Store { return &Store{} }

// Level returns the player's level, or gorm.ErrRecordNotFound.
func (Store) Level(tx *gorm.DB, playerID int64) (int, error) {
	var p model.Player
	if err := tx.Select("id", "level").Where("id = ?", playerID).First(&p).Error; err != nil {
		return 0, err
	}
	return p.Level, nil
}

// Credit adds exp and currency to the player. Non-positive amounts are
// ignored. It fails with gorm.ErrRecordNotFound if the player is gone so the
// surrounding transaction rolls back.
func (Store) Credit(tx *gorm.DB, playerID int64, exp, currency int64) error {
	updates := make(map[string]interface{}, 2)
	if exp > 0 {
		updates["exp"] = gorm.Expr("exp + ?", exp)
	}
	if currency > 0 {
		updates["currency"] = gorm.Expr("currency + ?", currency)
	}
	if len(updates) == 0 {
		return nil
	}
	res := tx.Model(&model.Player{}).Where("id = ?", playerID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("player: credit %d: %w", playerID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("player: credit %d: %w", playerID, gorm.ErrRecordNotFound)
	}
	return nil
}
