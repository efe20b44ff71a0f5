package model

import "time"

// Item is an item catalog entry. Rewards reference items by Name.
type Item struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Price       int    `json:"price"`
}

// InventoryEntry is one stack of an item in a player's bag.
// (player_id, item_id) is unique so grants can upsert.
type InventoryEntry struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PlayerID  int64     `gorm:"uniqueIndex:idx_inventory_player_item,priority:1;not null" json:"player_id"`
	ItemID    int64     `gorm:"uniqueIndex:idx_inventory_player_item,priority:2;not null" json:"item_id"`
	Qty       int       `gorm:"not null" json:"qty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
