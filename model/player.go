package model

import "time"

// Player is the progression record that missions are assigned to and rewards credited on.
type Player struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:32;not null" json:"name"`
	Level     int       `gorm:"not null" json:"level"`
	Exp       int64     `gorm:"not null" json:"exp"`
	Currency  int64     `gorm:"not null" json:"currency"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
