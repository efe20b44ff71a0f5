package model

import "gorm.io/datatypes"

// BeastSpecies describes a monster family classified by a list of types.
type BeastSpecies struct {
	ID    int64                       `gorm:"primaryKey" json:"id"`
	Name  string                      `gorm:"size:64;not null" json:"name"`
	Types datatypes.JSONSlice[string] `json:"types"`
}

// SpiritSpecies describes a monster family with one element and an optional attribute.
type SpiritSpecies struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"size:64;not null" json:"name"`
	Element   string `gorm:"size:32" json:"element"`
	Attribute string `gorm:"size:32" json:"attribute"`
}
