package model

import (
	"time"

	"gorm.io/datatypes"
)

// MissionStatus is the lifecycle state of a PlayerMission.
// active is the only non-terminal state.
type MissionStatus string

const (
	MissionActive    MissionStatus = "active"
	MissionCompleted MissionStatus = "completed"
	MissionAbandoned MissionStatus = "abandoned"
)

// Combinator decides how type and attribute requirements combine.
type Combinator string

const (
	CombinatorAnd Combinator = "AND"
	CombinatorOr  Combinator = "OR"
)

// MissionTemplate is a catalog definition of a repeatable mission.
// Rows are imported from data files and never written by the engine.
type MissionTemplate struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:128;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	MinProgress      int  `gorm:"not null" json:"min_progress"`
	MaxProgress      *int `json:"max_progress"`
	LevelRequirement *int `json:"level_requirement"`

	TypeRequirements       datatypes.JSONSlice[string] `json:"type_requirements"`
	AttributeRequirements  datatypes.JSONSlice[string] `json:"attribute_requirements"`
	RequirementsCombinator Combinator                  `gorm:"size:3" json:"requirements_combinator"` // empty means AND

	XPReward         int64                       `json:"xp_reward"`
	CurrencyReward   int64                       `json:"currency_reward"`
	ItemRewards      datatypes.JSONSlice[string] `json:"item_rewards"`
	ItemRewardAmount int                         `json:"item_reward_amount"` // 0 = every listed item

	// Flavor text shown while in progress, keyed by the percent reached.
	ProgressText1     string `gorm:"type:text" json:"progress_text_1"`
	ProgressText20    string `gorm:"type:text" json:"progress_text_20"`
	ProgressText40    string `gorm:"type:text" json:"progress_text_40"`
	ProgressText60    string `gorm:"type:text" json:"progress_text_60"`
	ProgressText80    string `gorm:"type:text" json:"progress_text_80"`
	CompletionMessage string `gorm:"type:text" json:"completion_message"`
}

// PlayerMission is a player's live instance of a MissionTemplate.
// Rows are never deleted; terminal rows are kept as history.
type PlayerMission struct {
	ID              int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	PlayerID        int64         `gorm:"index:idx_player_mission_status,priority:1;not null" json:"player_id"`
	TemplateID      int64         `gorm:"index;not null" json:"template_id"`
	CurrentProgress int           `gorm:"not null" json:"current_progress"`
	TargetProgress  int           `gorm:"not null" json:"target_progress"`
	Status          MissionStatus `gorm:"index:idx_player_mission_status,priority:2;size:16;not null" json:"status"`
	StartedAt       time.Time     `gorm:"not null" json:"started_at"`
	CompletedAt     *time.Time    `json:"completed_at"`
	AbandonedAt     *time.Time    `json:"abandoned_at"`
}

// IsTerminal reports whether no further transition is possible.
func (m *PlayerMission) IsTerminal() bool {
	return m.Status != MissionActive
}
