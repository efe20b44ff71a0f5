package model

import (
	"time"

	"gorm.io/datatypes"
)

// MissionEvent records one mission lifecycle action.
type MissionEvent struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TraceID    string         `gorm:"index:idx_mission_event_trace;size:36;not null" json:"trace_id"`
	PlayerID   int64          `gorm:"index:idx_mission_event_player" json:"player_id"`
	MissionID  int64          `gorm:"index:idx_mission_event_mission" json:"mission_id"`
	TemplateID int64          `json:"template_id"`
	Action     string         `gorm:"size:32;not null" json:"action"`
	Detail     datatypes.JSON `json:"detail"`
	CreatedAt  time.Time      `gorm:"index:idx_mission_event_created;autoCreateTime:milli" json:"created_at"`
}
