package mission

import (
	"context"
	"encoding/json"

	"github.com/kasuganosora/questd/audit"
	"github.com/kasuganosora/questd/model"
	"github.com/kasuganosora/questd/plugin/hook"
	"go.uber.org/zap"
)

// Event actions, shared by the audit log and the pub/sub channel.
const (
	ActionAssigned  = "assigned"
	ActionProgress  = "progress"
	ActionCompleted = "completed"
	ActionAbandoned = "abandoned"
)

// Event is published after a lifecycle change commits.
type Event struct {
	Action  string               `json:"action"`
	Mission *model.PlayerMission `json:"mission"`
	Delta   int                  `json:"delta,omitempty"`
	Grant   *Grant               `json:"grant,omitempty"`
	Message string               `json:"message,omitempty"`
}

// Completion is the payload of hook.OnMissionComplete.
type Completion struct {
	Mission  *model.PlayerMission
	Template *model.MissionTemplate
	Grant    *Grant
}

func (svc *Service) emitCompleted(ctx context.Context, m *model.PlayerMission, tpl *model.MissionTemplate, g *Grant) {
	ev := Event{Action: ActionCompleted, Mission: m, Grant: g, Message: ProgressText(m, tpl)}
	svc.emit(ctx, hook.OnMissionComplete, ev, &Completion{Mission: m, Template: tpl, Grant: g})
}

// emit fans a committed event out to the audit log, the event channel and
// the hook center. Failures here never undo the committed change.
func (svc *Service) emit(ctx context.Context, hookEvent string, ev Event, hookData interface{}) {
	m := ev.Mission
	svc.logger.Info("mission "+ev.Action,
		zap.Int64("mission_id", m.ID),
		zap.Int64("player_id", m.PlayerID),
		zap.Int64("template_id", m.TemplateID),
		zap.Int("progress", m.CurrentProgress),
		zap.Int("target", m.TargetProgress))

	if svc.audit != nil {
		var detail interface{}
		switch {
		case ev.Grant != nil:
			detail = ev.Grant
		case ev.Delta != 0:
			detail = map[string]int{"delta": ev.Delta, "progress": m.CurrentProgress}
		}
		svc.audit.Log(ctx, audit.Entry{
			PlayerID:   m.PlayerID,
			MissionID:  m.ID,
			TemplateID: m.TemplateID,
			Action:     ev.Action,
			Detail:     detail,
		})
	}

	if svc.pubsub != nil && svc.channel != "" {
		if payload, err := json.Marshal(ev); err == nil {
			if err := svc.pubsub.Publish(ctx, svc.channel, string(payload)); err != nil {
				svc.logger.Warn("publish mission event failed", zap.String("action", ev.Action), zap.Error(err))
			}
		}
	}

	if svc.hooks != nil && hookEvent != "" {
		if err := svc.hooks.Trigger(ctx, hookEvent, hookData); err != nil {
			svc.logger.Warn("mission hook failed", zap.String("event", hookEvent), zap.Error(err))
		}
	}
}
