package mission

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/kasuganosora/questd/audit"
	"github.com/kasuganosora/questd/cache"
	"github.com/kasuganosora/questd/game/species"
	"github.com/kasuganosora/questd/model"
	"github.com/kasuganosora/questd/plugin/hook"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TemplateSource is the read-only mission catalog. An absent template is
// reported as gorm.ErrRecordNotFound.
type TemplateSource interface {
	Template(ctx context.Context, id int64) (*model.MissionTemplate, error)
}

// PlayerStore reads levels and credits rewards on the given handle.
type PlayerStore interface {
	Level(tx *gorm.DB, playerID int64) (int, error)
	Credit(tx *gorm.DB, playerID int64, exp, currency int64) error
}

// ItemStore resolves item names and upserts inventory on the given handle.
type ItemStore interface {
	Lookup(tx *gorm.DB, name string) (id int64, ok bool, err error)
	Grant(tx *gorm.DB, playerID, itemID int64, qty int) error
}

// SpeciesProvider flattens any monster reference into a species.Descriptor.
type SpeciesProvider interface {
	Describe(ctx context.Context, ref species.Ref) (*species.Descriptor, error)
}

// clampedIncrement adds ? to current_progress without passing target_progress.
const clampedIncrement = "CASE WHEN current_progress + ? >= target_progress THEN target_progress ELSE current_progress + ? END"

// Service is the mission state machine: assignment, progress, completion
// with reward distribution, and abandonment.
type Service struct {
	db        *gorm.DB
	templates TemplateSource
	players   PlayerStore
	items     ItemStore
	species   SpeciesProvider
	rng       *sampler
	now       func() time.Time

	pubsub  cache.PubSub
	channel string
	audit   *audit.Service
	hooks   *hook.HookCenter
	logger  *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRand injects the generator used for target and reward sampling.
func WithRand(r *rand.Rand) Option {
	return func(s *Service) { s.rng = newSampler(r) }
}

// WithClock overrides time.Now for started/completed/abandoned stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithEvents publishes committed lifecycle events as JSON on channel.
func WithEvents(ps cache.PubSub, channel string) Option {
	return func(s *Service) { s.pubsub, s.channel = ps, channel }
}

// WithAudit records committed lifecycle events.
func WithAudit(a *audit.Service) Option {
	return func(s *Service) { s.audit = a }
}

// WithHooks triggers hook.OnMission* events after commit.
func WithHooks(h *hook.HookCenter) Option {
	return func(s *Service) { s.hooks = h }
}

// NewService creates a mission Service.
func NewService(db *gorm.DB, templates TemplateSource, players PlayerStore, items ItemStore,
	sp SpeciesProvider, logger *zap.Logger, opts ...Option) *Service {
	svc := &Service{
		db:        db,
		templates: templates,
		players:   players,
		items:     items,
		species:   sp,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.rng == nil {
		svc.rng = newSampler(NewRand(0))
	}
	return svc
}

// AssignMission creates an active instance of templateID for playerID.
func (svc *Service) AssignMission(ctx context.Context, playerID, templateID int64) (*model.PlayerMission, error) {
	tpl, err := svc.template(ctx, templateID)
	if err != nil {
		return nil, err
	}
	maxProgress := tpl.MinProgress
	if tpl.MaxProgress != nil {
		maxProgress = *tpl.MaxProgress
	}

	m := &model.PlayerMission{
		PlayerID:       playerID,
		TemplateID:     templateID,
		TargetProgress: svc.rng.between(tpl.MinProgress, maxProgress),
		Status:         model.MissionActive,
		StartedAt:      svc.now(),
	}
	err = svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		level, err := svc.players.Level(tx, playerID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: player %d", ErrNotFound, playerID)
		}
		if err != nil {
			return err
		}
		if tpl.LevelRequirement != nil && level < *tpl.LevelRequirement {
			return fmt.Errorf("%w: level %d is below required %d", ErrPolicyViolation, level, *tpl.LevelRequirement)
		}
		return tx.Create(m).Error
	})
	if err != nil {
		return nil, classify("assign", err)
	}

	svc.emit(ctx, hook.OnMissionAssigned, Event{Action: ActionAssigned, Mission: m}, m)
	return m, nil
}

// GetPlayerMissions lists a player's missions, most recent first, optionally
// restricted to the given statuses.
func (svc *Service) GetPlayerMissions(ctx context.Context, playerID int64, statuses ...model.MissionStatus) ([]model.PlayerMission, error) {
	q := svc.db.WithContext(ctx).Where("player_id = ?", playerID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var out []model.PlayerMission
	if err := q.Order("started_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, classify("list", err)
	}
	return out, nil
}

// UpdateProgress adds delta to an active mission, clamped at its target.
// Reaching the target completes the mission and distributes rewards in the
// same transaction, and the completed record is returned. updated is false
// when the mission is absent or no longer active, or when delta is 0.
func (svc *Service) UpdateProgress(ctx context.Context, missionID int64, delta int) (m *model.PlayerMission, updated bool, err error) {
	if delta < 0 {
		return nil, false, ErrInvalidDelta
	}
	if delta == 0 {
		return nil, false, nil
	}
	// template_id never changes, so the template is resolved up front and
	// the transaction only touches the store.
	cur, err := svc.find(ctx, missionID)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if cur.IsTerminal() {
		return nil, false, nil
	}
	tpl, err := svc.template(ctx, cur.TemplateID)
	if err != nil {
		return nil, false, err
	}

	var grant *Grant
	err = svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		m, grant, err = svc.advance(tx, missionID, delta, tpl)
		return err
	})
	if errors.Is(err, errNotActive) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify("update progress", err)
	}

	if grant != nil {
		svc.emitCompleted(ctx, m, tpl, grant)
	} else {
		svc.emit(ctx, "", Event{Action: ActionProgress, Mission: m, Delta: delta}, nil)
	}
	return m, true, nil
}

// advance applies delta on tx and completes the mission when it reaches its
// target. It returns errNotActive when the mission stopped being active after
// the caller last read it; tx must then be rolled back.
func (svc *Service) advance(tx *gorm.DB, missionID int64, delta int, tpl *model.MissionTemplate) (*model.PlayerMission, *Grant, error) {
	res := tx.Model(&model.PlayerMission{}).
		Where("id = ? AND status = ?", missionID, model.MissionActive).
		Update("current_progress", gorm.Expr(clampedIncrement, delta, delta))
	if res.Error != nil {
		return nil, nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil, errNotActive
	}
	var row model.PlayerMission
	if err := tx.First(&row, missionID).Error; err != nil {
		return nil, nil, err
	}
	if row.CurrentProgress < row.TargetProgress {
		return &row, nil, nil
	}
	done, g, err := svc.distribute(tx, &row, tpl)
	if err != nil {
		return nil, nil, err
	}
	if done == nil {
		return nil, nil, errNotActive
	}
	return done, g, nil
}

// CompleteMission completes an active mission and distributes its rewards.
// It is idempotent: on a mission that is absent or not active it does nothing
// and reports false, so rewards are never granted twice.
func (svc *Service) CompleteMission(ctx context.Context, missionID int64) (*model.PlayerMission, bool, error) {
	cur, err := svc.find(ctx, missionID)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if cur.IsTerminal() {
		return nil, false, nil
	}
	tpl, err := svc.template(ctx, cur.TemplateID)
	if err != nil {
		return nil, false, err
	}

	var (
		done  *model.PlayerMission
		grant *Grant
	)
	err = svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		done, grant, err = svc.distribute(tx, cur, tpl)
		if err != nil {
			return err
		}
		if done == nil {
			return errNotActive
		}
		return nil
	})
	if errors.Is(err, errNotActive) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify("complete", err)
	}

	svc.emitCompleted(ctx, done, tpl, grant)
	return done, true, nil
}

// AbandonMission moves an active mission owned by playerID to abandoned.
// It reports whether the transition happened.
func (svc *Service) AbandonMission(ctx context.Context, missionID, playerID int64) (bool, error) {
	now := svc.now()
	res := svc.db.WithContext(ctx).Model(&model.PlayerMission{}).
		Where("id = ? AND player_id = ? AND status = ?", missionID, playerID, model.MissionActive).
		Updates(map[string]interface{}{
			"status":       model.MissionAbandoned,
			"abandoned_at": now,
		})
	if res.Error != nil {
		return false, classify("abandon", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	if m, err := svc.find(ctx, missionID); err == nil {
		svc.emit(ctx, hook.OnMissionAbandoned, Event{Action: ActionAbandoned, Mission: m}, m)
	} else {
		svc.logger.Warn("abandoned mission could not be reloaded",
			zap.Int64("mission_id", missionID), zap.Error(err))
	}
	return true, nil
}

// Details is the merged template and instance view of one mission.
type Details struct {
	Mission      *model.PlayerMission   `json:"mission"`
	Template     *model.MissionTemplate `json:"template"`
	Percent      int                    `json:"percent"`
	ProgressText string                 `json:"progress_text"`
}

// GetMissionWithDetails returns the mission joined with its template, or ErrNotFound.
func (svc *Service) GetMissionWithDetails(ctx context.Context, missionID int64) (*Details, error) {
	m, err := svc.find(ctx, missionID)
	if err != nil {
		return nil, err
	}
	tpl, err := svc.template(ctx, m.TemplateID)
	if err != nil {
		return nil, err
	}
	return &Details{
		Mission:      m,
		Template:     tpl,
		Percent:      Percent(m.CurrentProgress, m.TargetProgress),
		ProgressText: ProgressText(m, tpl),
	}, nil
}

func (svc *Service) find(ctx context.Context, missionID int64) (*model.PlayerMission, error) {
	var m model.PlayerMission
	err := svc.db.WithContext(ctx).First(&m, missionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: mission %d", ErrNotFound, missionID)
	}
	if err != nil {
		return nil, classify("load mission", err)
	}
	return &m, nil
}

func (svc *Service) template(ctx context.Context, templateID int64) (*model.MissionTemplate, error) {
	tpl, err := svc.templates.Template(ctx, templateID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: template %d", ErrNotFound, templateID)
	}
	if err != nil {
		return nil, classify("load template", err)
	}
	return tpl, nil
}
