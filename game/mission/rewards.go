package mission

import (
	"github.com/kasuganosora/questd/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Grant is what one completion handed out.
type Grant struct {
	XP       int64    `json:"xp"`
	Currency int64    `json:"currency"`
	Items    []string `json:"items"`
}

// distribute flips m from active to completed and applies the template's
// rewards on tx. It returns a nil mission when the flip matched no row; the
// caller must then abort tx. Any error must roll the whole tx back.
func (svc *Service) distribute(tx *gorm.DB, m *model.PlayerMission, tpl *model.MissionTemplate) (*model.PlayerMission, *Grant, error) {
	res := tx.Model(&model.PlayerMission{}).
		Where("id = ? AND status = ?", m.ID, model.MissionActive).
		Updates(map[string]interface{}{
			"status":       model.MissionCompleted,
			"completed_at": svc.now(),
		})
	if res.Error != nil {
		return nil, nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil, nil
	}

	g := &Grant{Items: []string{}}
	if tpl.XPReward > 0 {
		g.XP = tpl.XPReward
	}
	if tpl.CurrencyReward > 0 {
		g.Currency = tpl.CurrencyReward
	}
	if err := svc.players.Credit(tx, m.PlayerID, g.XP, g.Currency); err != nil {
		return nil, nil, err
	}

	for _, name := range svc.rewardItems(tpl) {
		itemID, ok, err := svc.items.Lookup(tx, name)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			svc.logger.Debug("reward item not in catalog, skipped",
				zap.Int64("template_id", tpl.ID), zap.String("item", name))
			continue
		}
		if err := svc.items.Grant(tx, m.PlayerID, itemID, 1); err != nil {
			return nil, nil, err
		}
		g.Items = append(g.Items, name)
	}

	var done model.PlayerMission
	if err := tx.First(&done, m.ID).Error; err != nil {
		return nil, nil, err
	}
	return &done, g, nil
}

// rewardItems selects the item names granted by one completion:
// every listed item when ItemRewardAmount is 0 (or negative), otherwise
// min(ItemRewardAmount, len) distinct names sampled without replacement.
// A name listed twice counts once.
func (svc *Service) rewardItems(tpl *model.MissionTemplate) []string {
	all := uniqueNames(tpl.ItemRewards)
	if len(all) == 0 {
		return nil
	}
	if tpl.ItemRewardAmount <= 0 {
		return all
	}
	idx := svc.rng.pick(len(all), tpl.ItemRewardAmount)
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = all[j]
	}
	return out
}

// uniqueNames returns names without repeats, first occurrence order.
func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
