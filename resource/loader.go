package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kasuganosora/questd/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	MissionsFile = "Missions.json"
	ItemsFile    = "Items.json"
	SpeciesFile  = "Species.json"
)

// SpeciesData is the layout of Species.json: one array per monster family.
type SpeciesData struct {
	Beasts  []*model.BeastSpecies  `json:"beasts"`
	Spirits []*model.SpiritSpecies `json:"spirits"`
}

// ResourceLoader reads the catalog data files and imports them into the
// store the engine reads from. Missions.json is required; the other files
// are optional.
type ResourceLoader struct {
	DataPath string

	Missions []*model.MissionTemplate
	Items    []*model.Item
	Species  SpeciesData

	logger *zap.Logger
}

// NewLoader creates a ResourceLoader for the given data directory.
func NewLoader(dataPath string, logger *zap.Logger) *ResourceLoader {
	return &ResourceLoader{DataPath: dataPath, logger: logger}
}

// Load reads and validates every data file.
func (rl *ResourceLoader) Load() error {
	loaders := []func() error{
		rl.loadMissions,
		rl.loadItems,
		rl.loadSpecies,
	}
	for _, fn := range loaders {
		if err := fn(); err != nil {
			return err
		}
	}
	return rl.validate()
}

func (rl *ResourceLoader) path(file string) string {
	return filepath.Join(rl.DataPath, file)
}

// loadJSONArray parses a JSON array, dropping null entries.
func loadJSONArray[T any](path string) ([]*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("resource: read %s: %w", path, err)
	}
	var arr []*T
	if err := json.Unmarshal(data, &arr); err != nil {
		return nil, fmt.Errorf("resource: parse %s: %w", path, err)
	}
	out := arr[:0]
	for _, v := range arr {
		if v != nil {
			out = append(out, v)
		}
	}
	return out, nil
}

func loadJSONObject[T any](path string, out *T) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("resource: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("resource: parse %s: %w", path, err)
	}
	return nil
}

func (rl *ResourceLoader) loadMissions() error {
	var err error
	rl.Missions, err = loadJSONArray[model.MissionTemplate](rl.path(MissionsFile))
	return err
}

func (rl *ResourceLoader) loadItems() error {
	items, err := loadJSONArray[model.Item](rl.path(ItemsFile))
	if errors.Is(err, os.ErrNotExist) {
		rl.logger.Info("no item catalog file, item rewards will be skipped", zap.String("file", ItemsFile))
		rl.Items = nil
		return nil
	}
	rl.Items = items
	return err
}

func (rl *ResourceLoader) loadSpecies() error {
	var sd SpeciesData
	err := loadJSONObject(rl.path(SpeciesFile), &sd)
	if errors.Is(err, os.ErrNotExist) {
		rl.logger.Info("no species file, requirement checks will treat monsters as unknown", zap.String("file", SpeciesFile))
		rl.Species = SpeciesData{}
		return nil
	}
	if err != nil {
		return err
	}
	sd.Beasts = compact(sd.Beasts)
	sd.Spirits = compact(sd.Spirits)
	rl.Species = sd
	return nil
}

func compact[T any](in []*T) []*T {
	out := in[:0]
	for _, v := range in {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

// validate rejects catalogs the engine cannot run. Reward items missing from
// Items.json only warn because the distributor skips them.
func (rl *ResourceLoader) validate() error {
	var errs []error
	seen := make(map[int64]bool, len(rl.Missions))
	for _, m := range rl.Missions {
		switch {
		case m.ID <= 0:
			errs = append(errs, fmt.Errorf("mission %q: id must be positive", m.Name))
			continue
		case seen[m.ID]:
			errs = append(errs, fmt.Errorf("mission %d: duplicate id", m.ID))
			continue
		}
		seen[m.ID] = true
		if strings.TrimSpace(m.Name) == "" {
			errs = append(errs, fmt.Errorf("mission %d: name is empty", m.ID))
		}
		if m.MinProgress < 0 {
			errs = append(errs, fmt.Errorf("mission %d: min_progress is negative", m.ID))
		}
		if m.MaxProgress != nil && *m.MaxProgress < m.MinProgress {
			rl.logger.Warn("max_progress below min_progress, min is used",
				zap.Int64("mission_id", m.ID), zap.Int("min", m.MinProgress), zap.Int("max", *m.MaxProgress))
		}
		switch model.Combinator(strings.ToUpper(string(m.RequirementsCombinator))) {
		case "", model.CombinatorAnd, model.CombinatorOr:
			m.RequirementsCombinator = model.Combinator(strings.ToUpper(string(m.RequirementsCombinator)))
		default:
			errs = append(errs, fmt.Errorf("mission %d: unknown requirements_combinator %q", m.ID, m.RequirementsCombinator))
		}
		if m.XPReward < 0 || m.CurrencyReward < 0 {
			errs = append(errs, fmt.Errorf("mission %d: rewards must not be negative", m.ID))
		}
	}

	known := make(map[string]bool, len(rl.Items))
	itemIDs := make(map[int64]bool, len(rl.Items))
	for _, it := range rl.Items {
		if it.ID <= 0 || strings.TrimSpace(it.Name) == "" {
			errs = append(errs, fmt.Errorf("item %d %q: id and name are required", it.ID, it.Name))
			continue
		}
		if itemIDs[it.ID] || known[it.Name] {
			errs = append(errs, fmt.Errorf("item %d %q: duplicate", it.ID, it.Name))
			continue
		}
		itemIDs[it.ID] = true
		known[it.Name] = true
	}
	for _, m := range rl.Missions {
		for _, name := range m.ItemRewards {
			if !known[name] {
				rl.logger.Warn("reward item not in item catalog",
					zap.Int64("mission_id", m.ID), zap.String("item", name))
			}
		}
	}

	for _, b := range rl.Species.Beasts {
		if b.ID <= 0 {
			errs = append(errs, fmt.Errorf("beast %q: id must be positive", b.Name))
		}
	}
	for _, s := range rl.Species.Spirits {
		if s.ID <= 0 {
			errs = append(errs, fmt.Errorf("spirit %q: id must be positive", s.Name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("resource: invalid catalog: %w", errors.Join(errs...))
	}
	return nil
}

// Import upserts the loaded catalogs by primary key in one transaction.
// Rows absent from the files are left in place so running missions keep
// their template.
func (rl *ResourceLoader) Import(ctx context.Context, db *gorm.DB) error {
	upsert := clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(rl.Missions) > 0 {
			if err := tx.Clauses(upsert).CreateInBatches(rl.Missions, 100).Error; err != nil {
				return fmt.Errorf("missions: %w", err)
			}
		}
		if len(rl.Items) > 0 {
			if err := rl.releaseItemNames(tx); err != nil {
				return fmt.Errorf("items: %w", err)
			}
			if err := tx.Clauses(upsert).CreateInBatches(rl.Items, 100).Error; err != nil {
				return fmt.Errorf("items: %w", err)
			}
		}
		if len(rl.Species.Beasts) > 0 {
			if err := tx.Clauses(upsert).CreateInBatches(rl.Species.Beasts, 100).Error; err != nil {
				return fmt.Errorf("beasts: %w", err)
			}
		}
		if len(rl.Species.Spirits) > 0 {
			if err := tx.Clauses(upsert).CreateInBatches(rl.Species.Spirits, 100).Error; err != nil {
				return fmt.Errorf("spirits: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("resource: import: %w", err)
	}
	rl.logger.Info("catalog imported",
		zap.Int("missions", len(rl.Missions)),
		zap.Int("items", len(rl.Items)),
		zap.Int("beasts", len(rl.Species.Beasts)),
		zap.Int("spirits", len(rl.Species.Spirits)))
	return nil
}

// releaseItemNames renames stored items whose name now belongs to a
// different id in Items.json, so the upsert does not trip the unique name
// index. A released row keeps its id for existing inventory entries but is
// no longer found by reward lookups.
func (rl *ResourceLoader) releaseItemNames(tx *gorm.DB) error {
	want := make(map[string]int64, len(rl.Items))
	names := make([]string, 0, len(rl.Items))
	for _, it := range rl.Items {
		want[it.Name] = it.ID
		names = append(names, it.Name)
	}
	var stored []model.Item
	if err := tx.Where("name IN ?", names).Find(&stored).Error; err != nil {
		return err
	}
	for _, it := range stored {
		if want[it.Name] == it.ID {
			continue
		}
		retired := "retired:" + strconv.FormatInt(it.ID, 10)
		if err := tx.Model(&model.Item{}).Where("id = ?", it.ID).Update("name", retired).Error; err != nil {
			return err
		}
		rl.logger.Info("item name moved to another id, old row renamed",
			zap.String("name", it.Name), zap.Int64("old_id", it.ID),
			zap.Int64("new_id", want[it.Name]), zap.String("renamed_to", retired))
	}
	return nil
}

// TemplateIDs lists the loaded mission template ids.
func (rl *ResourceLoader) TemplateIDs() []int64 {
	ids := make([]int64, 0, len(rl.Missions))
	for _, m := range rl.Missions {
		ids = append(ids, m.ID)
	}
	return ids
}
