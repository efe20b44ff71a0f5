package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/kasuganosora/questd/cache"
	"github.com/kasuganosora/questd/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store is the read-only mission template catalog, read through a cache.
// An absent template is reported as gorm.ErrRecordNotFound.
type Store struct {
	db     *gorm.DB
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a catalog Store. c may be nil to disable caching.
func New(db *gorm.DB, c cache.Cache, ttl time.Duration, logger *zap.Logger) *Store {
	return &Store{db: db, cache: c, ttl: ttl, logger: logger}
}

func cacheKey(id int64) string {
	return "mission:template:" + strconv.FormatInt(id, 10)
}

// Template returns the template with the given id.
func (s *Store) Template(ctx context.Context, id int64) (*model.MissionTemplate, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey(id)); err == nil {
			var tpl model.MissionTemplate
			if err := json.Unmarshal([]byte(raw), &tpl); err == nil {
				return &tpl, nil
			}
			s.logger.Warn("discarding undecodable cached template", zap.Int64("template_id", id))
		}
	}

	var tpl model.MissionTemplate
	if err := s.db.WithContext(ctx).First(&tpl, id).Error; err != nil {
		return nil, fmt.Errorf("catalog: template %d: %w", id, err)
	}

	if s.cache != nil {
		if raw, err := json.Marshal(&tpl); err == nil {
			if err := s.cache.Set(ctx, cacheKey(id), string(raw), s.ttl); err != nil {
				s.logger.Debug("template cache set failed", zap.Int64("template_id", id), zap.Error(err))
			}
		}
	}
	return &tpl, nil
}

// Invalidate drops cached copies of the given templates. With no ids it
// drops every template currently in the database.
func (s *Store) Invalidate(ctx context.Context, ids ...int64) error {
	if s.cache == nil {
		return nil
	}
	if len(ids) == 0 {
		if err := s.db.WithContext(ctx).Model(&model.MissionTemplate{}).Pluck("id", &ids).Error; err != nil {
			return err
		}
	}
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cacheKey(id)
	}
	return s.cache.Del(ctx, keys...)
}
