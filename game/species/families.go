package species

import (
	"context"
	"errors"
	"time"

	"github.com/kasuganosora/questd/cache"
	"github.com/kasuganosora/questd/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BeastDescriber reads model.BeastSpecies: a list of types, no attribute.
type BeastDescriber struct {
	db *gorm.DB
}

// NewBeastDescriber returns a Describer over the stored beast species rows.
func NewBeastDescriber(db *gorm.DB) *BeastDescriber { return &BeastDescriber{db: db} }

// Describe returns the beast's types, or ErrUnknown when id has no row.
func (b *BeastDescriber) Describe(ctx context.Context, id int64) (*Descriptor, error) {
	var s model.BeastSpecies
	if err := b.db.WithContext(ctx).First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknown
		}
		return nil, err
	}
	types := append([]string{}, s.Types...)
	return &Descriptor{Types: types}, nil
}

// SpiritDescriber reads model.SpiritSpecies: the element is its single
// type, the attribute is optional.
type SpiritDescriber struct {
	db *gorm.DB
}

// NewSpiritDescriber returns a Describer over the stored spirit species rows.
func NewSpiritDescriber(db *gorm.DB) *SpiritDescriber { return &SpiritDescriber{db: db} }

// Describe returns the spirit's element as its only type along with its
// attribute when set, or ErrUnknown when id has no row.
func (s *SpiritDescriber) Describe(ctx context.Context, id int64) (*Descriptor, error) {
	var sp model.SpiritSpecies
	if err := s.db.WithContext(ctx).First(&sp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknown
		}
		return nil, err
	}
	desc := &Descriptor{Types: []string{}}
	if sp.Element != "" {
		desc.Types = append(desc.Types, sp.Element)
	}
	if sp.Attribute != "" {
		attr := sp.Attribute
		desc.Attribute = &attr
	}
	return desc, nil
}

// NewDefaultProvider returns a Provider with every built-in family registered.
func NewDefaultProvider(db *gorm.DB, c cache.Cache, ttl time.Duration, logger *zap.Logger) *Provider {
	p := NewProvider(c, ttl, logger)
	p.Register(FamilyBeast, NewBeastDescriber(db))
	p.Register(FamilySpirit, NewSpiritDescriber(db))
	return p
}
