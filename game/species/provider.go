package species

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kasuganosora/questd/cache"
	"go.uber.org/zap"
)

// ErrUnknown is returned when a reference names no known monster or family.
var ErrUnknown = errors.New("species: unknown monster")

// Family names a monster schema. Each family stores its classification differently.
type Family string

const (
	FamilyBeast  Family = "beast"
	FamilySpirit Family = "spirit"
)

// Ref points at one monster of one family.
type Ref struct {
	Family Family `json:"family"`
	ID     int64  `json:"id"`
}

func (r Ref) String() string {
	return string(r.Family) + ":" + strconv.FormatInt(r.ID, 10)
}

// ParseRef parses the "family:id" form produced by Ref.String.
func ParseRef(s string) (Ref, error) {
	fam, id, ok := strings.Cut(s, ":")
	if !ok || fam == "" {
		return Ref{}, fmt.Errorf("species: malformed ref %q", s)
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return Ref{}, fmt.Errorf("species: malformed ref %q: %w", s, err)
	}
	return Ref{Family: Family(fam), ID: n}, nil
}

// Descriptor is the family-independent view used for eligibility checks.
type Descriptor struct {
	Types     []string `json:"types"`
	Attribute *string  `json:"attribute"`
}

// Describer flattens one family's schema into a Descriptor.
// It returns ErrUnknown when id does not exist.
type Describer interface {
	Describe(ctx context.Context, id int64) (*Descriptor, error)
}

// Provider dispatches references to the Describer registered for their
// family and caches the result.
type Provider struct {
	mu         sync.RWMutex
	describers map[Family]Describer
	cache      cache.Cache
	ttl        time.Duration
	logger     *zap.Logger
}

// NewProvider creates an empty Provider. c may be nil to disable caching.
func NewProvider(c cache.Cache, ttl time.Duration, logger *zap.Logger) *Provider {
	return &Provider{
		describers: make(map[Family]Describer),
		cache:      c,
		ttl:        ttl,
		logger:     logger,
	}
}

// Register installs the Describer for a family, replacing any previous one.
func (p *Provider) Register(f Family, d Describer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.describers[f] = d
}

// Describe returns the flattened view of ref.
func (p *Provider) Describe(ctx context.Context, ref Ref) (*Descriptor, error) {
	p.mu.RLock()
	d, ok := p.describers[ref.Family]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: family %q", ErrUnknown, ref.Family)
	}

	key := "species:" + ref.String()
	if p.cache != nil {
		if raw, err := p.cache.Get(ctx, key); err == nil {
			var desc Descriptor
			if err := json.Unmarshal([]byte(raw), &desc); err == nil {
				return &desc, nil
			}
		}
	}

	desc, err := d.Describe(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	if p.cache != nil {
		if raw, err := json.Marshal(desc); err == nil {
			if err := p.cache.Set(ctx, key, string(raw), p.ttl); err != nil {
				p.logger.Debug("species cache set failed", zap.String("ref", ref.String()), zap.Error(err))
			}
		}
	}
	return desc, nil
}
