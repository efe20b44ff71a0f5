package species

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kasuganosora/questd/model"
	"github.com/kasuganosora/questd/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type countingDescriber struct {
	calls int
	desc  *Descriptor
	err   error
}

func (c *countingDescriber) Describe(context.Context, int64) (*Descriptor, error) {
	c.calls++
	return c.desc, c.err
}

func TestParseRef(t *testing.T) {
	ref, err := ParseRef("beast:25")
	require.NoError(t, err)
	assert.Equal(t, Ref{Family: FamilyBeast, ID: 25}, ref)
	assert.Equal(t, "beast:25", ref.String())

	for _, bad := range []string{"", "beast", ":1", "beast:x"} {
		_, err := ParseRef(bad)
		assert.Error(t, err, bad)
	}
}

func TestDescribe_UnknownFamily(t *testing.T) {
	p := NewProvider(nil, 0, zap.NewNop())
	_, err := p.Describe(context.Background(), Ref{Family: "robot", ID: 1})
	assert.ErrorIs(t, err, ErrUnknown)
}

func TestDescribe_CachesResult(t *testing.T) {
	c, _ := testutil.SetupTestCache(t)
	d := &countingDescriber{desc: &Descriptor{Types: []string{"fire"}}}
	p := NewProvider(c, time.Minute, zap.NewNop())
	p.Register(FamilyBeast, d)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		got, err := p.Describe(ctx, Ref{Family: FamilyBeast, ID: 4})
		require.NoError(t, err)
		assert.Equal(t, []string{"fire"}, got.Types)
	}
	assert.Equal(t, 1, d.calls)
}

func TestDescribe_ErrorsNotCached(t *testing.T) {
	c, _ := testutil.SetupTestCache(t)
	d := &countingDescriber{err: errors.New("db down")}
	p := NewProvider(c, time.Minute, zap.NewNop())
	p.Register(FamilySpirit, d)

	ctx := context.Background()
	_, err := p.Describe(ctx, Ref{Family: FamilySpirit, ID: 1})
	assert.Error(t, err)
	_, err = p.Describe(ctx, Ref{Family: FamilySpirit, ID: 1})
	assert.Error(t, err)
	assert.Equal(t, 2, d.calls)
}

func TestDefaultProvider_Families(t *testing.T) {
	db := testutil.SetupTestDB(t)
	require.NoError(t, db.Create(&model.BeastSpecies{ID: 1, Name: "Emberpup", Types: datatypes.JSONSlice[string]{"fire", "normal"}}).Error)
	require.NoError(t, db.Create(&model.SpiritSpecies{ID: 1, Name: "Wisp", Element: "light", Attribute: "vaccine"}).Error)
	require.NoError(t, db.Create(&model.SpiritSpecies{ID: 2, Name: "Shade", Element: "dark"}).Error)

	p := NewDefaultProvider(db, nil, 0, zap.NewNop())
	ctx := context.Background()

	beast, err := p.Describe(ctx, Ref{Family: FamilyBeast, ID: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"fire", "normal"}, beast.Types)
	assert.Nil(t, beast.Attribute)

	wisp, err := p.Describe(ctx, Ref{Family: FamilySpirit, ID: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"light"}, wisp.Types)
	require.NotNil(t, wisp.Attribute)
	assert.Equal(t, "vaccine", *wisp.Attribute)

	shade, err := p.Describe(ctx, Ref{Family: FamilySpirit, ID: 2})
	require.NoError(t, err)
	assert.Nil(t, shade.Attribute)

	_, err = p.Describe(ctx, Ref{Family: FamilyBeast, ID: 99})
	assert.ErrorIs(t, err, ErrUnknown)
}
