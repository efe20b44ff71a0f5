package mission

import (
	"context"
	"testing"

	"github.com/kasuganosora/questd/game/species"
	"github.com/kasuganosora/questd/model"
	"github.com/kasuganosora/questd/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestEligible(t *testing.T) {
	fireDark := &species.Descriptor{Types: []string{"Fire", "Beast"}, Attribute: strPtr("Dark")}
	water := &species.Descriptor{Types: []string{"Water"}}

	cases := []struct {
		name string
		tpl  model.MissionTemplate
		desc *species.Descriptor
		want bool
	}{
		{"no requirements", model.MissionTemplate{}, water, true},
		{"type hit", model.MissionTemplate{TypeRequirements: []string{"Fire"}}, fireDark, true},
		{"type miss", model.MissionTemplate{TypeRequirements: []string{"Fire"}}, water, false},
		{"type case-insensitive", model.MissionTemplate{TypeRequirements: []string{"fire"}}, fireDark, true},
		{"attribute hit", model.MissionTemplate{AttributeRequirements: []string{"Dark", "Light"}}, fireDark, true},
		{"attribute absent", model.MissionTemplate{AttributeRequirements: []string{"Dark"}}, water, false},
		{
			"AND both hit",
			model.MissionTemplate{TypeRequirements: []string{"Fire"}, AttributeRequirements: []string{"Dark"}, RequirementsCombinator: model.CombinatorAnd},
			fireDark, true,
		},
		{
			"AND one miss",
			model.MissionTemplate{TypeRequirements: []string{"Fire"}, AttributeRequirements: []string{"Light"}, RequirementsCombinator: model.CombinatorAnd},
			fireDark, false,
		},
		{
			"empty combinator is AND",
			model.MissionTemplate{TypeRequirements: []string{"Fire"}, AttributeRequirements: []string{"Light"}},
			fireDark, false,
		},
		{
			"OR one hit",
			model.MissionTemplate{TypeRequirements: []string{"Fire"}, AttributeRequirements: []string{"Light"}, RequirementsCombinator: model.CombinatorOr},
			fireDark, true,
		},
		{
			"OR both miss",
			model.MissionTemplate{TypeRequirements: []string{"Ice"}, AttributeRequirements: []string{"Light"}, RequirementsCombinator: model.CombinatorOr},
			fireDark, false,
		},
		{
			"OR with empty type set always matches",
			model.MissionTemplate{AttributeRequirements: []string{"Light"}, RequirementsCombinator: model.CombinatorOr},
			water, true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Eligible(&tc.tpl, tc.desc))
		})
	}
}

func TestCheckMonsterEligibility(t *testing.T) {
	db := testutil.SetupTestDB(t)
	p := testutil.SeedPlayer(t, db, "alice", 1)
	require.NoError(t, db.Create(&model.BeastSpecies{ID: 1, Name: "Salamander", Types: []string{"Fire"}}).Error)
	require.NoError(t, db.Create(&model.SpiritSpecies{ID: 1, Name: "Wisp", Element: "Light", Attribute: "Holy"}).Error)

	open := seedTemplate(t, db, model.MissionTemplate{ID: 1, MinProgress: 1})
	fire := seedTemplate(t, db, model.MissionTemplate{ID: 2, MinProgress: 1, TypeRequirements: []string{"fire"}})
	holyOrFire := seedTemplate(t, db, model.MissionTemplate{
		ID: 3, MinProgress: 1, TypeRequirements: []string{"Fire"}, AttributeRequirements: []string{"Holy"},
		RequirementsCombinator: model.CombinatorOr,
	})

	openM := seedActive(t, db, p.ID, open.ID, 0, 1)
	fireM := seedActive(t, db, p.ID, fire.ID, 0, 1)
	orM := seedActive(t, db, p.ID, holyOrFire.ID, 0, 1)
	svc := newTestService(t, db)
	ctx := context.Background()

	salamander := species.Ref{Family: species.FamilyBeast, ID: 1}
	wisp := species.Ref{Family: species.FamilySpirit, ID: 1}
	ghost := species.Ref{Family: species.FamilyBeast, ID: 99}

	ok, err := svc.CheckMonsterEligibility(ctx, openM.ID, ghost)
	require.NoError(t, err)
	assert.True(t, ok, "no requirements, provider not consulted")

	ok, err = svc.CheckMonsterEligibility(ctx, fireM.ID, salamander)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CheckMonsterEligibility(ctx, fireM.ID, wisp)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.CheckMonsterEligibility(ctx, orM.ID, wisp)
	require.NoError(t, err)
	assert.True(t, ok, "attribute alone satisfies OR")

	ok, err = svc.CheckMonsterEligibility(ctx, fireM.ID, ghost)
	require.NoError(t, err)
	assert.False(t, ok, "unknown monster")

	_, err = svc.CheckMonsterEligibility(ctx, 999, salamander)
	assert.ErrorIs(t, err, ErrNotFound)
}
