package mission

import (
	"context"
	"errors"
	"strings"

	"github.com/kasuganosora/questd/game/species"
	"github.com/kasuganosora/questd/model"
)

// CheckMonsterEligibility reports whether the monster counts toward the
// mission's type and attribute requirements. An unknown monster is not
// eligible.
func (svc *Service) CheckMonsterEligibility(ctx context.Context, missionID int64, ref species.Ref) (bool, error) {
	m, err := svc.find(ctx, missionID)
	if err != nil {
		return false, err
	}
	tpl, err := svc.template(ctx, m.TemplateID)
	if err != nil {
		return false, err
	}
	if len(tpl.TypeRequirements) == 0 && len(tpl.AttributeRequirements) == 0 {
		return true, nil
	}

	desc, err := svc.species.Describe(ctx, ref)
	if errors.Is(err, species.ErrUnknown) {
		return false, nil
	}
	if err != nil {
		return false, classify("describe monster", err)
	}
	return Eligible(tpl, desc), nil
}

// Eligible applies tpl's requirements to a described monster.
// An empty requirement set matches anything.
func Eligible(tpl *model.MissionTemplate, desc *species.Descriptor) bool {
	typeMatch := len(tpl.TypeRequirements) == 0 || intersects(tpl.TypeRequirements, desc.Types)

	attrMatch := len(tpl.AttributeRequirements) == 0
	if !attrMatch && desc.Attribute != nil {
		attrMatch = intersects(tpl.AttributeRequirements, []string{*desc.Attribute})
	}

	if strings.EqualFold(string(tpl.RequirementsCombinator), string(model.CombinatorOr)) {
		return typeMatch || attrMatch
	}
	return typeMatch && attrMatch
}

func intersects(want, have []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(strings.TrimSpace(w), strings.TrimSpace(h)) {
				return true
			}
		}
	}
	return false
}
