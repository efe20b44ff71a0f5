package mission

import (
	"strconv"
	"strings"

	"github.com/kasuganosora/questd/model"
)

// Percent is floor(current/target*100). A non-positive target counts as done.
func Percent(current, target int) int {
	if target <= 0 {
		return 100
	}
	if current <= 0 {
		return 0
	}
	return current * 100 / target
}

// ProgressText renders the flavor text for m's progress. Texts may contain
// {current}, {target} and {percent}.
func ProgressText(m *model.PlayerMission, tpl *model.MissionTemplate) string {
	pct := Percent(m.CurrentProgress, m.TargetProgress)
	r := strings.NewReplacer(
		"{current}", strconv.Itoa(m.CurrentProgress),
		"{target}", strconv.Itoa(m.TargetProgress),
		"{percent}", strconv.Itoa(pct),
	)
	generic := "Progress: " + strconv.Itoa(pct) + "%"

	if pct >= 100 {
		if tpl.CompletionMessage == "" {
			return generic
		}
		return r.Replace(tpl.CompletionMessage)
	}

	tiers := []struct {
		min  int
		text string
	}{
		{80, tpl.ProgressText80},
		{60, tpl.ProgressText60},
		{40, tpl.ProgressText40},
		{20, tpl.ProgressText20},
	}
	for _, tier := range tiers {
		if pct >= tier.min && tier.text != "" {
			return r.Replace(tier.text)
		}
	}
	if tpl.ProgressText1 != "" {
		return r.Replace(tpl.ProgressText1)
	}
	return generic
}
