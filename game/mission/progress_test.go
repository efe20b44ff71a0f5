package mission

import (
	"testing"

	"github.com/kasuganosora/questd/model"
	"github.com/stretchr/testify/assert"
)

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, Percent(0, 5))
	assert.Equal(t, 33, Percent(1, 3))
	assert.Equal(t, 66, Percent(2, 3))
	assert.Equal(t, 100, Percent(5, 5))
	assert.Equal(t, 100, Percent(0, 0))
}

func TestProgressText(t *testing.T) {
	full := &model.MissionTemplate{
		ProgressText1:     "Just started",
		ProgressText20:    "Warming up",
		ProgressText40:    "Getting there",
		ProgressText60:    "Over halfway",
		ProgressText80:    "Almost done",
		CompletionMessage: "All {target} done!",
	}
	sparse := &model.MissionTemplate{
		ProgressText1:  "On the hunt",
		ProgressText60: "{current} of {target} ({percent}%)",
	}
	bare := &model.MissionTemplate{}

	cases := []struct {
		name    string
		tpl     *model.MissionTemplate
		current int
		target  int
		want    string
	}{
		{"zero uses tier one", full, 0, 10, "Just started"},
		{"19 percent", full, 19, 100, "Just started"},
		{"20 percent", full, 2, 10, "Warming up"},
		{"40 percent", full, 4, 10, "Getting there"},
		{"60 percent", full, 6, 10, "Over halfway"},
		{"99 percent", full, 99, 100, "Almost done"},
		{"complete", full, 10, 10, "All 10 done!"},
		{"empty higher tiers skipped", sparse, 4, 5, "4 of 5 (80%)"},
		{"below first set tier", sparse, 5, 10, "On the hunt"},
		{"generic fallback", bare, 1, 4, "Progress: 25%"},
		{"empty completion message", bare, 4, 4, "Progress: 100%"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &model.PlayerMission{CurrentProgress: tc.current, TargetProgress: tc.target}
			assert.Equal(t, tc.want, ProgressText(m, tc.tpl))
		})
	}
}
