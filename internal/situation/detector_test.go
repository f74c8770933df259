package situation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"diet-coach/internal/lexicon"
)

func newDefault() *Detector {
	return NewDetector(&lexicon.Default().Situation)
}

func TestDetect_Priority(t *testing.T) {
	d := newDefault()
	tests := []struct {
		name string
		ctx  Context
		want Situation
	}{
		{
			name: "streak beats late night",
			ctx:  Context{Hour: 23, StreakDays: 7, ConsumedCalories: 3000, TargetCalories: 2000},
			want: Streak,
		},
		{
			name: "non milestone streak ignored",
			ctx:  Context{Hour: 12, StreakDays: 8},
			want: Default,
		},
		{
			name: "first meal beats late night",
			ctx:  Context{Hour: 2, FirstMealToday: true},
			want: FirstMeal,
		},
		{
			name: "late night beats overeating",
			ctx:  Context{Hour: 22, ConsumedCalories: 3000, TargetCalories: 2000},
			want: LateNight,
		},
		{
			name: "early morning is late night",
			ctx:  Context{Hour: 4},
			want: LateNight,
		},
		{
			name: "five am is not late night",
			ctx:  Context{Hour: 5},
			want: Default,
		},
		{
			name: "overeating",
			ctx:  Context{Hour: 13, ConsumedCalories: 2400, TargetCalories: 2000},
			want: Overeating,
		},
		{
			name: "under eating in the evening",
			ctx:  Context{Hour: 19, ConsumedCalories: 500, TargetCalories: 2000},
			want: UnderEating,
		},
		{
			name: "low intake at noon is fine",
			ctx:  Context{Hour: 12, ConsumedCalories: 500, TargetCalories: 2000},
			want: Default,
		},
		{
			name: "ratio before food",
			ctx:  Context{Hour: 12, ConsumedCalories: 2000, TargetCalories: 2000, Foods: []string{"피자"}},
			want: GoalAchieved,
		},
		{
			name: "junk",
			ctx:  Context{Hour: 12, Foods: []string{"샐러드", "콜라"}},
			want: Junk,
		},
		{
			name: "healthy only",
			ctx:  Context{Hour: 12, Foods: []string{"닭가슴살 샐러드", "Broccoli"}},
			want: Healthy,
		},
		{
			name: "no target skips ratio",
			ctx:  Context{Hour: 12, ConsumedCalories: 5000},
			want: Default,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Detect(tt.ctx))
		})
	}
}

func TestDetect_RatioBoundaries(t *testing.T) {
	d := newDefault()
	at := func(consumed int) Situation {
		return d.Detect(Context{Hour: 12, ConsumedCalories: consumed, TargetCalories: 2000})
	}
	assert.Equal(t, GoalAchieved, at(1800), "ratio 0.9")
	assert.Equal(t, GoalAchieved, at(2200), "ratio 1.1")
	assert.Equal(t, Default, at(1780), "ratio 0.89")
	assert.Equal(t, Default, at(2300), "ratio 1.15")
	assert.Equal(t, Overeating, at(2400), "ratio 1.2")

	assert.Equal(t, GoalAchieved, d.Detect(Context{Hour: 12, ConsumedCalories: 90, TargetCalories: 100}))
	assert.Equal(t, GoalAchieved, d.Detect(Context{Hour: 12, ConsumedCalories: 110, TargetCalories: 100}))
	assert.Equal(t, Default, d.Detect(Context{Hour: 12, ConsumedCalories: 89, TargetCalories: 100}))
}

func TestDetectAll(t *testing.T) {
	d := newDefault()

	got := d.DetectAll(Context{Hour: 23, Foods: []string{"치킨"}})
	assert.Equal(t, []Situation{LateNight, Junk}, got)

	got = d.DetectAll(Context{Hour: 22, ConsumedCalories: 2600, TargetCalories: 2000, Foods: []string{"라면"}})
	assert.Equal(t, []Situation{LateNight, Overeating, Junk}, got)

	got = d.DetectAll(Context{Hour: 12, StreakDays: 7, FirstMealToday: true})
	assert.Equal(t, []Situation{Default}, got)
}

func TestDetect_Pure(t *testing.T) {
	d := newDefault()
	c := Context{Hour: 23, Foods: []string{"피자"}, ConsumedCalories: 1000, TargetCalories: 2000}
	want := d.DetectAll(c)
	for i := 0; i < 5; i++ {
		assert.Equal(t, LateNight, d.Detect(c))
		assert.Equal(t, want, d.DetectAll(c))
	}
}

func TestDetect_SyntheticLexicon(t *testing.T) {
	d := NewDetector(&lexicon.SituationLexicon{
		Healthy:          []string{"KALE"},
		Junk:             []string{"candy"},
		StreakMilestones: []int{2},
	})
	assert.Equal(t, Streak, d.Detect(Context{Hour: 12, StreakDays: 2}))
	assert.Equal(t, Default, d.Detect(Context{Hour: 12, StreakDays: 3}))
	assert.Equal(t, Healthy, d.Detect(Context{Hour: 12, Foods: []string{"kale chips"}}))
	assert.Equal(t, Junk, d.Detect(Context{Hour: 12, Foods: []string{"kale", "Candy bar"}}))
}
