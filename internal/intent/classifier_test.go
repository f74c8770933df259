package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"diet-coach/internal/lexicon"
)

func newDefault() *Classifier {
	return NewClassifier(&lexicon.Default().Intent)
}

func TestClassify(t *testing.T) {
	c := newDefault()
	tests := []struct {
		name      string
		utterance string
		want      Intent
	}{
		{"query today", "오늘 뭐 먹었지?", MealQuery},
		{"query breakfast", "아침에 뭐 먹었어?", MealQuery},
		{"query english", "What did I eat today?", MealQuery},
		{"substitution", "피자 대신 샐러드 먹었어", MealModify},
		{"substitution malgo", "치킨 말고 닭가슴살이었어", MealModify},
		{"substitution english", "I had salad instead of pizza", MealModify},
		{"delete verb", "점심 삭제해줘", MealModify},
		{"past tense", "점심에 치킨 먹었어", MealLogging},
		{"eggs breakfast", "아침에 계란 2개 먹었어", MealLogging},
		{"english past", "I ate a burger", MealLogging},
		{"eating action with food", "지금 샐러드 먹는 중", MealLogging},
		{"hungry", "배고파", CasualChat},
		{"greeting", "안녕!", CasualChat},
		{"future", "저녁에 뭐 먹을까?", CasualChat},
		{"advice english", "What should I eat for lunch tomorrow?", CasualChat},
		{"future with past marker logs", "치킨 먹고 싶었는데 결국 먹었어", MealLogging},
		{"bare food keyword", "피자 맛집 알아?", CasualChat},
		{"had without food", "I had a great day", CasualChat},
		{"had with food", "I had pizza for lunch", MealLogging},
		{"one syllable food inside word", "한국 음식 먹는 법 알려줘", CasualChat},
		{"one syllable food with particle", "밥을 먹는 중", MealLogging},
		{"empty", "", CasualChat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.utterance))
		})
	}
}

func TestClassify_PastTenseWithoutMarkersLogs(t *testing.T) {
	c := newDefault()
	for _, u := range []string{
		"라면 먹었어",
		"어제 저녁에 삼겹살 먹음",
		"커피 마셨어",
		"방금 고구마 두 개 먹었다",
	} {
		assert.Equal(t, MealLogging, c.Classify(u), u)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := newDefault()
	u := "피자 대신 샐러드 먹었어"
	first := c.Classify(u)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.Classify(u))
	}
}

func TestExplain_ReportsRule(t *testing.T) {
	c := newDefault()

	got, rule := c.Explain("오늘 뭐 먹었지?")
	assert.Equal(t, MealQuery, got)
	assert.Equal(t, "query", rule)

	got, rule = c.Explain("배고파")
	assert.Equal(t, CasualChat, got)
	assert.Equal(t, "", rule)
}

func TestClassify_SyntheticLexicon(t *testing.T) {
	lex := &lexicon.IntentLexicon{
		Query:       []string{"qqq"},
		ModifyVerbs: []string{"eee"},
		PastTense:   []string{"ppp"},
		Future:      []string{"fff"},
	}
	c := NewClassifier(lex)

	assert.Equal(t, MealQuery, c.Classify("qqq eee"))
	assert.Equal(t, MealModify, c.Classify("eee ppp"))
	assert.Equal(t, CasualChat, c.Classify("fff"))
	assert.Equal(t, MealLogging, c.Classify("fff ppp"))
	assert.Equal(t, CasualChat, c.Classify("nothing here"))
}

func TestHasSubstitution(t *testing.T) {
	markers := []string{"대신", " instead of "}
	assert.True(t, hasSubstitution(lexicon.Normalize("피자 대신 샐러드"), markers))
	assert.False(t, hasSubstitution(lexicon.Normalize("대신"), markers))
	assert.False(t, hasSubstitution(lexicon.Normalize("샐러드 대신"), markers))
	assert.True(t, hasSubstitution(lexicon.Normalize("tea instead of coffee"), markers))
}
