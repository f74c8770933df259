// Package intent classifies a user utterance into the coarse action the
// user is asking for.
package intent

import (
	"strings"

	"diet-coach/internal/lexicon"
)

type Intent string

const (
	MealLogging Intent = "meal_logging"
	MealQuery   Intent = "meal_query"
	MealModify  Intent = "meal_modify"
	CasualChat  Intent = "casual_chat"
)

// Rule is one row of the classification table. Rules are evaluated in order
// and the first matching rule decides the intent.
type Rule struct {
	Name   string
	Match  func(normalized string) bool
	Intent Intent
}

// Classifier is safe for concurrent use; it holds no mutable state.
type Classifier struct {
	rules []Rule
}

func NewClassifier(lex *lexicon.IntentLexicon) *Classifier {
	return &Classifier{rules: Rules(lex)}
}

// Rules builds the ordered rule table for lex.
//
// A bare food keyword never logs on its own: logging needs a past-tense verb
// or an eating action next to a known food.
func Rules(lex *lexicon.IntentLexicon) []Rule {
	return []Rule{
		{
			Name:   "query",
			Match:  func(s string) bool { return lexicon.ContainsAny(s, lex.Query) },
			Intent: MealQuery,
		},
		{
			Name: "modify",
			Match: func(s string) bool {
				return lexicon.ContainsAny(s, lex.ModifyVerbs) || hasSubstitution(s, lex.SubstitutionMarkers)
			},
			Intent: MealModify,
		},
		{
			Name: "future",
			Match: func(s string) bool {
				return lexicon.ContainsAny(s, lex.Future) && !lexicon.ContainsAny(s, lex.PastTense)
			},
			Intent: CasualChat,
		},
		{
			Name: "logging",
			Match: func(s string) bool {
				if lexicon.ContainsAny(s, lex.PastTense) {
					return true
				}
				return lexicon.ContainsAny(s, lex.EatingActions) && lexicon.ContainsFood(s, lex.Foods)
			},
			Intent: MealLogging,
		},
	}
}

// Classify never fails; anything unmatched is casual chat.
func (c *Classifier) Classify(utterance string) Intent {
	intent, _ := c.Explain(utterance)
	return intent
}

// Explain is Classify plus the name of the rule that fired ("" for the
// fallback).
func (c *Classifier) Explain(utterance string) (Intent, string) {
	s := lexicon.Normalize(utterance)
	for _, r := range c.rules {
		if r.Match(s) {
			return r.Intent, r.Name
		}
	}
	return CasualChat, ""
}

// hasSubstitution matches "X <marker> Y" with non-empty X and Y.
func hasSubstitution(s string, markers []string) bool {
	for _, m := range markers {
		m = strings.ToLower(m)
		if strings.TrimSpace(m) == "" {
			continue
		}
		rest := s
		offset := 0
		for {
			i := strings.Index(rest, m)
			if i < 0 {
				break
			}
			before := s[:offset+i]
			after := s[offset+i+len(m):]
			if strings.TrimSpace(before) != "" && strings.TrimSpace(after) != "" {
				return true
			}
			offset += i + len(m)
			rest = s[offset:]
		}
	}
	return false
}
