// Package lexicon holds the keyword tables that drive intent classification
// and situation detection. Tables are plain data so they can be localized or
// replaced in tests.
package lexicon

import (
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Lexicon struct {
	Intent    IntentLexicon    `yaml:"intent"`
	Situation SituationLexicon `yaml:"situation"`
}

// IntentLexicon keyword lists are matched against the normalized utterance
// (see Normalize). Entries may carry leading/trailing spaces to force word
// boundaries, e.g. " ate ".
type IntentLexicon struct {
	Query               []string `yaml:"query"`
	ModifyVerbs         []string `yaml:"modify_verbs"`
	SubstitutionMarkers []string `yaml:"substitution_markers"`
	Future              []string `yaml:"future"`
	PastTense           []string `yaml:"past_tense"`
	EatingActions       []string `yaml:"eating_actions"`
	Foods               []string `yaml:"foods"`
}

type SituationLexicon struct {
	Healthy          []string `yaml:"healthy"`
	Junk             []string `yaml:"junk"`
	StreakMilestones []int    `yaml:"streak_milestones"`
}

// Load reads a YAML lexicon file. Categories missing from the file keep the
// built-in defaults.
func Load(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read lexicon %s", path)
	}
	var file Lexicon
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrapf(err, "failed to parse lexicon %s", path)
	}
	return Default().Merge(&file), nil
}

// Merge returns a copy of l where every non-empty category of o replaces the
// corresponding category of l.
func (l *Lexicon) Merge(o *Lexicon) *Lexicon {
	out := *l
	pick := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = append([]string(nil), src...)
		}
	}
	pick(&out.Intent.Query, o.Intent.Query)
	pick(&out.Intent.ModifyVerbs, o.Intent.ModifyVerbs)
	pick(&out.Intent.SubstitutionMarkers, o.Intent.SubstitutionMarkers)
	pick(&out.Intent.Future, o.Intent.Future)
	pick(&out.Intent.PastTense, o.Intent.PastTense)
	pick(&out.Intent.EatingActions, o.Intent.EatingActions)
	pick(&out.Intent.Foods, o.Intent.Foods)
	pick(&out.Situation.Healthy, o.Situation.Healthy)
	pick(&out.Situation.Junk, o.Situation.Junk)
	if len(o.Situation.StreakMilestones) > 0 {
		out.Situation.StreakMilestones = append([]int(nil), o.Situation.StreakMilestones...)
	}
	return &out
}

// Normalize lowercases s, turns punctuation into spaces, collapses runs of
// whitespace and pads the result with one space on each side.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(' ')
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			if !space {
				b.WriteByte(' ')
				space = true
			}
			continue
		}
		b.WriteRune(r)
		space = false
	}
	if !space {
		b.WriteByte(' ')
	}
	return b.String()
}

// ContainsAny reports whether normalized text contains any keyword. Keywords
// are lowercased but otherwise used as-is.
func ContainsAny(normalized string, keywords []string) bool {
	for _, k := range keywords {
		if k == "" {
			continue
		}
		if strings.Contains(normalized, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// particles may trail a one-syllable keyword within its word: 밥을, 국이랑.
var particles = []string{
	"", "을", "를", "이", "가", "은", "는", "도", "만", "과", "와", "에", "랑", "이랑",
	"하고", "으로", "로", "이나", "나", "좀",
}

// ContainsFood is ContainsAny for food names. A one-rune keyword such as 밥 or
// 국 only matches as a word of its own, optionally followed by a particle, so
// 한국 does not contain 국.
func ContainsFood(normalized string, keywords []string) bool {
	var words []string
	for _, k := range keywords {
		k = strings.ToLower(k)
		word := strings.TrimSpace(k)
		if word == "" {
			continue
		}
		if utf8.RuneCountInString(word) > 1 {
			if strings.Contains(normalized, k) {
				return true
			}
			continue
		}
		if words == nil {
			words = strings.Fields(normalized)
		}
		for _, w := range words {
			rest, ok := strings.CutPrefix(w, word)
			if ok && isParticle(rest) {
				return true
			}
		}
	}
	return false
}

func isParticle(s string) bool {
	for _, p := range particles {
		if s == p {
			return true
		}
	}
	return false
}
