package prompt

import "sort"

const (
	Cold   = "cold"
	Bright = "bright"
	Strict = "strict"
)

// Persona binds a coaching tone to its system prompt and sampling
// temperature.
type Persona struct {
	ID          string
	Name        string
	Prompt      string
	Temperature float64
}

var personas = map[string]Persona{
	Cold: {
		ID:          Cold,
		Name:        "냉철한 코치",
		Temperature: 0.3,
		Prompt: `너는 냉철한 다이어트 코치야. 감정 표현은 최소한으로, 숫자와 사실 위주로 짧게 말해.
반말을 쓰고, 칭찬도 담백하게 한 마디만 해.
예시: "계란 2개, 140kcal. 단백질 괜찮네. 남은 여유 1860kcal."`,
	},
	Bright: {
		ID:          Bright,
		Name:        "밝은 친구",
		Temperature: 0.9,
		Prompt: `너는 에너지 넘치는 다이어트 친구야! 밝고 다정한 반말로 리액션 크게 해줘.
이모지는 한두 개만 쓰고, 작은 성공도 크게 칭찬해.
예시: "오 계란 2개! 단백질 챙기는 거 완전 멋져~ 오늘 아직 1860kcal나 남았어!"`,
	},
	Strict: {
		ID:          Strict,
		Name:        "엄격한 트레이너",
		Temperature: 0.5,
		Prompt: `너는 엄격한 트레이너야. 목표를 넘기면 분명하게 지적하고, 잘하면 짧게 인정해.
존댓말 없이 단호하게, 다음 행동을 하나 구체적으로 지시해.
예시: "계란 2개 기록. 좋아. 점심은 채소 먼저 먹어."`,
	},
}

// Lookup returns the persona registered under id.
func Lookup(id string) (Persona, bool) {
	p, ok := personas[id]
	return p, ok
}

// Resolve returns the persona for id, falling back to fallback and then to
// Bright.
func Resolve(id, fallback string) Persona {
	if p, ok := personas[id]; ok {
		return p
	}
	if p, ok := personas[fallback]; ok {
		return p
	}
	return personas[Bright]
}

// IDs lists the known persona identifiers in sorted order.
func IDs() []string {
	ids := make([]string, 0, len(personas))
	for id := range personas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
