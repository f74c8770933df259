package lexicon

// Default returns the built-in Korean/English tables.
func Default() *Lexicon {
	return &Lexicon{
		Intent: IntentLexicon{
			Query: []string{
				"뭐 먹었", "뭐먹었", "뭘 먹었", "뭘먹었", "무엇을 먹었", "먹은 거", "먹은거", "먹은 음식",
				"식단 보여", "식단 알려", "식단 확인", "기록 보여", "기록 확인", "기록 알려",
				" what did i eat", " what i ate", " check my log", " show my meals", " what have i eaten",
			},
			ModifyVerbs: []string{
				"삭제", "지워", "지우", "수정", "바꿔", "바꾸", "취소", "잘못 기록", "잘못 입력",
				" delete ", " remove ", " edit ", " change ", " cancel ", " undo ",
			},
			SubstitutionMarkers: []string{
				"대신", "말고", " instead of ", " rather than ",
			},
			Future: []string{
				"먹을까", "먹을 거", "먹을거", "먹을지", "먹을 예정", "먹으려고", "먹으려는", "먹어도 돼", "먹어도 될까",
				"먹어도 되", "먹고 싶", "먹고싶", "먹을래", "마실까", "마셔도 돼",
				" going to eat", " gonna eat", " should i eat", " will eat", " can i eat", " planning to eat",
			},
			PastTense: []string{
				"먹었", "먹음", "먹엇", "마셨", "마심", "섭취했", "섭취함", "먹고 왔",
				" ate ", " have eaten", " had eaten", " drank ",
			},
			EatingActions: []string{
				"먹", "마시", "마셔", "섭취",
				" eat ", " eating ", " eats ", " drink ", " drinking ", " had ",
			},
			Foods: []string{
				"밥", "김밥", "비빔밥", "볶음밥", "라면", "국수", "짜장면", "짬뽕", "우동", "냉면",
				"치킨", "피자", "햄버거", "떡볶이", "삼겹살", "족발", "보쌈", "초밥", "돈까스", "스테이크",
				"샐러드", "닭가슴살", "계란", "달걀", "두부", "고구마", "감자", "현미", "오트밀", "요거트",
				"우유", "빵", "토스트", "샌드위치", "사과", "바나나", "과일", "과자", "아이스크림", "케이크",
				"커피", "라떼", "콜라", "맥주", "소주", "찌개", "국", "김치",
				" chicken", " pizza", " burger", " salad", " rice", " egg", " eggs", " bread", " noodles",
				" sandwich", " steak", " apple", " banana", " oatmeal", " yogurt", " coffee", " beer",
			},
		},
		Situation: SituationLexicon{
			Healthy: []string{
				"샐러드", "닭가슴살", "고구마", "현미", "두부", "브로콜리", "채소", "야채", "과일",
				"사과", "바나나", "계란", "달걀", "요거트", "오트밀", "연어", "견과", "토마토",
				"salad", "chicken breast", "broccoli", "oatmeal", "salmon", "vegetable", "fruit", "tofu", "egg",
			},
			Junk: []string{
				"치킨", "피자", "라면", "햄버거", "떡볶이", "과자", "아이스크림", "콜라", "감자튀김",
				"도넛", "케이크", "초콜릿", "맥주", "소주", "족발", "보쌈", "삼겹살",
				"pizza", "burger", "fries", "donut", "cake", "chips", "soda", "cola", "ice cream", "fried chicken",
			},
			StreakMilestones: []int{3, 7, 14, 30, 60, 100},
		},
	}
}
