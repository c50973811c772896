package suggestion

import (
	"strings"

	"youtrait/internal/domain"
)

// Entry es una palabra candidata con las pistas que la delatan en una bio.
type Entry struct {
	Word     string
	Category string
	Keywords []string
}

var Vocabulary = []Entry{
	{Word: "creative", Category: domain.TraitCategoryMind, Keywords: []string{"art", "design", "innovative", "original"}},
	{Word: "intelligent", Category: domain.TraitCategoryMind, Keywords: []string{"smart", "clever", "analytical", "logical"}},
	{Word: "wise", Category: domain.TraitCategoryMind, Keywords: []string{"thoughtful", "insightful", "experienced"}},
	{Word: "curious", Category: domain.TraitCategoryMind, Keywords: []string{"learning", "exploring", "questioning"}},

	{Word: "kind", Category: domain.TraitCategoryHeart, Keywords: []string{"caring", "gentle", "compassionate"}},
	{Word: "empathetic", Category: domain.TraitCategoryHeart, Keywords: []string{"understanding", "supportive", "caring"}},
	{Word: "passionate", Category: domain.TraitCategoryHeart, Keywords: []string{"enthusiastic", "dedicated", "driven"}},
	{Word: "genuine", Category: domain.TraitCategoryHeart, Keywords: []string{"authentic", "real", "honest"}},

	{Word: "funny", Category: domain.TraitCategorySocial, Keywords: []string{"humor", "jokes", "entertaining"}},
	{Word: "charismatic", Category: domain.TraitCategorySocial, Keywords: []string{"charming", "magnetic", "influential"}},
	{Word: "outgoing", Category: domain.TraitCategorySocial, Keywords: []string{"social", "extroverted", "friendly"}},
	{Word: "inspiring", Category: domain.TraitCategorySocial, Keywords: []string{"motivating", "uplifting", "encouraging"}},
}

// SocialGraphWords es la heurística fija del origen social_graph.
var SocialGraphWords = []string{"reliable", "supportive", "thoughtful"}

// CategoryOf busca la categoría de una palabra en el vocabulario; general si no está.
func CategoryOf(word string) string {
	for _, e := range Vocabulary {
		if strings.EqualFold(e.Word, word) {
			return e.Category
		}
	}
	return domain.TraitCategoryGeneral
}
