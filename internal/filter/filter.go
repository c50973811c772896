package filter

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultDenylist es la lista base de términos vetados. Los términos no se
// solapan entre sí, de modo que la censura en orden es determinista.
var DefaultDenylist = []string{"spam", "hate", "abuse", "offensive", "inappropriate"}

// Result es la clasificación de un texto.
type Result struct {
	IsClean      bool     `json:"isClean"`
	FlaggedWords []string `json:"flaggedWords"`
}

// Filter clasifica texto libre por contención de subcadenas, sin distinguir
// mayúsculas. Marca también palabras compuestas que contienen un término
// vetado ("spammer"); es la política acordada, no un error.
type Filter struct {
	words []string
}

// New construye un filtro con la lista normalizada: minúsculas, sin espacios,
// sin duplicados y sin entradas vacías.
func New(words ...string) *Filter {
	seen := make(map[string]struct{}, len(words))
	normalized := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		normalized = append(normalized, w)
	}
	return &Filter{words: normalized}
}

// Default devuelve un filtro con DefaultDenylist más los términos extra.
func Default(extra ...string) *Filter {
	return New(append(append([]string{}, DefaultDenylist...), extra...)...)
}

// Words devuelve la lista efectiva.
func (f *Filter) Words() []string {
	return append([]string{}, f.words...)
}

// Check devuelve los términos de la lista presentes en text, en el orden de la lista.
func (f *Filter) Check(text string) Result {
	flagged := []string{}
	for _, w := range f.words {
		if indexFold(text, w, 0) >= 0 {
			flagged = append(flagged, w)
		}
	}
	return Result{IsClean: len(flagged) == 0, FlaggedWords: flagged}
}

// Redact reemplaza cada aparición de cada término, de izquierda a derecha y
// término por término, por tantos asteriscos como caracteres tenga el término.
func Redact(text string, flagged []string) string {
	out := text
	for _, w := range flagged {
		if w == "" {
			continue
		}
		out = replaceFold(out, w)
	}
	return out
}

// Apply combina Check y Redact.
func (f *Filter) Apply(text string) (Result, string) {
	res := f.Check(text)
	if res.IsClean {
		return res, text
	}
	return res, Redact(text, res.FlaggedWords)
}

func replaceFold(s, word string) string {
	mask := strings.Repeat("*", utf8.RuneCountInString(word))
	var b strings.Builder
	from := 0
	for {
		start := indexFold(s, word, from)
		if start < 0 {
			break
		}
		end := start + matchLen(s[start:], word)
		b.WriteString(s[from:start])
		b.WriteString(mask)
		from = end
	}
	if from == 0 {
		return s
	}
	b.WriteString(s[from:])
	return b.String()
}

// indexFold busca word en s a partir del byte from, comparando runa a runa con
// plegado de mayúsculas simple.
func indexFold(s, word string, from int) int {
	for i := from; i < len(s); {
		if matchLen(s[i:], word) > 0 {
			return i
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return -1
}

// matchLen devuelve los bytes de s que casan con word al inicio, o 0.
func matchLen(s, word string) int {
	i := 0
	for _, wr := range word {
		if i >= len(s) {
			return 0
		}
		sr, size := utf8.DecodeRuneInString(s[i:])
		if !equalFold(sr, wr) {
			return 0
		}
		i += size
	}
	return i
}

func equalFold(a, b rune) bool {
	if a == b {
		return true
	}
	return unicode.ToLower(a) == unicode.ToLower(b)
}
