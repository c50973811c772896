package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"youtrait/internal/domain"
	"youtrait/internal/suggestion"
)

const (
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorReset = "\033[0m"
)

// Scenario describe un perfil sintético y las palabras que el motor debería
// proponer (o no) para él.
type Scenario struct {
	Name      string
	Bio       string
	Held      []string
	Given     []string
	Expected  []string
	Forbidden []string
}

// suggestion_check corre el motor de sugerencias contra perfiles sintéticos en
// memoria y puntúa cada resultado. Sale con código 1 si algún escenario falla.
func main() {
	ctx := context.Background()
	logger := zap.NewExample()
	defer logger.Sync()

	scenarios := []Scenario{
		{
			Name:     "Bio creativa",
			Bio:      "Friendly designer, I love art and bad jokes.",
			Expected: []string{"creative", "funny", "outgoing"},
		},
		{
			Name:      "Rasgos ya aprobados no se repiten",
			Bio:       "Creative soul who reads every night.",
			Held:      []string{"creative", "supportive"},
			Forbidden: []string{"creative", "supportive"},
		},
		{
			Name:     "Actividad dada a otros",
			Given:    []string{"kind", "kind", "honest"},
			Expected: []string{"kind"},
		},
	}

	failed := 0
	var total float64
	for _, sc := range scenarios {
		fmt.Printf("%s[Escenario]%s %s\n", colorCyan, colorReset, sc.Name)

		userID := uuid.NewString()
		profiles := &memoryProfileRepo{profile: domain.Profile{ID: userID, Username: "check", Bio: sc.Bio, CreatedAt: time.Now().UTC()}}
		traits := newMemoryTraitRepo(userID, sc.Held, sc.Given)
		repo := &memorySuggestionRepo{}

		engine := suggestion.NewEngine(profiles, traits, repo, logger)
		got := engine.Generate(ctx, userID)
		for _, s := range got {
			fmt.Printf("  %-14s %-8s %.2f  %s\n", s.SuggestedTrait, s.SourceType, s.ConfidenceScore, s.Reasoning)
		}

		sr := scoreScenario(sc, got)
		total += sr.Score
		color := colorGreen
		if !sr.Passed() {
			color = colorRed
			failed++
		}
		fmt.Printf("%sScore %.2f%s faltantes=%v prohibidas=%v confianza_fuera_de_rango=%d\n\n",
			color, sr.Score, colorReset, sr.Missing, sr.Leaked, sr.OutOfRange)
	}

	fmt.Println("==== Promedio ====")
	fmt.Printf("%.2f sobre %d escenarios\n", total/float64(len(scenarios)), len(scenarios))
	if failed > 0 {
		os.Exit(1)
	}
}
