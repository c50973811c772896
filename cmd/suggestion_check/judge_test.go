package main

import (
	"context"
	"testing"

	"youtrait/internal/domain"
)

func suggestions(words ...string) []domain.Suggestion {
	out := make([]domain.Suggestion, 0, len(words))
	for _, w := range words {
		out = append(out, domain.Suggestion{SuggestedTrait: w, ConfidenceScore: 0.6})
	}
	return out
}

func TestScoreScenario(t *testing.T) {
	cases := []struct {
		name   string
		sc     Scenario
		got    []domain.Suggestion
		score  float64
		passed bool
	}{
		{
			name:   "all expected present",
			sc:     Scenario{Expected: []string{"kind", "Funny"}},
			got:    suggestions("funny", "kind", "reliable"),
			score:  1,
			passed: true,
		},
		{
			name:   "half missing",
			sc:     Scenario{Expected: []string{"kind", "wise"}},
			got:    suggestions("kind"),
			score:  0.5,
			passed: false,
		},
		{
			name:   "forbidden word zeroes score",
			sc:     Scenario{Expected: []string{"kind"}, Forbidden: []string{"creative"}},
			got:    suggestions("kind", "creative"),
			score:  0,
			passed: false,
		},
		{
			name:   "nothing expected",
			sc:     Scenario{},
			got:    nil,
			score:  1,
			passed: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := scoreScenario(tc.sc, tc.got)
			if res.Score != tc.score {
				t.Fatalf("expected score %.2f, got %.2f", tc.score, res.Score)
			}
			if res.Passed() != tc.passed {
				t.Fatalf("expected passed=%v, got %+v", tc.passed, res)
			}
		})
	}
}

func TestScoreScenarioFlagsConfidenceOutOfRange(t *testing.T) {
	got := []domain.Suggestion{
		{SuggestedTrait: "kind", ConfidenceScore: 0},
		{SuggestedTrait: "wise", ConfidenceScore: 1.2},
		{SuggestedTrait: "funny", ConfidenceScore: 0.9},
	}
	res := scoreScenario(Scenario{}, got)
	if res.OutOfRange != 2 {
		t.Fatalf("expected 2 out of range, got %d", res.OutOfRange)
	}
	if res.Passed() {
		t.Fatalf("expected failure with out of range confidence")
	}
}

func TestMemorySuggestionRepoTransitionOnlyFromPending(t *testing.T) {
	repo := &memorySuggestionRepo{}
	_ = repo.InsertBatch(context.Background(), []domain.Suggestion{{ID: "s1", UserID: "u1", Status: domain.SuggestionStatusPending}})

	if ok, _ := repo.Transition(context.Background(), "s1", "u2", domain.SuggestionStatusAccepted, nil); ok {
		t.Fatalf("expected other user's transition to fail")
	}
	if ok, _ := repo.Transition(context.Background(), "s1", "u1", domain.SuggestionStatusAccepted, nil); !ok {
		t.Fatalf("expected pending transition to succeed")
	}
	if ok, _ := repo.Transition(context.Background(), "s1", "u1", domain.SuggestionStatusRejected, nil); ok {
		t.Fatalf("expected second transition to fail")
	}
}
