package internal

import (
	"testing"

	"pan/internal/domain"
)

func mustCards(t *testing.T, ss ...string) []domain.Card {
	t.Helper()
	out, err := domain.ParseCards(ss)
	if err != nil {
		t.Fatalf("parse cards: %v", err)
	}
	return out
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name  string
		hand  []string
		pile  []string
		push  []string // pushed as the latest play
		check func(t *testing.T, s Snapshot)
	}{
		{
			name: "last outstanding ace is urgent",
			hand: []string{"SA", "D10"},
			pile: []string{"H9", "CA", "DA"},
			push: []string{"HA"},
			check: func(t *testing.T, s Snapshot) {
				if !s.HoldsUrgent {
					t.Error("expected HoldsUrgent")
				}
				if !s.HoldsInvalid {
					t.Error("D10 is below an ace, expected HoldsInvalid")
				}
				if !s.PileDeveloped {
					t.Error("expected PileDeveloped")
				}
				if s.LastPlaySize != 1 {
					t.Errorf("LastPlaySize = %d, want 1", s.LastPlaySize)
				}
				if !s.SkipYieldsOnlyAces {
					t.Error("top three are aces, expected SkipYieldsOnlyAces")
				}
				if !s.SkipYieldsCombo {
					t.Error("three aces plus SA form a combo")
				}
				if !s.GoodSkipValue {
					t.Error("aces are a cheap take")
				}
			},
		},
		{
			name: "undeveloped pile with costly skip",
			hand: []string{"SK", "CQ"},
			pile: []string{"H9", "S9", "C10"},
			check: func(t *testing.T, s Snapshot) {
				if s.HoldsUrgent || s.HoldsInvalid || s.PileDeveloped {
					t.Errorf("unexpected flags: %+v", s)
				}
				if s.GoodSkipValue {
					t.Error("skip hands over a nine, expected costly")
				}
				if s.SkipYieldsOnlyAces || s.SkipYieldsCombo {
					t.Errorf("unexpected skip flags: %+v", s)
				}
				if !s.HighCardRatio {
					t.Error("two high cards against depth three")
				}
				if s.LastPlaySize != 0 {
					t.Errorf("LastPlaySize = %d, want 0", s.LastPlaySize)
				}
			},
		},
		{
			name: "depth one pile has no skip penalty",
			hand: []string{"D9", "S10"},
			pile: []string{"H9"},
			check: func(t *testing.T, s Snapshot) {
				if !s.GoodSkipValue {
					t.Error("expected GoodSkipValue on a single-card pile")
				}
				if s.SkipYieldsOnlyAces || s.SkipYieldsCombo {
					t.Error("nothing to take on a single-card pile")
				}
				if s.HighCardRatio {
					t.Error("no high cards against depth one")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pile := domain.NewPile(mustCards(t, tt.pile...)...)
			if len(tt.push) > 0 {
				pile.Push(mustCards(t, tt.push...)...)
			}
			s := Analyze(domain.Hand(mustCards(t, tt.hand...)), pile, 3)
			if s.SkipStreak != 3 {
				t.Fatalf("SkipStreak = %d, want 3", s.SkipStreak)
			}
			tt.check(t, s)
		})
	}
}

func TestAnalyzeDoesNotMutateInputs(t *testing.T) {
	hand := domain.Hand(mustCards(t, "SA", "CA"))
	pile := domain.NewPile(mustCards(t, "H9", "DA", "HA")...)

	Analyze(hand, pile, 0)

	if len(hand) != 2 || pile.Len() != 3 {
		t.Fatalf("inputs changed: hand=%v pile=%d", hand, pile.Len())
	}
}
