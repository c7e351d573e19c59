package domain

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestNewDeck(t *testing.T) {
	deck := NewDeck()
	if deck.Len() != DeckSize {
		t.Fatalf("deck size = %d, want %d", deck.Len(), DeckSize)
	}
	seen := make(map[Card]bool)
	for _, card := range deck.Cards() {
		if seen[card] {
			t.Fatalf("duplicate card found: %s", card)
		}
		seen[card] = true
		if card.Value() < 1 || card.Value() > 6 {
			t.Fatalf("value out of range: %d", card.Value())
		}
	}
}

func TestDeckShuffleIsPermutation(t *testing.T) {
	deck := NewDeck()
	deck.Shuffle(rand.New(rand.NewSource(7)))

	seen := make(map[Card]bool)
	for _, card := range deck.Cards() {
		seen[card] = true
	}
	if len(seen) != DeckSize {
		t.Fatalf("shuffled deck holds %d distinct cards, want %d", len(seen), DeckSize)
	}
}

func TestDeckDeal(t *testing.T) {
	deck := NewDeck()
	first := deck.Cards()[:5]

	got := deck.Deal(5)
	if !reflect.DeepEqual(got, first) {
		t.Fatalf("Deal(5) = %v, want prefix %v", got, first)
	}
	if deck.Len() != DeckSize-5 {
		t.Fatalf("remaining = %d, want %d", deck.Len(), DeckSize-5)
	}

	rest := deck.Deal(100)
	if len(rest) != DeckSize-5 {
		t.Fatalf("Deal on shortage returned %d cards, want %d", len(rest), DeckSize-5)
	}
	if deck.Len() != 0 {
		t.Fatalf("deck should be empty, has %d", deck.Len())
	}
	if got := deck.Deal(3); len(got) != 0 {
		t.Fatalf("Deal on empty deck returned %v", got)
	}
}

func TestRemoveCards(t *testing.T) {
	hand := cards("S9", "H10", "DJ", "SQ")
	played := cards("H10", "SQ")

	got := RemoveCards(hand, played)
	want := cards("S9", "DJ")
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RemoveCards() = %v, want %v", got, want)
	}
}

func TestHoldsAll(t *testing.T) {
	hand := cards("S9", "H10", "DJ")
	tests := []struct {
		name   string
		subset []Card
		want   bool
	}{
		{name: "empty subset", want: true},
		{name: "all held", subset: cards("DJ", "S9"), want: true},
		{name: "missing card", subset: cards("DA"), want: false},
		{name: "repeat beyond count", subset: cards("S9", "S9"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HoldsAll(hand, tt.subset); got != tt.want {
				t.Fatalf("HoldsAll() = %t, want %t", got, tt.want)
			}
		})
	}
}

func TestSortHand(t *testing.T) {
	hand := cards("HA", "C9", "SQ", "D9")
	SortHand(hand)
	want := cards("C9", "D9", "SQ", "HA")
	if !reflect.DeepEqual(hand, want) {
		t.Fatalf("SortHand() = %v, want %v", hand, want)
	}
}
