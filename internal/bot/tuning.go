package bot

import botinternal "pan/internal/bot/internal"

// VoteRule adds Weight votes to every strategy in Favors when When holds.
type VoteRule struct {
	Name   string
	Favors StrategySet
	Weight int
	When   func(s botinternal.Snapshot) bool
}

// Tuning is an ordered vote table.
type Tuning struct {
	Rules []VoteRule
}

var playing = SetOf(StrategyAggressive, StrategySafe)

// DefaultTuning is the vote table used by standard bots.
var DefaultTuning = Tuning{Rules: []VoteRule{
	{Name: "urgent_card", Favors: SetOf(StrategyAggressive), Weight: 4,
		When: func(s botinternal.Snapshot) bool { return s.HoldsUrgent }},
	{Name: "no_invalid_cards", Favors: SetOf(StrategySafe), Weight: 4,
		When: func(s botinternal.Snapshot) bool { return !s.HoldsInvalid }},
	{Name: "pile_undeveloped", Favors: SetOf(StrategySafe), Weight: 2,
		When: func(s botinternal.Snapshot) bool { return !s.PileDeveloped }},
	{Name: "skip_streak", Favors: playing, Weight: 2,
		When: func(s botinternal.Snapshot) bool { return s.SkipStreak >= 2 }},
	{Name: "after_four_combo", Favors: playing, Weight: 2,
		When: func(s botinternal.Snapshot) bool { return s.LastPlaySize == 4 }},
	{Name: "costly_skip", Favors: playing, Weight: 2,
		When: func(s botinternal.Snapshot) bool { return !s.GoodSkipValue }},
	{Name: "high_card_ratio", Favors: playing, Weight: 1,
		When: func(s botinternal.Snapshot) bool { return s.HighCardRatio }},
	{Name: "skip_yields_aces", Favors: SetOf(StrategySkip), Weight: 3,
		When: func(s botinternal.Snapshot) bool { return s.SkipYieldsOnlyAces }},
	{Name: "skip_yields_combo", Favors: SetOf(StrategySkip), Weight: 2,
		When: func(s botinternal.Snapshot) bool { return s.SkipYieldsCombo }},
	{Name: "no_skip_streak", Favors: SetOf(StrategySkip), Weight: 2,
		When: func(s botinternal.Snapshot) bool { return s.SkipStreak < 2 }},
	{Name: "last_play_single", Favors: SetOf(StrategySkip), Weight: 1,
		When: func(s botinternal.Snapshot) bool { return s.LastPlaySize < 3 }},
	{Name: "low_high_card_ratio", Favors: SetOf(StrategySkip), Weight: 1,
		When: func(s botinternal.Snapshot) bool { return !s.HighCardRatio }},
	{Name: "cheap_skip", Favors: SetOf(StrategySkip), Weight: 1,
		When: func(s botinternal.Snapshot) bool { return s.GoodSkipValue }},
}}
