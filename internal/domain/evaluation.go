package domain

import (
	"fmt"
	"strings"
)

// BetType identifies one of the two independent bet families.
type BetType string

const (
	BetOver15 BetType = "Over15" // match produces 2+ goals
	BetResult BetType = "Result" // chosen side wins or draws
)

// Tier is an ordered confidence class. Higher is more confident.
type Tier int

const (
	TierAvoid Tier = iota
	TierSafe
	TierUltra
)

func (t Tier) String() string {
	switch t {
	case TierUltra:
		return "ULTRA"
	case TierSafe:
		return "SAFE"
	default:
		return "AVOID"
	}
}

// Side is the team a result decision backs.
type Side string

const (
	SideNone Side = ""
	SideA    Side = "A"
	SideB    Side = "B"
)

// LabelAvoid is the rendered label of every avoided decision.
const LabelAvoid = "Avoid"

// Decision is the outcome of one bet family for one match.
type Decision struct {
	Bet        BetType
	Tier       Tier
	Side       Side    // result bets only; SideNone when avoided
	Confidence float64 // over_index for Over15, unsigned RSI of the side for Result
}

// Label renders the decision the way output files show it.
func (d Decision) Label() string {
	if d.Tier == TierAvoid {
		return LabelAvoid
	}
	prefix := "Safe"
	if d.Tier == TierUltra {
		prefix = "UltraSafe"
	}
	if d.Bet == BetOver15 {
		return prefix + " +1.5"
	}
	return fmt.Sprintf("%s %s or Draw", prefix, d.Side)
}

// ResultSideFromLabel recovers the backed side from a rendered result label.
func ResultSideFromLabel(label string) Side {
	switch {
	case strings.HasSuffix(label, " A or Draw"):
		return SideA
	case strings.HasSuffix(label, " B or Draw"):
		return SideB
	default:
		return SideNone
	}
}

// Actionable reports whether the decision reaches at least min.
func (d Decision) Actionable(min Tier) bool {
	return d.Tier != TierAvoid && d.Tier >= min
}

// Flag is a qualitative caution marker raised during evaluation.
type Flag uint8

const (
	FlagLowSampleA Flag = 1 << iota
	FlagLowSampleB
	FlagCombinedSampleLow
	FlagLargeGap
)

// AllFlags lists every flag in rendering order.
var AllFlags = []Flag{FlagLowSampleA, FlagLowSampleB, FlagCombinedSampleLow, FlagLargeGap}

func (f Flag) String() string {
	switch f {
	case FlagLowSampleA:
		return "low_sample_a"
	case FlagLowSampleB:
		return "low_sample_b"
	case FlagCombinedSampleLow:
		return "combined_sample_low"
	case FlagLargeGap:
		return "large_gap"
	default:
		return fmt.Sprintf("flag(%d)", uint8(f))
	}
}

// SampleRelated reports whether the flag triggers the threshold penalty.
func (f Flag) SampleRelated() bool {
	switch f {
	case FlagLowSampleA, FlagLowSampleB, FlagCombinedSampleLow:
		return true
	case FlagLargeGap:
		return false
	default:
		return false
	}
}

// FlagSet is a set of flags.
type FlagSet uint8

// With returns the set with f added.
func (s FlagSet) With(f Flag) FlagSet { return s | FlagSet(f) }

// Has reports whether f is in the set.
func (s FlagSet) Has(f Flag) bool { return s&FlagSet(f) != 0 }

// Empty reports whether no flag is set.
func (s FlagSet) Empty() bool { return s == 0 }

// Flags returns the members in AllFlags order.
func (s FlagSet) Flags() []Flag {
	var out []Flag
	for _, f := range AllFlags {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// AnySampleRelated reports whether any member triggers the threshold penalty.
func (s FlagSet) AnySampleRelated() bool {
	for _, f := range s.Flags() {
		if f.SampleRelated() {
			return true
		}
	}
	return false
}

// String joins flag names with "|", the separator used in CSV output.
func (s FlagSet) String() string {
	flags := s.Flags()
	names := make([]string, len(flags))
	for i, f := range flags {
		names[i] = f.String()
	}
	return strings.Join(names, "|")
}

// ParseFlagSet parses the output of FlagSet.String.
func ParseFlagSet(s string) (FlagSet, error) {
	var set FlagSet
	if strings.TrimSpace(s) == "" {
		return set, nil
	}
	for _, name := range strings.Split(s, "|") {
		found := false
		for _, f := range AllFlags {
			if f.String() == strings.TrimSpace(name) {
				set = set.With(f)
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown flag %q", name)
		}
	}
	return set, nil
}

// TeamRef identifies a team in an evaluation.
type TeamRef struct {
	ID   int
	Name string
}

// MatchEvaluation is the full analysis of one match pair.
// Produced once by the evaluator and not modified afterwards.
type MatchEvaluation struct {
	TeamA    TeamRef
	TeamB    TeamRef
	LeagueID int

	OverIndex float64
	RSIA      float64 // relative strength of A over B
	RSIB      float64 // always -RSIA

	Over   Decision
	Result Decision
	Flags  FlagSet
}

// Match renders the "A vs B" label used in every output.
func (e *MatchEvaluation) Match() string {
	return e.TeamA.Name + " vs " + e.TeamB.Name
}

// Decisions returns both decisions, Over15 first.
func (e *MatchEvaluation) Decisions() []Decision {
	return []Decision{e.Over, e.Result}
}
