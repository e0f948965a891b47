// Package scoring holds the pure point multiplier and streak rules.
package scoring

import "math"

// BaseMultiplier is the rate every work phase earns before bonuses.
const BaseMultiplier = 1.0

// Inputs is everything a multiplier decision depends on.
type Inputs struct {
	WorkMinutes         int
	BreakMinutes        int
	ConsecutiveSessions int
	DailyStreak         int
	TodayFocusMinutes   int
}

// NewInputs builds Inputs from a user's streak counters and the planned durations.
func NewInputs(s Streaks, workMinutes, breakMinutes, todayFocusMinutes int) Inputs {
	return Inputs{
		WorkMinutes:         workMinutes,
		BreakMinutes:        breakMinutes,
		ConsecutiveSessions: s.ConsecutiveSessions,
		DailyStreak:         s.DailyStreak,
		TodayFocusMinutes:   todayFocusMinutes,
	}
}

// Rule is one row of the bonus table.
type Rule struct {
	ID        string  `json:"id"`
	Condition string  `json:"condition"`
	Bonus     float64 `json:"bonus"`
	Details   string  `json:"details"`

	applies func(Inputs) bool
}

// Applies reports whether the rule is satisfied for in.
func (r Rule) Applies(in Inputs) bool { return r.applies(in) }

func workOver(min int) func(Inputs) bool {
	return func(in Inputs) bool { return in.WorkMinutes > min }
}

func consecutiveAtLeast(n int) func(Inputs) bool {
	return func(in Inputs) bool { return in.ConsecutiveSessions >= n }
}

func dailyAtLeast(n int) func(Inputs) bool {
	return func(in Inputs) bool { return in.DailyStreak >= n }
}

func balancedBreak(in Inputs) bool {
	if in.WorkMinutes <= 0 || in.BreakMinutes <= 0 {
		return false
	}
	return float64(in.BreakMinutes)/float64(in.WorkMinutes) <= 0.2
}

// rules is the single source for both Multiplier and ActiveRuleIDs.
// Bonuses are additive: crossing a higher tier keeps the lower ones.
var rules = []Rule{
	{ID: "base", Condition: "Base Rate (Work)", Bonus: 0, Details: "Active during focused work.", applies: func(Inputs) bool { return true }},
	{ID: "focus25", Condition: "Work Block > 25 Min", Bonus: 0.1, Details: "Plan more than 25 minutes in one work block.", applies: workOver(25)},
	{ID: "focus45", Condition: "Work Block > 45 Min", Bonus: 0.2, Details: "Plan more than 45 minutes in one work block.", applies: workOver(45)},
	{ID: "focus60", Condition: "Work Block > 60 Min", Bonus: 0.3, Details: "Plan more than 60 minutes in one work block.", applies: workOver(60)},
	{ID: "focus90", Condition: "Work Block > 90 Min", Bonus: 0.5, Details: "Plan more than 90 minutes in one work block.", applies: workOver(90)},
	{ID: "balancedBreak", Condition: "Break <= 20% of Work", Bonus: 0.1, Details: "Keep the break at most a fifth of the work block.", applies: balancedBreak},
	{ID: "consecutive3", Condition: "3+ Consecutive Sessions", Bonus: 0.1, Details: "Complete 3+ work/break cycles.", applies: consecutiveAtLeast(3)},
	{ID: "consecutive5", Condition: "5+ Consecutive Sessions", Bonus: 0.2, Details: "Complete 5+ work/break cycles.", applies: consecutiveAtLeast(5)},
	{ID: "consecutive10", Condition: "10+ Consecutive Sessions", Bonus: 0.3, Details: "Complete 10+ work/break cycles.", applies: consecutiveAtLeast(10)},
	{ID: "consecutive20", Condition: "20+ Consecutive Sessions", Bonus: 0.5, Details: "Complete 20+ work/break cycles.", applies: consecutiveAtLeast(20)},
	{ID: "daily3", Condition: "3+ Day Usage Streak", Bonus: 0.1, Details: "Use the timer for work 3+ days running.", applies: dailyAtLeast(3)},
	{ID: "daily7", Condition: "7+ Day Usage Streak", Bonus: 0.2, Details: "Use the timer for work 7+ days running.", applies: dailyAtLeast(7)},
	{ID: "daily14", Condition: "14+ Day Usage Streak", Bonus: 0.3, Details: "Use the timer for work 14+ days running.", applies: dailyAtLeast(14)},
	{ID: "daily30", Condition: "30+ Day Usage Streak", Bonus: 0.5, Details: "Use the timer for work 30+ days running.", applies: dailyAtLeast(30)},
	{ID: "dailyFocus120", Condition: "120+ Focus Minutes Today", Bonus: 0.1, Details: "Log at least 120 work minutes today (UTC).", applies: func(in Inputs) bool { return in.TodayFocusMinutes >= 120 }},
}

// Rules returns a copy of the bonus table in display order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Engine computes multipliers. A positive Cap clamps the result; zero
// leaves it uncapped.
type Engine struct {
	Cap float64
}

// Multiplier returns 1.0 plus every satisfied bonus, clamped to Cap and
// rounded to two decimals.
func (e Engine) Multiplier(in Inputs) float64 {
	total := BaseMultiplier
	for _, r := range rules {
		if r.applies(in) {
			total += r.Bonus
		}
	}
	return round2(e.clamp(total))
}

// ActiveRuleIDs returns the id of every satisfied rule, "base" included.
func (e Engine) ActiveRuleIDs(in Inputs) []string {
	ids := make([]string, 0, len(rules))
	for _, r := range rules {
		if r.applies(in) {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

func (e Engine) clamp(m float64) float64 {
	if e.Cap > 0 && m > e.Cap {
		return e.Cap
	}
	return m
}

// ComputeMultiplier is Engine{}.Multiplier.
func ComputeMultiplier(in Inputs) float64 { return Engine{}.Multiplier(in) }

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
