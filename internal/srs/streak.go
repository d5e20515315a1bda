package srs

import "sort"

// Streak is the completion streak summary of one student.
type Streak struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

// FullyCompleteDays returns the sorted, de-duplicated intersection of the
// exercise and revision completion sets.
func FullyCompleteDays(exercise, revision []string) []string {
	rev := make(map[string]struct{}, len(revision))
	for _, d := range revision {
		rev[d] = struct{}{}
	}
	seen := make(map[string]struct{}, len(exercise))
	out := make([]string, 0, len(exercise))
	for _, d := range exercise {
		if _, ok := rev[d]; !ok {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// ComputeStreak derives the current and longest streaks from a set of fully
// complete days. Current is 0 unless today itself is complete.
func ComputeStreak(days []string, today string) Streak {
	return Streak{
		Current: CurrentStreak(days, today),
		Max:     MaxStreak(days),
	}
}

func CurrentStreak(days []string, today string) int {
	set := make(map[string]struct{}, len(days))
	for _, d := range days {
		set[d] = struct{}{}
	}
	n := 0
	for d := today; d != ""; d = AddDays(d, -1) {
		if _, ok := set[d]; !ok {
			break
		}
		n++
	}
	return n
}

// MaxStreak is the longest run of consecutive calendar days. Input order
// and duplicates do not matter.
func MaxStreak(days []string) int {
	if len(days) == 0 {
		return 0
	}
	sorted := append([]string(nil), days...)
	sort.Strings(sorted)

	best, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			continue
		}
		if AddDays(sorted[i-1], 1) == sorted[i] {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

// GoalMet reports whether count reaches a positive goal.
func GoalMet(count, goal int) bool {
	return goal > 0 && count >= goal
}

// GoalStreak walks back from today while each day's goal-basis learned count
// reaches that day's goal. goals holds the per-day snapshots; days without one
// use fallback. A non-positive goal ends the walk.
func GoalStreak(learned, goals map[string]int, fallback int, today string) int {
	n := 0
	for d := today; d != ""; d = AddDays(d, -1) {
		goal, ok := goals[d]
		if !ok {
			goal = fallback
		}
		if !GoalMet(learned[d], goal) {
			break
		}
		n++
	}
	return n
}
