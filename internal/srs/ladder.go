package srs

import "sort"

// ReviewIntervals are the day offsets from the mastery date at which a word
// must be reviewed.
var ReviewIntervals = []int{1, 3, 5, 7, 15, 30, 60, 90}

// LadderLength is the number of scheduled reviews; a word whose stage index
// reaches it is fully mastered.
var LadderLength = len(ReviewIntervals)

// BuildSchedule returns the full review ladder starting from the mastery date.
func BuildSchedule(mastered string) []string {
	out := make([]string, 0, len(ReviewIntervals))
	for _, d := range ReviewIntervals {
		out = append(out, AddDays(mastered, d))
	}
	return out
}

// StageIndex is the number of completed ladder steps given what is left.
func StageIndex(remaining []string) int {
	done := LadderLength - len(remaining)
	if done < 0 {
		return 0
	}
	return done
}

// PassReview removes today from the schedule. ok is false when today was not
// scheduled, in which case schedule is returned unchanged.
func PassReview(schedule []string, today string) (next []string, ok bool) {
	next = make([]string, 0, len(schedule))
	for _, d := range schedule {
		if d == today {
			ok = true
			continue
		}
		next = append(next, d)
	}
	if !ok {
		return schedule, false
	}
	return next, true
}

// FailReview removes today and schedules tomorrow instead, keeping the list
// sorted and free of duplicates.
func FailReview(schedule []string, today string) (next []string, ok bool) {
	next, ok = PassReview(schedule, today)
	if !ok {
		return schedule, false
	}
	tomorrow := AddDays(today, 1)
	if !contains(next, tomorrow) {
		next = append(next, tomorrow)
		sort.Strings(next)
	}
	return next, true
}

// EarliestPending returns the first remaining review date, or "" when the
// schedule is exhausted.
func EarliestPending(schedule []string) string {
	earliest := ""
	for _, d := range schedule {
		if earliest == "" || d < earliest {
			earliest = d
		}
	}
	return earliest
}

// Missed reports whether a word's oldest pending review fell on a day before
// ref and was therefore never actioned. Actioned dates are removed from the
// schedule on pass and moved forward on fail.
func Missed(schedule []string, ref string) bool {
	e := EarliestPending(schedule)
	return e != "" && e < ref
}

// IsDue reports whether the schedule contains date.
func IsDue(schedule []string, date string) bool {
	return contains(schedule, date)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
