// Package streak tracks consecutive win/loss runs encoded as "W<n>" or "L<n>".
package streak

import (
	"strconv"
)

// Win and Loss are the leading letters of a streak label.
const (
	Win  byte = 'W'
	Loss byte = 'L'
)

// Parse splits a label into its letter and count. The count is read from the
// leading digits after the letter, so "W3x" is 3; a label with no digits
// there, or an empty label, has a count of 0.
func Parse(label string) (byte, int) {
	if label == "" {
		return 0, 0
	}
	digits := label[1:]
	end := 0
	for end < len(digits) && digits[end] >= '0' && digits[end] <= '9' {
		end++
	}
	count, err := strconv.Atoi(digits[:end])
	if err != nil {
		count = 0
	}
	return label[0], count
}

// Format builds a label from an outcome and a count.
func Format(won bool, count int) string {
	if won {
		return "W" + strconv.Itoa(count)
	}
	return "L" + strconv.Itoa(count)
}

func letter(won bool) byte {
	if won {
		return Win
	}
	return Loss
}

// Next returns the streak after one more result. A matching letter extends
// the run, anything else (including the legacy "-" placeholder) starts a new
// one.
func Next(current string, won bool) string {
	if current == "" {
		return Format(won, 1)
	}
	l, count := Parse(current)
	if l == letter(won) {
		return Format(won, count+1)
	}
	return Format(won, 1)
}

// Unwind undoes one result without any history. It is only exact when the
// reversed result is the most recent one; when the run would drop to zero or
// the letter does not match, the prior value is unknown and "" is returned.
func Unwind(current string, wasWin bool) string {
	if current == "" || current == "-" {
		return ""
	}
	l, count := Parse(current)
	if l != letter(wasWin) || count <= 1 {
		return ""
	}
	return Format(wasWin, count-1)
}

// Replay folds Next over a sequence of outcomes starting from base.
func Replay(base string, outcomes ...bool) string {
	s := base
	for _, won := range outcomes {
		s = Next(s, won)
	}
	return s
}
