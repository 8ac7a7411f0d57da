package streak

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name    string
		current string
		won     bool
		want    string
	}{
		{"empty then win", "", true, "W1"},
		{"empty then loss", "", false, "L1"},
		{"win streak continues", "W2", true, "W3"},
		{"win streak broken", "W2", false, "L1"},
		{"loss streak continues", "L4", false, "L5"},
		{"loss streak broken", "L4", true, "W1"},
		{"double digit count", "W9", true, "W10"},
		{"legacy placeholder resets", "-", true, "W1"},
		{"malformed count counts from zero", "Wx", true, "W1"},
		{"bare letter counts from zero", "L", false, "L1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Next(tt.current, tt.won))
		})
	}
}

func TestUnwind(t *testing.T) {
	tests := []struct {
		name    string
		current string
		wasWin  bool
		want    string
	}{
		{"matching run decrements", "W3", true, "W2"},
		{"matching loss run decrements", "L2", false, "L1"},
		{"run of one is unknown", "W1", true, ""},
		{"mismatched letter is unknown", "L2", true, ""},
		{"empty stays empty", "", false, ""},
		{"placeholder clears", "-", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Unwind(tt.current, tt.wasWin))
		})
	}
}

func TestReplay(t *testing.T) {
	assert.Equal(t, "", Replay(""))
	assert.Equal(t, "W2", Replay("", true, true))
	assert.Equal(t, "L1", Replay("W5", false))
	assert.Equal(t, "W1", Replay("-", false, false, true))
}

func TestParse(t *testing.T) {
	l, n := Parse("W12")
	assert.Equal(t, Win, l)
	assert.Equal(t, 12, n)

	l, n = Parse("")
	assert.Equal(t, byte(0), l)
	assert.Equal(t, 0, n)

	_, n = Parse("L?")
	assert.Equal(t, 0, n)

	l, n = Parse("W3x")
	assert.Equal(t, Win, l)
	assert.Equal(t, 3, n)

	l, n = Parse("L")
	assert.Equal(t, Loss, l)
	assert.Equal(t, 0, n)
}
