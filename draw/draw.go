// Package draw holds the draw algorithms: the deterministic per-check-in
// digit draw and the shuffle used for operator-run stage draws.
package draw

// Rule is the tunable part of the digit draw. Before Cutover a position
// wins when its digit is in EarlyDigits; from Cutover on, in LateDigits.
// Shifting the digit set mid-event adjusts the win rate as prize stock
// thins out.
type Rule struct {
	Cutover     int
	EarlyDigits []int
	LateDigits  []int
}

// DefaultRule matches the event tuning: one winning digit out of ten for
// the first 200 check-ins, two out of ten afterwards.
func DefaultRule() Rule {
	return Rule{
		Cutover:     200,
		EarlyDigits: []int{7},
		LateDigits:  []int{3, 5},
	}
}

// Decision is the full outcome of a digit draw, digit included so callers
// can log and audit what was observed.
type Decision struct {
	Position int  `json:"position"`
	Digit    int  `json:"digit"`
	Win      bool `json:"win"`
}

// DigitAt returns the fractional digit of Euler's number at the given
// position, wrapping at the table length. Position must be >= 0.
func DigitAt(position int) int {
	return int(eDigits[position%len(eDigits)] - '0')
}

// Decide maps a sequence position to a win/no-win decision. It is a pure
// function of position and rule: replaying a position always reproduces
// the recorded outcome, and refreshing a check-in request cannot reroll.
func Decide(position int, rule Rule) Decision {
	digit := DigitAt(position)

	digits := rule.EarlyDigits
	if position >= rule.Cutover {
		digits = rule.LateDigits
	}

	win := false
	for _, d := range digits {
		if digit == d {
			win = true
			break
		}
	}

	return Decision{Position: position, Digit: digit, Win: win}
}
