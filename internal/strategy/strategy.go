// Package strategy implements the matching-strategy relaxation loop: the
// policy deciding how many query terms must match before results are
// accepted, and which term to give up on when there are not enough.
package strategy

import (
	"fmt"
)

// Mode selects the relaxation policy.
type Mode uint8

const (
	// ModeLast requires all terms, then drops the rightmost term and
	// retries while the result count stays below the requested limit.
	ModeLast Mode = iota
	// ModeAll requires every term to match and never relaxes; it may
	// legitimately return fewer results than requested.
	ModeAll
	// ModeFrequency retries like ModeLast but drops the term with the
	// highest corpus frequency first.
	ModeFrequency
)

func (m Mode) String() string {
	switch m {
	case ModeAll:
		return "all"
	case ModeFrequency:
		return "frequency"
	default:
		return "last"
	}
}

// ParseMode parses a strategy name. The empty string selects ModeLast.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "last":
		return ModeLast, nil
	case "all":
		return ModeAll, nil
	case "frequency":
		return ModeFrequency, nil
	default:
		return ModeLast, fmt.Errorf("unknown matching strategy %q", s)
	}
}

// Controller decides which term to drop on each retry. The loop that owns it
// terminates after at most len(terms)-1 drops, since a single term is never
// dropped.
type Controller struct {
	mode Mode
	freq func(word string) int
}

// NewController builds a Controller. freq resolves corpus frequencies for
// ModeFrequency and may be nil for the other modes.
func NewController(mode Mode, freq func(word string) int) *Controller {
	return &Controller{mode: mode, freq: freq}
}

// Mode returns the configured relaxation mode.
func (c *Controller) Mode() Mode {
	return c.mode
}

// Drop returns the index of the term to drop from words, or -1 when no
// further relaxation is allowed.
func (c *Controller) Drop(words []string) int {
	if c.mode == ModeAll || len(words) <= 1 {
		return -1
	}
	if c.mode == ModeLast || c.freq == nil {
		return len(words) - 1
	}
	best := len(words) - 1
	bestFreq := c.freq(words[best])
	for i := len(words) - 2; i >= 0; i-- {
		if f := c.freq(words[i]); f > bestFreq {
			best = i
			bestFreq = f
		}
	}
	return best
}
