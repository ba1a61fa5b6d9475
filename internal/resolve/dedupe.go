package resolve

import (
	"github.com/samber/lo"

	"vixbot/internal/media"
)

// Dedupe removes candidates whose URL was already seen, preserving
// first-seen order. Surviving candidates are never mutated; there is no
// ranking beyond discovery order.
func Dedupe(in []media.Candidate) []media.Candidate {
	return lo.UniqBy(in, func(c media.Candidate) string { return c.URL })
}
