package resolve

import "vixbot/internal/media"

// Outcome is the result of one extraction sub-attempt. A failed attempt is
// data, not a propagated error: the engine logs it and moves to the next
// strategy, so a single bad fetch or malformed payload never aborts the
// pipeline.
type Outcome struct {
	Candidates []media.Candidate
	Err        error
}

func success(candidates []media.Candidate) Outcome {
	return Outcome{Candidates: candidates}
}

func failed(err error) Outcome {
	return Outcome{Err: err}
}

// Failed reports whether the sub-attempt errored.
func (o Outcome) Failed() bool { return o.Err != nil }

// Empty reports whether the sub-attempt succeeded but found nothing.
func (o Outcome) Empty() bool { return o.Err == nil && len(o.Candidates) == 0 }
