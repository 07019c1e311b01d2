package allocator

import "time"

// Search outcomes reported to a Recorder.
const (
	OutcomeFound = "found"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

// Recorder receives one observation per search.
type Recorder interface {
	ObserveSearch(policy, outcome string, elapsed time.Duration)
}

type instrumentedSearcher struct {
	next     Searcher
	recorder Recorder
	now      func() time.Time
}

// NewInstrumented decorates a Searcher so that every call is reported to recorder.
func NewInstrumented(next Searcher, recorder Recorder) Searcher {
	if recorder == nil {
		return next
	}
	return &instrumentedSearcher{next: next, recorder: recorder, now: time.Now}
}

func (s *instrumentedSearcher) Search(catalog Catalog, spec BudgetSpec, policy Policy) (Result, error) {
	start := s.now()
	result, err := s.next.Search(catalog, spec, policy)
	elapsed := s.now().Sub(start)

	outcome := OutcomeFound
	switch {
	case err != nil:
		outcome = OutcomeError
	case !result.Found():
		outcome = OutcomeEmpty
	}
	s.recorder.ObserveSearch(policy.String(), outcome, elapsed)

	return result, err
}
