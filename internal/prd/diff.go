package prd

// Transition records one story's derived-status change between two ledger
// snapshots. Title is always the current snapshot's title; a concurrent
// rename is not reported separately.
type Transition struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// DiffStories computes per-story transitions from baseline to current.
//
// Either side may be nil. A nil current yields nothing to report. Each side
// derives statuses under its own verification toggle — verification may
// have been adopted between the two points in time, and the baseline must
// be judged by the rules that were in force when it was written.
//
// Stories in current with no baseline counterpart (or no baseline at all)
// transition from the pseudo-state "new". Output order is current's story
// declaration order.
func DiffStories(baseline, current *Document) []Transition {
	if current == nil {
		return nil
	}

	currentToggle := current.VerificationInUse()

	var baselineToggle bool
	var baselineByID map[string]*Story
	if baseline != nil {
		baselineToggle = baseline.VerificationInUse()
		baselineByID = make(map[string]*Story, len(baseline.Stories))
		for i := range baseline.Stories {
			baselineByID[baseline.Stories[i].ID] = &baseline.Stories[i]
		}
	}

	var transitions []Transition
	for i := range current.Stories {
		s := &current.Stories[i]
		to := DeriveStatus(s, currentToggle)

		from := StatusNew
		if prev, ok := baselineByID[s.ID]; ok {
			from = DeriveStatus(prev, baselineToggle)
		}

		if from != to {
			transitions = append(transitions, Transition{
				ID:    s.ID,
				Title: s.Title,
				From:  from,
				To:    to,
			})
		}
	}
	return transitions
}
