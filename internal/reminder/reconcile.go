package reminder

import "github.com/alexarts74/payetavie/internal/model"

// Reconciliation classifies a topic's candidates against the user's reminders.
type Reconciliation struct {
	Available    []model.Candidate `json:"available_candidates"`
	ActivatedIDs []string          `json:"activated_ids"`

	// SystemSourced maps reminder id to the candidate id it realizes.
	SystemSourced map[string]string `json:"-"`
}

// Reconcile matches candidates to active reminders.
//
// A reminder linked through SourceCandidateID matches that candidate while its due
// date still equals the candidate's occurrence, even after its title was edited.
// An unlinked reminder matches a candidate whose title and due date are exactly
// equal. A candidate may be realized by several reminders, all of them tagged;
// each reminder realizes at most one candidate. Candidate order is preserved.
func Reconcile(candidates []model.Candidate, active []model.Reminder) Reconciliation {
	res := Reconciliation{
		Available:     []model.Candidate{},
		ActivatedIDs:  []string{},
		SystemSourced: make(map[string]string),
	}

	for _, c := range candidates {
		matched := false
		for _, r := range active {
			if _, taken := res.SystemSourced[r.ID]; taken || !realizes(r, c) {
				continue
			}
			res.SystemSourced[r.ID] = c.ID
			matched = true
		}
		if !matched {
			res.Available = append(res.Available, c)
			continue
		}
		res.ActivatedIDs = append(res.ActivatedIDs, c.ID)
	}
	return res
}

func realizes(r model.Reminder, c model.Candidate) bool {
	if r.DueDate == nil || r.DueDate.String() != c.DueDate.String() {
		return false
	}
	if r.SourceCandidateID != nil {
		return *r.SourceCandidateID == c.ID
	}
	return r.Title == c.Title
}

// FindCandidate returns the candidate with the given id.
func FindCandidate(candidates []model.Candidate, id string) (model.Candidate, bool) {
	for _, c := range candidates {
		if c.ID == id {
			return c, true
		}
	}
	return model.Candidate{}, false
}
