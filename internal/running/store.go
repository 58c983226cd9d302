package running

import "abfit/coach-api/internal/domain"

// EntryFilter narrows a schedule read. Zero values match everything;
// From and To are inclusive.
type EntryFilter struct {
	Status *domain.EntryStatus
	Type   *domain.WorkoutType
	From   *domain.Date
	To     *domain.Date
}

func (f EntryFilter) Match(e domain.RunningWorkoutEntry) bool {
	if f.Status != nil && e.Status != *f.Status {
		return false
	}
	if f.Type != nil && e.Type != *f.Type {
		return false
	}
	if f.From != nil && e.ScheduledDate.Before(*f.From) {
		return false
	}
	if f.To != nil && e.ScheduledDate.After(*f.To) {
		return false
	}
	return true
}

// Filter keeps stored order.
func Filter(entries []domain.RunningWorkoutEntry, f EntryFilter) []domain.RunningWorkoutEntry {
	out := make([]domain.RunningWorkoutEntry, 0, len(entries))
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, cloneEntry(e))
		}
	}
	return out
}

// ReplaceByID returns a copy of entries with the entry sharing entry.ID
// swapped in. Unknown ids leave the copy unchanged.
func ReplaceByID(entries []domain.RunningWorkoutEntry, entry domain.RunningWorkoutEntry) []domain.RunningWorkoutEntry {
	out := cloneEntries(entries)
	if i := indexOf(out, entry.ID); i != -1 {
		out[i] = entry
	}
	return out
}

// FindByID returns a copy of the entry with id.
func FindByID(entries []domain.RunningWorkoutEntry, id string) (domain.RunningWorkoutEntry, bool) {
	i := indexOf(entries, id)
	if i == -1 {
		return domain.RunningWorkoutEntry{}, false
	}
	return cloneEntry(entries[i]), true
}

func indexOf(entries []domain.RunningWorkoutEntry, id string) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneEntries(entries []domain.RunningWorkoutEntry) []domain.RunningWorkoutEntry {
	if entries == nil {
		return nil
	}
	out := make([]domain.RunningWorkoutEntry, len(entries))
	for i, e := range entries {
		out[i] = cloneEntry(e)
	}
	return out
}

func cloneEntry(e domain.RunningWorkoutEntry) domain.RunningWorkoutEntry {
	if e.Feedback != nil {
		fb := *e.Feedback
		e.Feedback = &fb
	}
	return e
}
