package dedup

import "sort"

// SelectToClose picks the tabs to close out of one duplicate group. The
// group is sorted ascending by id, the survivor is the focused tab when it
// is a member and otherwise the highest id (the most recently created), and
// every other member is returned for closing. Groups of one carry no
// decision and return nil. focusedID <= 0 means no tab is focused. The
// focused tab is never in the result.
func SelectToClose(group []Tab, focusedID int64) []int64 {
	if len(group) <= 1 {
		return nil
	}

	sorted := make([]Tab, len(group))
	copy(sorted, group)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	keepID := sorted[len(sorted)-1].ID
	if focusedID > 0 {
		for _, t := range sorted {
			if t.ID == focusedID {
				keepID = focusedID
				break
			}
		}
	}

	out := make([]int64, 0, len(sorted)-1)
	for _, t := range sorted {
		if t.ID != keepID {
			out = append(out, t.ID)
		}
	}
	return out
}
