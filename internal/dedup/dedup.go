// Package dedup implements the duplicate-tab selection engine: pure
// functions that decide, for a snapshot of open tabs and the currently
// focused tab, which tabs should close under a grouping rule.
package dedup

import "sort"

// Tab is the minimal view of a browser tab the engine operates on. ID is
// assigned by the host in creation order, so ascending ID means ascending
// creation time.
type Tab struct {
	ID  int64
	URL string
}

// Plan is the outcome of evaluating a rule against a tab snapshot.
type Plan struct {
	// Close holds the tabs selected for closing, ascending by ID.
	Close []Tab
	// Groups is the number of duplicate groups that contributed at least
	// one tab to Close.
	Groups int
}

// BuildPlan runs the full pipeline for one trigger: classify, group under
// the rule's key function, and select the losers of every group. focusedID
// <= 0 means no tab is focused. The focused tab is never selected.
func BuildPlan(tabs []Tab, focusedID int64, rule Rule, cls *Classifier) (Plan, error) {
	keyFn, err := rule.KeyFunc()
	if err != nil {
		return Plan{}, err
	}

	eligible := cls.FilterEligible(tabs)
	groups := GroupBy(eligible, keyFn)

	byID := make(map[int64]Tab, len(eligible))
	for _, t := range eligible {
		byID[t.ID] = t
	}

	var plan Plan
	for _, group := range groups {
		ids := SelectToClose(group, focusedID)
		if len(ids) == 0 {
			continue
		}
		plan.Groups++
		for _, id := range ids {
			plan.Close = append(plan.Close, byID[id])
		}
	}

	sort.Slice(plan.Close, func(i, j int) bool { return plan.Close[i].ID < plan.Close[j].ID })
	return plan, nil
}
