package dedup

// GroupBy partitions tabs by the key function. Tabs for which keyFn reports
// ok=false are dropped. Within each group tabs keep their encounter order
// from the input slice. GroupBy never mutates its input.
func GroupBy(tabs []Tab, keyFn KeyFunc) map[string][]Tab {
	groups := make(map[string][]Tab)
	for _, t := range tabs {
		key, ok := keyFn(t)
		if !ok {
			continue
		}
		groups[key] = append(groups[key], t)
	}
	return groups
}
