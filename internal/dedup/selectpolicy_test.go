package dedup

import (
	"reflect"
	"testing"
)

func TestSelectToClose(t *testing.T) {
	group := []Tab{
		{ID: 3, URL: "https://example.com/a"},
		{ID: 1, URL: "https://example.com/a"},
		{ID: 2, URL: "https://example.com/a"},
	}
	tests := []struct {
		name      string
		group     []Tab
		focusedID int64
		want      []int64
	}{
		{"no focus keeps highest id", group, 0, []int64{1, 2}},
		{"focused member survives", group, 2, []int64{1, 3}},
		{"focused outside group keeps highest", group, 99, []int64{1, 2}},
		{"focused is highest id", group, 3, []int64{1, 2}},
		{"singleton", []Tab{{ID: 1}}, 0, nil},
		{"empty", nil, 5, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectToClose(tt.group, tt.focusedID)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("SelectToClose() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectToCloseNeverReturnsFocused(t *testing.T) {
	group := []Tab{{ID: 10}, {ID: 20}, {ID: 30}, {ID: 40}}
	for _, focused := range []int64{10, 20, 30, 40} {
		for _, id := range SelectToClose(group, focused) {
			if id == focused {
				t.Fatalf("focused tab %d selected for closing", focused)
			}
		}
	}
}

func TestSelectToCloseDoesNotMutateGroup(t *testing.T) {
	group := []Tab{{ID: 3}, {ID: 1}, {ID: 2}}
	orig := make([]Tab, len(group))
	copy(orig, group)
	_ = SelectToClose(group, 0)
	if !reflect.DeepEqual(group, orig) {
		t.Fatalf("group mutated: %v, want %v", group, orig)
	}
}
