package model

import "testing"

func TestRangeContains(t *testing.T) {
	tests := []struct {
		name string
		r    Range
		n    int64
		want bool
	}{
		{"unbounded", Range{}, 1 << 40, true},
		{"below min", Range{Min: 5}, 4, false},
		{"min inclusive", Range{Min: 5}, 5, true},
		{"max inclusive", Range{Max: AtMost(10)}, 10, true},
		{"above max", Range{Max: AtMost(10)}, 11, false},
		{"zero max matches zero", Range{Max: AtMost(0)}, 0, true},
		{"zero max excludes one", Range{Max: AtMost(0)}, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Contains(tt.n); got != tt.want {
				t.Errorf("%s.Contains(%d) = %v, want %v", tt.r, tt.n, got, tt.want)
			}
		})
	}
}

func TestFilterEqualAndActiveCount(t *testing.T) {
	a := Filter{TotalTokens: Range{Max: AtMost(0)}}
	b := Filter{TotalTokens: Range{Max: AtMost(0)}}
	if !a.Equal(b) {
		t.Error("filters with equal bounds in distinct pointers compare unequal")
	}
	if a.Equal(Filter{}) {
		t.Error("zero max bound equals unbounded")
	}

	f := DefaultFilter()
	if n := f.ActiveCount(); n != 0 {
		t.Errorf("default ActiveCount = %d, want 0", n)
	}
	f.TotalTokens.Max = AtMost(0)
	f.StartDate = "2025-01-01"
	f.EndDate = "2025-02-01"
	if n := f.ActiveCount(); n != 2 {
		t.Errorf("ActiveCount = %d, want 2", n)
	}
}

func TestFilterValidate(t *testing.T) {
	if err := (Filter{Messages: Range{Max: AtMost(-1)}}).Validate(); err == nil {
		t.Error("negative max accepted")
	}
	if err := (Filter{EndDate: "2025-13-01"}).Validate(); err == nil {
		t.Error("bad date accepted")
	}
	if err := (Filter{TotalTokens: Range{Max: AtMost(0)}}).Validate(); err != nil {
		t.Errorf("zero max rejected: %v", err)
	}
}
