package exam

import "testing"

func TestGradeFor(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{100, "A+"},
		{90, "A+"},
		{89.99, "A"},
		{80, "A"},
		{79.99, "B+"},
		{70, "B+"},
		{69.99, "B"},
		{60, "B"},
		{59.99, "C+"},
		{50, "C+"},
		{49.99, "C"},
		{40, "C"},
		{39.99, "D"},
		{33, "D"},
		{32.99, "F"},
		{0, "F"},
	}
	for _, tt := range tests {
		if got := GradeFor(tt.pct); got != tt.want {
			t.Errorf("GradeFor(%v) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestDerive(t *testing.T) {
	tests := []struct {
		name      string
		obtained  float64
		total     float64
		wantPct   float64
		wantGrade string
	}{
		{name: "full marks", obtained: 50, total: 50, wantPct: 100, wantGrade: "A+"},
		{name: "exact boundary", obtained: 45, total: 50, wantPct: 90, wantGrade: "A+"},
		{name: "just below boundary", obtained: 89.99, total: 100, wantPct: 89.99, wantGrade: "A"},
		{name: "rounds to two decimals", obtained: 1, total: 3, wantPct: 33.33, wantGrade: "D"},
		{name: "fail", obtained: 10, total: 100, wantPct: 10, wantGrade: "F"},
		{name: "zero total", obtained: 10, total: 0, wantPct: 0, wantGrade: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pct, grade := Derive(tt.obtained, tt.total)
			if pct != tt.wantPct {
				t.Errorf("pct = %v, want %v", pct, tt.wantPct)
			}
			if grade != tt.wantGrade {
				t.Errorf("grade = %q, want %q", grade, tt.wantGrade)
			}
		})
	}
}
