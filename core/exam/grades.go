package exam

import "github.com/trezcool/ngoma/core"

// gradeThreshold maps a minimum percentage to a letter grade.
type gradeThreshold struct {
	min   float64
	grade string
}

// gradeThresholds is evaluated top-down; the fall-through grade is F.
var gradeThresholds = []gradeThreshold{
	{90, "A+"},
	{80, "A"},
	{70, "B+"},
	{60, "B"},
	{50, "C+"},
	{40, "C"},
	{33, "D"},
}

// Derive computes percentage = round2(100 * obtained / total) and the letter
// grade for it. Returns zero values when total <= 0.
func Derive(obtained, total float64) (pct float64, grade string) {
	if total <= 0 {
		return 0, ""
	}
	pct = core.Round2(100 * obtained / total)
	return pct, GradeFor(pct)
}

// GradeFor returns the letter grade for a percentage.
func GradeFor(pct float64) string {
	for _, t := range gradeThresholds {
		if pct >= t.min {
			return t.grade
		}
	}
	return "F"
}
