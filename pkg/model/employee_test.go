package model

import (
	"testing"
)

func TestEmployee_IsActive(t *testing.T) {
	tests := []struct {
		status   string
		expected bool
	}{
		{"active", true},
		{"inactive", false},
		{"leave", false},
		{"", false},
	}

	for _, tt := range tests {
		emp := &Employee{Status: tt.status}
		if got := emp.IsActive(); got != tt.expected {
			t.Errorf("IsActive() with status %q = %v, expected %v", tt.status, got, tt.expected)
		}
	}
}

func TestEmployee_HasQualification(t *testing.T) {
	emp := &Employee{
		Qualifications: []string{"护理证", "健康证"},
	}

	if !emp.HasQualification("护理证") {
		t.Error("Should have 护理证")
	}
	if emp.HasQualification("驾驶证") {
		t.Error("Should not have 驾驶证")
	}
}

func TestEmployee_HasAllQualifications(t *testing.T) {
	emp := &Employee{
		Qualifications: []string{"护理证", "健康证"},
	}

	if !emp.HasAllQualifications([]string{"护理证"}) {
		t.Error("Should satisfy single qualification")
	}
	if !emp.HasAllQualifications([]string{"护理证", "健康证"}) {
		t.Error("Should satisfy both qualifications")
	}
	if emp.HasAllQualifications([]string{"护理证", "驾驶证"}) {
		t.Error("Should fail on missing qualification")
	}
	if !emp.HasAllQualifications(nil) {
		t.Error("Empty requirement should always pass")
	}
}

func TestEmployee_MaxMinutesProrated(t *testing.T) {
	emp := &Employee{MaxMinutesPerWeek: 40 * 60}

	tests := []struct {
		name     string
		dr       DateRange
		expected int
	}{
		{
			name:     "单日按整周计",
			dr:       DateRange{StartDate: "2026-03-02", EndDate: "2026-03-02"},
			expected: 40 * 60,
		},
		{
			name:     "整周不折算",
			dr:       DateRange{StartDate: "2026-03-02", EndDate: "2026-03-08"},
			expected: 40 * 60,
		},
		{
			name:     "两周翻倍",
			dr:       DateRange{StartDate: "2026-03-02", EndDate: "2026-03-15"},
			expected: 40 * 60 * 2,
		},
		{
			name:     "十天等比放大",
			dr:       DateRange{StartDate: "2026-03-02", EndDate: "2026-03-11"},
			expected: 40 * 60 * 10 / 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := emp.MaxMinutesProrated(tt.dr); got != tt.expected {
				t.Errorf("MaxMinutesProrated() = %d, expected %d", got, tt.expected)
			}
		})
	}
}

func TestEmployee_MaxMinutesProrated_NoLimit(t *testing.T) {
	emp := &Employee{MaxMinutesPerWeek: 0}
	dr := DateRange{StartDate: "2026-03-02", EndDate: "2026-03-15"}

	if got := emp.MaxMinutesProrated(dr); got != 0 {
		t.Errorf("MaxMinutesProrated() with no limit = %d, expected 0", got)
	}
}
