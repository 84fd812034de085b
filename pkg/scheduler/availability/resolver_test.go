package availability

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/model"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/rules"
)

func newEmployee(name string) *model.Employee {
	return &model.Employee{
		BaseModel: model.BaseModel{ID: uuid.New()},
		Name:      name,
		Status:    "active",
	}
}

// 2026-03-02 是周一
func newShift(date, start, end string) *model.Shift {
	return &model.Shift{
		BaseModel:     model.BaseModel{ID: uuid.New()},
		Name:          "早班",
		Date:          date,
		StartTime:     start,
		EndTime:       end,
		RequiredStaff: 1,
	}
}

func TestResolve_ActiveEmployeeAvailable(t *testing.T) {
	emp := newEmployee("员工1")
	shift := newShift("2026-03-02", "09:00", "17:00")

	m := Resolve([]*model.Employee{emp}, []*model.Shift{shift}, nil, nil)

	if !m.Available(emp.ID, shift.ID) {
		t.Errorf("Expected available, got reason %s", m.ReasonFor(emp.ID, shift.ID))
	}
}

func TestResolve_InactiveEmployee(t *testing.T) {
	emp := newEmployee("员工1")
	emp.Status = "leave"
	shift := newShift("2026-03-02", "09:00", "17:00")

	m := Resolve([]*model.Employee{emp}, []*model.Shift{shift}, nil, nil)

	if m.Available(emp.ID, shift.ID) {
		t.Error("Inactive employee should not be available")
	}
	if reason := m.ReasonFor(emp.ID, shift.ID); reason != ReasonInactive {
		t.Errorf("Reason = %s, expected %s", reason, ReasonInactive)
	}
}

func TestResolve_OutsideBasePattern(t *testing.T) {
	emp := newEmployee("员工1")
	// 仅周二可用
	emp.Availability = model.WeeklyPattern{
		time.Tuesday: {{Start: "08:00", End: "18:00"}},
	}
	shift := newShift("2026-03-02", "09:00", "17:00") // 周一

	m := Resolve([]*model.Employee{emp}, []*model.Shift{shift}, nil, nil)

	if reason := m.ReasonFor(emp.ID, shift.ID); reason != ReasonOutsidePattern {
		t.Errorf("Reason = %s, expected %s", reason, ReasonOutsidePattern)
	}
}

func TestResolve_BlockedByHardRule(t *testing.T) {
	emp := newEmployee("员工1")
	shift := newShift("2026-03-02", "09:00", "17:00") // 周一

	constraints := rules.Set{
		{
			Kind:         rules.KindAvailability,
			EmployeeID:   &emp.ID,
			Priority:     5,
			Availability: &rules.AvailabilityRule{UnavailableWeekdays: []time.Weekday{time.Monday}},
		},
	}

	m := Resolve([]*model.Employee{emp}, []*model.Shift{shift}, constraints, nil)

	if reason := m.ReasonFor(emp.ID, shift.ID); reason != ReasonBlockedByRule {
		t.Errorf("Reason = %s, expected %s", reason, ReasonBlockedByRule)
	}
}

func TestResolve_SoftRuleNotFiltered(t *testing.T) {
	emp := newEmployee("员工1")
	shift := newShift("2026-03-02", "09:00", "17:00") // 周一

	// 优先级 3 的可用性约束是软约束，解析阶段不过滤
	constraints := rules.Set{
		{
			Kind:         rules.KindAvailability,
			EmployeeID:   &emp.ID,
			Priority:     3,
			Availability: &rules.AvailabilityRule{UnavailableWeekdays: []time.Weekday{time.Monday}},
		},
	}

	m := Resolve([]*model.Employee{emp}, []*model.Shift{shift}, constraints, nil)

	if !m.Available(emp.ID, shift.ID) {
		t.Errorf("Soft rule should not filter, got reason %s", m.ReasonFor(emp.ID, shift.ID))
	}
}

func TestResolve_OverlappingExisting(t *testing.T) {
	emp := newEmployee("员工1")
	shift := newShift("2026-03-02", "09:00", "17:00")

	tr := shift.TimeRange()
	existing := []*model.Assignment{
		{
			BaseModel:  model.BaseModel{ID: uuid.New()},
			EmployeeID: emp.ID,
			Date:       "2026-03-02",
			StartTime:  tr.Start.Add(-2 * time.Hour),
			EndTime:    tr.Start.Add(2 * time.Hour),
			Status:     model.AssignmentAssigned,
		},
	}

	m := Resolve([]*model.Employee{emp}, []*model.Shift{shift}, nil, existing)

	if reason := m.ReasonFor(emp.ID, shift.ID); reason != ReasonOverlap {
		t.Errorf("Reason = %s, expected %s", reason, ReasonOverlap)
	}
}

func TestResolve_DeclinedExistingIgnored(t *testing.T) {
	emp := newEmployee("员工1")
	shift := newShift("2026-03-02", "09:00", "17:00")

	tr := shift.TimeRange()
	existing := []*model.Assignment{
		{
			BaseModel:  model.BaseModel{ID: uuid.New()},
			EmployeeID: emp.ID,
			StartTime:  tr.Start,
			EndTime:    tr.End,
			Status:     model.AssignmentDeclined,
		},
	}

	m := Resolve([]*model.Employee{emp}, []*model.Shift{shift}, nil, existing)

	if !m.Available(emp.ID, shift.ID) {
		t.Error("Declined existing assignment should not block availability")
	}
}

func TestBlocks_Restriction(t *testing.T) {
	tests := []struct {
		name     string
		rule     *rules.RestrictionRule
		shift    *model.Shift
		expected bool
	}{
		{
			name:     "晚于最晚开始时刻",
			rule:     &rules.RestrictionRule{NoShiftsAfter: "18:00"},
			shift:    newShift("2026-03-02", "20:00", "23:00"),
			expected: true,
		},
		{
			name:     "等于最晚开始时刻",
			rule:     &rules.RestrictionRule{NoShiftsAfter: "18:00"},
			shift:    newShift("2026-03-02", "18:00", "22:00"),
			expected: false,
		},
		{
			name:     "早于最早开始时刻",
			rule:     &rules.RestrictionRule{NoShiftsBefore: "08:00"},
			shift:    newShift("2026-03-02", "06:00", "14:00"),
			expected: true,
		},
		{
			name:     "正常时段",
			rule:     &rules.RestrictionRule{NoShiftsBefore: "08:00", NoShiftsAfter: "18:00"},
			shift:    newShift("2026-03-02", "09:00", "17:00"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &rules.Constraint{Kind: rules.KindRestriction, Priority: 5, Restriction: tt.rule}
			if got := Blocks(c, tt.shift); got != tt.expected {
				t.Errorf("Blocks() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestBlocks_AvailabilityClock(t *testing.T) {
	c := &rules.Constraint{
		Kind:     rules.KindAvailability,
		Priority: 5,
		Availability: &rules.AvailabilityRule{
			UnavailableClock: &model.ClockRange{Start: "12:00", End: "14:00"},
		},
	}

	overlapping := newShift("2026-03-02", "09:00", "17:00")
	if !Blocks(c, overlapping) {
		t.Error("Shift overlapping unavailable clock should be blocked")
	}

	disjoint := newShift("2026-03-02", "14:00", "22:00")
	if Blocks(c, disjoint) {
		t.Error("Shift outside unavailable clock should not be blocked")
	}
}

func TestBlocks_AvailabilityDate(t *testing.T) {
	c := &rules.Constraint{
		Kind:     rules.KindAvailability,
		Priority: 5,
		Availability: &rules.AvailabilityRule{
			UnavailableDates: []string{"2026-03-02"},
		},
	}

	if !Blocks(c, newShift("2026-03-02", "09:00", "17:00")) {
		t.Error("Shift on unavailable date should be blocked")
	}
	if Blocks(c, newShift("2026-03-03", "09:00", "17:00")) {
		t.Error("Shift on other date should not be blocked")
	}
}
