package validator

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

func newShift(name, date, start, end string, required int) *model.Shift {
	return &model.Shift{
		BaseModel:     model.BaseModel{ID: uuid.New()},
		Name:          name,
		Date:          date,
		StartTime:     start,
		EndTime:       end,
		RequiredStaff: required,
	}
}

func assign(schedule *model.Schedule, emp *model.Employee, shift *model.Shift) *model.Assignment {
	tr := shift.TimeRange()
	a := &model.Assignment{
		BaseModel:  model.BaseModel{ID: uuid.New()},
		ScheduleID: schedule.ID,
		EmployeeID: emp.ID,
		ShiftID:    shift.ID,
		Date:       shift.Date,
		StartTime:  tr.Start,
		EndTime:    tr.End,
		Status:     model.AssignmentAssigned,
	}
	schedule.Assignments = append(schedule.Assignments, a)
	return a
}

func hasRule(report *Report, rule Rule) bool {
	for _, v := range report.Violations {
		if v.Rule == rule {
			return true
		}
	}
	return false
}

func TestDetector_CleanSchedule(t *testing.T) {
	detector := NewDetector()

	emp := newEmployee("员工1")
	shift := newShift("早班", "2026-03-02", "09:00", "17:00", 1)

	schedule := model.NewSchedule("2026-03-02", "2026-03-08")
	assign(schedule, emp, shift)

	report := detector.Detect(schedule, []*model.Employee{emp}, []*model.Shift{shift}, nil)

	if !report.Empty() {
		t.Errorf("Expected empty report, got %d violations", len(report.Violations))
		for _, v := range report.Violations {
			t.Logf("Violation: %s %s", v.Rule, v.Message)
		}
	}
}

func TestDetector_Shortfall(t *testing.T) {
	detector := NewDetector()

	emp := newEmployee("员工1")
	shift := newShift("早班", "2026-03-02", "09:00", "17:00", 3)

	schedule := model.NewSchedule("2026-03-02", "2026-03-08")
	assign(schedule, emp, shift)

	report := detector.Detect(schedule, []*model.Employee{emp}, []*model.Shift{shift}, nil)

	shortfalls := report.Shortfalls()
	if len(shortfalls) != 1 {
		t.Fatalf("Expected 1 shortfall, got %d", len(shortfalls))
	}
	if shortfalls[0].Shortfall != 2 {
		t.Errorf("Shortfall = %d, expected 2", shortfalls[0].Shortfall)
	}
	if shortfalls[0].Severity != SeverityHard {
		t.Error("Shortfall should be a hard violation")
	}
}

func TestDetector_DeclinedCountsAsShortfall(t *testing.T) {
	detector := NewDetector()

	emp := newEmployee("员工1")
	shift := newShift("早班", "2026-03-02", "09:00", "17:00", 1)

	schedule := model.NewSchedule("2026-03-02", "2026-03-08")
	a := assign(schedule, emp, shift)
	a.Status = model.AssignmentDeclined

	report := detector.Detect(schedule, []*model.Employee{emp}, []*model.Shift{shift}, nil)

	// 已拒绝的分配不计入覆盖
	if len(report.Shortfalls()) != 1 {
		t.Error("Declined assignment should leave the shift short")
	}
}

func TestDetector_Duplicate(t *testing.T) {
	detector := NewDetector()

	emp := newEmployee("员工1")
	shift := newShift("早班", "2026-03-02", "09:00", "17:00", 2)

	schedule := model.NewSchedule("2026-03-02", "2026-03-08")
	assign(schedule, emp, shift)
	assign(schedule, emp, shift) // 同一 (员工, 班次) 第二次

	report := detector.Detect(schedule, []*model.Employee{emp}, []*model.Shift{shift}, nil)

	if !hasRule(report, RuleDuplicate) {
		t.Error("Should detect duplicate (employee, shift) assignment")
	}
}

func TestDetector_Overlap(t *testing.T) {
	detector := NewDetector()

	emp := newEmployee("员工1")
	shift1 := newShift("早班", "2026-03-02", "09:00", "17:00", 1)
	shift2 := newShift("中班", "2026-03-02", "13:00", "21:00", 1)

	schedule := model.NewSchedule("2026-03-02", "2026-03-08")
	assign(schedule, emp, shift1)
	assign(schedule, emp, shift2)

	report := detector.Detect(schedule, []*model.Employee{emp}, []*model.Shift{shift1, shift2}, nil)

	if !hasRule(report, RuleOverlap) {
		t.Error("Should detect overlapping assignments")
	}
}

func TestDetector_Unavailable(t *testing.T) {
	detector := NewDetector()

	emp := newEmployee("员工1")
	shift := newShift("早班", "2026-03-02", "09:00", "17:00", 1) // 周一

	constraints := rules.Set{
		{
			Kind:         rules.KindAvailability,
			EmployeeID:   &emp.ID,
			Priority:     5,
			Availability: &rules.AvailabilityRule{UnavailableWeekdays: []time.Weekday{time.Monday}},
		},
	}

	schedule := model.NewSchedule("2026-03-02", "2026-03-08")
	assign(schedule, emp, shift)

	report := detector.Detect(schedule, []*model.Employee{emp}, []*model.Shift{shift}, constraints)

	if !hasRule(report, RuleAvailability) {
		t.Error("Should detect assignment on unavailable slot")
	}
}

func TestDetector_SoftRuleNotViolation(t *testing.T) {
	detector := NewDetector()

	emp := newEmployee("员工1")
	shift := newShift("早班", "2026-03-02", "09:00", "17:00", 1)

	// 软约束不产生硬违反
	constraints := rules.Set{
		{
			Kind:         rules.KindAvailability,
			EmployeeID:   &emp.ID,
			Priority:     2,
			Availability: &rules.AvailabilityRule{UnavailableWeekdays: []time.Weekday{time.Monday}},
		},
	}

	schedule := model.NewSchedule("2026-03-02", "2026-03-08")
	assign(schedule, emp, shift)

	report := detector.Detect(schedule, []*model.Employee{emp}, []*model.Shift{shift}, constraints)

	if hasRule(report, RuleAvailability) {
		t.Error("Soft availability rule should not produce a violation")
	}
}

func TestDetector_Qualification(t *testing.T) {
	detector := NewDetector()

	emp := newEmployee("员工1")
	shift := newShift("护理班", "2026-03-02", "09:00", "17:00", 1)
	shift.RequiredQualifications = []string{"护理证"}

	schedule := model.NewSchedule("2026-03-02", "2026-03-08")
	assign(schedule, emp, shift)

	report := detector.Detect(schedule, []*model.Employee{emp}, []*model.Shift{shift}, nil)

	if !hasRule(report, RuleQualification) {
		t.Error("Should detect missing qualification")
	}
}

func TestDetector_MaxMinutes(t *testing.T) {
	detector := NewDetector()

	emp := newEmployee("员工1")
	emp.MaxMinutesPerWeek = 8 * 60

	shift1 := newShift("早班", "2026-03-02", "09:00", "17:00", 1)
	shift2 := newShift("早班", "2026-03-03", "09:00", "17:00", 1)

	schedule := model.NewSchedule("2026-03-02", "2026-03-08")
	assign(schedule, emp, shift1)
	assign(schedule, emp, shift2) // 累计 16 小时，超过 8 小时上限

	report := detector.Detect(schedule, []*model.Employee{emp}, []*model.Shift{shift1, shift2}, nil)

	if !hasRule(report, RuleMaxMinutes) {
		t.Error("Should detect minutes over the prorated cap")
	}
}

func TestDetector_RestViolation(t *testing.T) {
	detector := NewDetector()

	emp := newEmployee("员工1")
	night := newShift("晚班", "2026-03-02", "15:00", "23:00", 1)
	morning := newShift("早班", "2026-03-03", "09:00", "17:00", 1) // 仅休息 10 小时

	constraints := rules.Set{
		{
			Kind:        rules.KindRestriction,
			Priority:    5,
			Restriction: &rules.RestrictionRule{MinRestHours: 11},
		},
	}

	schedule := model.NewSchedule("2026-03-02", "2026-03-08")
	assign(schedule, emp, night)
	assign(schedule, emp, morning)

	report := detector.Detect(schedule, []*model.Employee{emp}, []*model.Shift{night, morning}, constraints)

	if !hasRule(report, RuleRest) {
		t.Error("Should detect insufficient rest between shifts")
	}
}

func TestDetector_ConsecutiveDays(t *testing.T) {
	detector := NewDetector()

	emp := newEmployee("员工1")
	constraints := rules.Set{
		{
			Kind:        rules.KindRestriction,
			Priority:    5,
			Restriction: &rules.RestrictionRule{MaxConsecutiveDays: 2},
		},
	}

	shifts := []*model.Shift{
		newShift("早班", "2026-03-02", "09:00", "17:00", 1),
		newShift("早班", "2026-03-03", "09:00", "17:00", 1),
		newShift("早班", "2026-03-04", "09:00", "17:00", 1),
	}

	schedule := model.NewSchedule("2026-03-02", "2026-03-08")
	for _, s := range shifts {
		assign(schedule, emp, s)
	}

	report := detector.Detect(schedule, []*model.Employee{emp}, shifts, constraints)

	if !hasRule(report, RuleConsecutive) {
		t.Error("Should detect 3 consecutive days over the 2 day limit")
	}
}

func TestReport_HardCount(t *testing.T) {
	report := &Report{}
	report.Add(Violation{Rule: RuleOverlap, Severity: SeverityHard})
	report.Add(Violation{Rule: RuleShortfall, Severity: SeverityHard})

	if report.HardCount() != 2 {
		t.Errorf("HardCount() = %d, expected 2", report.HardCount())
	}
	if !report.HasHard() {
		t.Error("HasHard() should be true")
	}
	if report.Empty() {
		t.Error("Empty() should be false")
	}
}

func TestDetector_HardRequirementWeekday(t *testing.T) {
	detector := NewDetector()

	emp := newEmployee("员工1")
	tuesday := newShift("早班", "2026-03-03", "09:00", "17:00", 1) // 周二

	// 优先级 5：只允许周一出勤
	constraints := rules.Set{
		{
			Kind:        rules.KindRequirement,
			EmployeeID:  &emp.ID,
			Priority:    5,
			Requirement: &rules.RequirementRule{RequiredWeekdays: []time.Weekday{time.Monday}},
		},
	}

	schedule := model.NewSchedule("2026-03-02", "2026-03-08")
	assign(schedule, emp, tuesday)

	report := detector.Detect(schedule, []*model.Employee{emp}, []*model.Shift{tuesday}, constraints)

	if !hasRule(report, RuleRequirement) {
		t.Error("Should report assignment outside the required weekdays")
	}
}

func TestDetector_HardRequirementMinMinutes(t *testing.T) {
	detector := NewDetector()

	emp := newEmployee("员工1")
	shift := newShift("早班", "2026-03-02", "09:00", "13:00", 1) // 4 小时

	// 优先级 5：每周至少 16 小时
	constraints := rules.Set{
		{
			Kind:        rules.KindRequirement,
			EmployeeID:  &emp.ID,
			Priority:    5,
			Requirement: &rules.RequirementRule{MinMinutesPerWeek: 16 * 60},
		},
	}

	schedule := model.NewSchedule("2026-03-02", "2026-03-08")
	assign(schedule, emp, shift)

	report := detector.Detect(schedule, []*model.Employee{emp}, []*model.Shift{shift}, constraints)

	if !hasRule(report, RuleRequirement) {
		t.Error("Should report minutes below the hard weekly minimum")
	}
}

func TestDetector_SoftRequirementNotViolation(t *testing.T) {
	detector := NewDetector()

	emp := newEmployee("员工1")
	tuesday := newShift("早班", "2026-03-03", "09:00", "17:00", 1)

	constraints := rules.Set{
		{
			Kind:        rules.KindRequirement,
			EmployeeID:  &emp.ID,
			Priority:    3,
			Requirement: &rules.RequirementRule{RequiredWeekdays: []time.Weekday{time.Monday}, MinMinutesPerWeek: 40 * 60},
		},
	}

	schedule := model.NewSchedule("2026-03-02", "2026-03-08")
	assign(schedule, emp, tuesday)

	report := detector.Detect(schedule, []*model.Employee{emp}, []*model.Shift{tuesday}, constraints)

	if hasRule(report, RuleRequirement) {
		t.Error("Soft requirement should not produce a violation")
	}
}

func TestDetector_ConsecutiveDaysReportsRunStart(t *testing.T) {
	detector := NewDetector()

	emp := newEmployee("员工1")
	constraints := rules.Set{
		{
			Kind:        rules.KindRestriction,
			Priority:    5,
			Restriction: &rules.RestrictionRule{MaxConsecutiveDays: 2},
		},
	}

	// 超限的连续段在前（03-02 起 3 天），其后是一段合法的短段（03-06 起 2 天）
	shifts := []*model.Shift{
		newShift("早班", "2026-03-02", "09:00", "17:00", 1),
		newShift("早班", "2026-03-03", "09:00", "17:00", 1),
		newShift("早班", "2026-03-04", "09:00", "17:00", 1),
		newShift("早班", "2026-03-06", "09:00", "17:00", 1),
		newShift("早班", "2026-03-07", "09:00", "17:00", 1),
	}

	schedule := model.NewSchedule("2026-03-02", "2026-03-08")
	for _, s := range shifts {
		assign(schedule, emp, s)
	}

	report := detector.Detect(schedule, []*model.Employee{emp}, shifts, constraints)

	var found *Violation
	for i, v := range report.Violations {
		if v.Rule == RuleConsecutive {
			found = &report.Violations[i]
			break
		}
	}
	if found == nil {
		t.Fatal("Should detect the 3 day run over the 2 day limit")
	}
	if found.Date != "2026-03-02" {
		t.Errorf("Violation date = %s, expected start of the longest run 2026-03-02", found.Date)
	}
}
