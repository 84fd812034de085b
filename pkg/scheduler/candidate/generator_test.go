package candidate

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/model"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/rules"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/scheduler/availability"
)

func newEmployee(name string) *model.Employee {
	return &model.Employee{
		BaseModel: model.BaseModel{ID: uuid.New()},
		Name:      name,
		Status:    "active",
	}
}

func newShift(date, start, end string) *model.Shift {
	return &model.Shift{
		BaseModel:     model.BaseModel{ID: uuid.New()},
		Name:          "班次",
		Date:          date,
		StartTime:     start,
		EndTime:       end,
		RequiredStaff: 1,
	}
}

func newGenerator(employees []*model.Employee, shifts []*model.Shift, constraints rules.Set, window model.DateRange) *Generator {
	avail := availability.Resolve(employees, shifts, constraints, nil)
	return New(employees, constraints, avail, window)
}

func TestGenerator_CandidatesFor_Basic(t *testing.T) {
	emp1 := newEmployee("员工1")
	emp2 := newEmployee("员工2")
	shift := newShift("2026-03-02", "09:00", "17:00")

	window := model.DateRange{StartDate: "2026-03-02", EndDate: "2026-03-08"}
	gen := newGenerator([]*model.Employee{emp1, emp2}, []*model.Shift{shift}, nil, window)

	candidates := gen.CandidatesFor(shift, NewLedger())
	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(candidates))
	}

	// 输出按员工 ID 升序
	if candidates[0].String() > candidates[1].String() {
		t.Error("Candidates should be sorted by employee ID")
	}
}

func TestGenerator_QualificationFilter(t *testing.T) {
	qualified := newEmployee("持证员工")
	qualified.Qualifications = []string{"护理证"}
	unqualified := newEmployee("无证员工")

	shift := newShift("2026-03-02", "09:00", "17:00")
	shift.RequiredQualifications = []string{"护理证"}

	window := model.DateRange{StartDate: "2026-03-02", EndDate: "2026-03-08"}
	gen := newGenerator([]*model.Employee{qualified, unqualified}, []*model.Shift{shift}, nil, window)

	candidates := gen.CandidatesFor(shift, NewLedger())
	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0] != qualified.ID {
		t.Error("Only the qualified employee should be a candidate")
	}
}

func TestGenerator_MinutesCap(t *testing.T) {
	emp := newEmployee("员工1")
	emp.MaxMinutesPerWeek = 8 * 60 // 每周最多8小时

	shift1 := newShift("2026-03-02", "09:00", "17:00")
	shift2 := newShift("2026-03-03", "09:00", "17:00")

	window := model.DateRange{StartDate: "2026-03-02", EndDate: "2026-03-08"}
	gen := newGenerator([]*model.Employee{emp}, []*model.Shift{shift1, shift2}, nil, window)

	ledger := NewLedger()
	if len(gen.CandidatesFor(shift1, ledger)) != 1 {
		t.Fatal("Employee should be eligible for the first shift")
	}

	ledger.Record(emp.ID, shift1)

	// 工时已满，第二个班次不再是候选
	if len(gen.CandidatesFor(shift2, ledger)) != 0 {
		t.Error("Employee over the minutes cap should be filtered")
	}
}

func TestGenerator_HardRestrictionCap(t *testing.T) {
	emp := newEmployee("员工1")

	// 员工自身无上限，硬限制约束给出每周 8 小时
	constraints := rules.Set{
		{
			Kind:        rules.KindRestriction,
			EmployeeID:  &emp.ID,
			Priority:    5,
			Restriction: &rules.RestrictionRule{MaxMinutesPerWeek: 8 * 60},
		},
	}

	shift1 := newShift("2026-03-02", "09:00", "17:00")
	shift2 := newShift("2026-03-03", "09:00", "17:00")

	window := model.DateRange{StartDate: "2026-03-02", EndDate: "2026-03-08"}
	gen := newGenerator([]*model.Employee{emp}, []*model.Shift{shift1, shift2}, constraints, window)

	ledger := NewLedger()
	ledger.Record(emp.ID, shift1)

	if len(gen.CandidatesFor(shift2, ledger)) != 0 {
		t.Error("Hard restriction cap should filter the employee")
	}
}

func TestGenerator_RestFilter(t *testing.T) {
	emp := newEmployee("员工1")

	constraints := rules.Set{
		{
			Kind:        rules.KindRestriction,
			Priority:    5,
			Restriction: &rules.RestrictionRule{MinRestHours: 11},
		},
	}

	// 当天晚班后次日早班仅间隔 10 小时
	night := newShift("2026-03-02", "15:00", "23:00")
	morning := newShift("2026-03-03", "09:00", "17:00")

	window := model.DateRange{StartDate: "2026-03-02", EndDate: "2026-03-08"}
	gen := newGenerator([]*model.Employee{emp}, []*model.Shift{night, morning}, constraints, window)

	ledger := NewLedger()
	ledger.Record(emp.ID, night)

	if len(gen.CandidatesFor(morning, ledger)) != 0 {
		t.Error("Insufficient rest should filter the employee")
	}
}

func TestGenerator_ConsecutiveDaysFilter(t *testing.T) {
	emp := newEmployee("员工1")

	constraints := rules.Set{
		{
			Kind:        rules.KindRestriction,
			Priority:    5,
			Restriction: &rules.RestrictionRule{MaxConsecutiveDays: 2},
		},
	}

	shifts := []*model.Shift{
		newShift("2026-03-02", "09:00", "17:00"),
		newShift("2026-03-03", "09:00", "17:00"),
		newShift("2026-03-04", "09:00", "17:00"),
	}

	window := model.DateRange{StartDate: "2026-03-02", EndDate: "2026-03-08"}
	gen := newGenerator([]*model.Employee{emp}, shifts, constraints, window)

	ledger := NewLedger()
	ledger.Record(emp.ID, shifts[0])
	ledger.Record(emp.ID, shifts[1])

	// 第三个连续工作日超过限制
	if len(gen.CandidatesFor(shifts[2], ledger)) != 0 {
		t.Error("Third consecutive day should be filtered")
	}
}

func TestGenerator_HardPreferenceBlocked(t *testing.T) {
	emp := newEmployee("员工1")

	// 优先级 5 的偏好按硬约束处理：回避周一
	constraints := rules.Set{
		{
			Kind:       rules.KindPreference,
			EmployeeID: &emp.ID,
			Priority:   5,
			Preference: &rules.PreferenceRule{AvoidWeekdays: []time.Weekday{time.Monday}},
		},
	}

	shift := newShift("2026-03-02", "09:00", "17:00") // 周一

	window := model.DateRange{StartDate: "2026-03-02", EndDate: "2026-03-08"}
	gen := newGenerator([]*model.Employee{emp}, []*model.Shift{shift}, constraints, window)

	if len(gen.CandidatesFor(shift, NewLedger())) != 0 {
		t.Error("Hard preference avoid-weekday should filter the employee")
	}
}

func TestGenerator_HardRequirementBlocksOffDays(t *testing.T) {
	emp := newEmployee("员工1")
	monday := newShift("2026-03-02", "09:00", "17:00")
	tuesday := newShift("2026-03-03", "09:00", "17:00")

	// 优先级 5 的出勤星期要求：只允许周一的班次
	constraints := rules.Set{
		{
			Kind:        rules.KindRequirement,
			EmployeeID:  &emp.ID,
			Priority:    5,
			Requirement: &rules.RequirementRule{RequiredWeekdays: []time.Weekday{time.Monday}},
		},
	}

	window := model.DateRange{StartDate: "2026-03-02", EndDate: "2026-03-08"}
	gen := newGenerator([]*model.Employee{emp}, []*model.Shift{monday, tuesday}, constraints, window)

	if len(gen.CandidatesFor(monday, NewLedger())) != 1 {
		t.Error("Employee should be eligible for the required weekday")
	}
	if got := gen.CandidatesFor(tuesday, NewLedger()); len(got) != 0 {
		t.Errorf("Hard requirement should block off-day shifts, got %d candidates", len(got))
	}
}

func TestGenerator_SoftRequirementNotFiltered(t *testing.T) {
	emp := newEmployee("员工1")
	tuesday := newShift("2026-03-03", "09:00", "17:00")

	// 优先级 1-4 的出勤星期要求只影响评分，不过滤候选
	constraints := rules.Set{
		{
			Kind:        rules.KindRequirement,
			EmployeeID:  &emp.ID,
			Priority:    3,
			Requirement: &rules.RequirementRule{RequiredWeekdays: []time.Weekday{time.Monday}},
		},
	}

	window := model.DateRange{StartDate: "2026-03-02", EndDate: "2026-03-08"}
	gen := newGenerator([]*model.Employee{emp}, []*model.Shift{tuesday}, constraints, window)

	if len(gen.CandidatesFor(tuesday, NewLedger())) != 1 {
		t.Error("Soft requirement must not filter candidates")
	}
}
