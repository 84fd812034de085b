package engine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/errors"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/model"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/rules"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/scheduler/optimizer"
)

func newEmployee(name string) *model.Employee {
	return &model.Employee{
		BaseModel: model.BaseModel{ID: uuid.New()},
		Name:      name,
		Status:    "active",
	}
}

func newShift(name, date, start, end string) *model.Shift {
	return &model.Shift{
		BaseModel:     model.BaseModel{ID: uuid.New()},
		Name:          name,
		Date:          date,
		StartTime:     start,
		EndTime:       end,
		RequiredStaff: 1,
	}
}

func TestEngine_Generate(t *testing.T) {
	eng := New()

	emp1 := newEmployee("员工1")
	emp2 := newEmployee("员工2")

	req := &GenerateRequest{
		StartDate: "2026-03-02",
		EndDate:   "2026-03-08",
		Employees: []*model.Employee{emp1, emp2},
		Shifts: []*model.Shift{
			newShift("早班", "2026-03-02", "09:00", "17:00"),
			newShift("早班", "2026-03-03", "09:00", "17:00"),
		},
	}

	result, err := eng.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() unexpected error: %v", err)
	}

	if result.Schedule.State != model.StateFeasible {
		t.Errorf("State = %s, expected %s", result.Schedule.State, model.StateFeasible)
	}
	if len(result.Schedule.Assignments) != 2 {
		t.Errorf("Assignments = %d, expected 2", len(result.Schedule.Assignments))
	}
	if result.Fairness == nil || result.Coverage == nil {
		t.Fatal("Result should carry fairness and coverage metrics")
	}
	if result.Coverage.OverallCoverage != 100 {
		t.Errorf("OverallCoverage = %f, expected 100", result.Coverage.OverallCoverage)
	}

	stats := result.Schedule.Statistics
	if stats == nil {
		t.Fatal("Schedule statistics should be populated")
	}
	if stats.FairnessScore != result.Fairness.OverallFairnessScore {
		t.Error("Schedule fairness score should match fairness metrics")
	}
	if stats.PreferenceScore != 100 {
		t.Errorf("PreferenceScore = %f, expected 100 without preferences", stats.PreferenceScore)
	}
	if stats.UnfilledShifts != 0 {
		t.Errorf("UnfilledShifts = %d, expected 0", stats.UnfilledShifts)
	}
}

func TestEngine_Generate_MalformedRule(t *testing.T) {
	eng := New()

	req := &GenerateRequest{
		StartDate: "2026-03-02",
		EndDate:   "2026-03-08",
		Employees: []*model.Employee{newEmployee("员工1")},
		Shifts:    []*model.Shift{newShift("早班", "2026-03-02", "09:00", "17:00")},
		Rules: []rules.RawRecord{
			{
				ID:       uuid.New(),
				Kind:     "unknown_kind",
				Payload:  map[string]interface{}{},
				Priority: 3,
				Active:   true,
			},
		},
	}

	_, err := eng.Generate(context.Background(), req)
	if errors.GetCode(err) != errors.CodeMalformedConstraint {
		t.Errorf("Error code = %s, expected %s", errors.GetCode(err), errors.CodeMalformedConstraint)
	}
}

func TestEngine_Generate_Shortfall(t *testing.T) {
	eng := New()

	shift := newShift("早班", "2026-03-02", "09:00", "17:00")
	shift.RequiredStaff = 3

	req := &GenerateRequest{
		StartDate: "2026-03-02",
		EndDate:   "2026-03-08",
		Employees: []*model.Employee{newEmployee("员工1")},
		Shifts:    []*model.Shift{shift},
	}

	result, err := eng.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() unexpected error: %v", err)
	}

	// 人员缺口不是错误，排班以 partial 状态返回
	if result.Schedule.State != model.StatePartial {
		t.Errorf("State = %s, expected %s", result.Schedule.State, model.StatePartial)
	}
	if len(result.Report.Shortfalls()) != 1 {
		t.Errorf("Expected 1 shortfall, got %d", len(result.Report.Shortfalls()))
	}
	if result.Schedule.Statistics.UnfilledShifts != 1 {
		t.Errorf("UnfilledShifts = %d, expected 1", result.Schedule.Statistics.UnfilledShifts)
	}
}

func TestEngine_Optimize(t *testing.T) {
	eng := New()

	overworked := newEmployee("过载员工")
	idle := newEmployee("空闲员工")
	shift1 := newShift("早班", "2026-03-02", "09:00", "17:00")
	shift2 := newShift("早班", "2026-03-03", "09:00", "17:00")

	schedule := model.NewSchedule("2026-03-02", "2026-03-08")
	schedule.State = model.StateFeasible
	for _, s := range []*model.Shift{shift1, shift2} {
		tr := s.TimeRange()
		schedule.Assignments = append(schedule.Assignments, &model.Assignment{
			BaseModel:  model.BaseModel{ID: uuid.New()},
			ScheduleID: schedule.ID,
			EmployeeID: overworked.ID,
			ShiftID:    s.ID,
			Date:       s.Date,
			StartTime:  tr.Start,
			EndTime:    tr.End,
			Status:     model.AssignmentAssigned,
		})
	}

	result, err := eng.Optimize(context.Background(), &OptimizeRequest{
		Schedule:  schedule,
		Employees: []*model.Employee{overworked, idle},
		Shifts:    []*model.Shift{shift1, shift2},
		Budget:    optimizer.DefaultBudget(),
	})
	if err != nil {
		t.Fatalf("Optimize() unexpected error: %v", err)
	}

	if !result.Improved {
		t.Error("Lopsided schedule should be improved")
	}
	if result.Iterations == 0 {
		t.Error("Iterations should be counted")
	}
	if result.Report.HasHard() {
		t.Errorf("Optimizer introduced %d hard violations", result.Report.HardCount())
	}

	// 原排班不被修改
	for _, a := range schedule.Assignments {
		if a.EmployeeID != overworked.ID {
			t.Fatal("Input schedule must not be mutated")
		}
	}
}

func TestEngine_Validate(t *testing.T) {
	eng := New()

	if _, err := eng.Validate(&ValidateRequest{}); errors.GetCode(err) != errors.CodeInvalidInput {
		t.Errorf("Error code = %s, expected %s", errors.GetCode(err), errors.CodeInvalidInput)
	}

	emp := newEmployee("员工1")
	shift1 := newShift("早班", "2026-03-02", "09:00", "17:00")
	shift2 := newShift("中班", "2026-03-02", "13:00", "21:00")

	schedule := model.NewSchedule("2026-03-02", "2026-03-08")
	for _, s := range []*model.Shift{shift1, shift2} {
		tr := s.TimeRange()
		schedule.Assignments = append(schedule.Assignments, &model.Assignment{
			BaseModel:  model.BaseModel{ID: uuid.New()},
			ScheduleID: schedule.ID,
			EmployeeID: emp.ID,
			ShiftID:    s.ID,
			Date:       s.Date,
			StartTime:  tr.Start,
			EndTime:    tr.End,
			Status:     model.AssignmentAssigned,
		})
	}

	report, err := eng.Validate(&ValidateRequest{
		Schedule:  schedule,
		Employees: []*model.Employee{emp},
		Shifts:    []*model.Shift{shift1, shift2},
	})
	if err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	if report.Empty() {
		t.Error("Overlapping assignments should be reported")
	}
}
