// Package solver 提供排班求解器
package solver

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/errors"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/logger"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/model"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/rules"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/scheduler/availability"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/scheduler/candidate"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/validator"
)

// Input 求解输入
// 求解器不做 I/O，全部数据由调用方装配
type Input struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD

	Employees   []*model.Employee   `json:"employees"`
	Shifts      []*model.Shift      `json:"shifts"`
	Constraints rules.Set           `json:"-"`
	Existing    []*model.Assignment `json:"existing,omitempty"` // 范围外或人工保留的分配

	Weights Weights `json:"weights"`
}

// Validate 校验求解输入
func (in *Input) Validate() error {
	start, err := time.Parse(model.DateLayout, in.StartDate)
	if err != nil {
		return errors.InvalidTimeRange(in.StartDate, in.EndDate)
	}
	end, err := time.Parse(model.DateLayout, in.EndDate)
	if err != nil || end.Before(start) {
		return errors.InvalidTimeRange(in.StartDate, in.EndDate)
	}
	if len(in.Employees) == 0 {
		return errors.ErrEmptyRoster
	}
	return nil
}

// GreedySolver 贪心求解器
// 按日期升序逐班次分配得分最高的候选员工，全程确定性：
// 相同输入必然产出相同排班
type GreedySolver struct {
	logger   *logger.SchedulerLogger
	detector *validator.Detector
}

// NewGreedySolver 创建贪心求解器
func NewGreedySolver() *GreedySolver {
	return &GreedySolver{
		logger:   logger.NewSchedulerLogger(),
		detector: validator.NewDetector(),
	}
}

// Name 返回求解器名称
func (s *GreedySolver) Name() string {
	return "GreedySolver"
}

// Solve 生成排班
// 人员缺口不是错误：缺口进入冲突报告，排班以 partial 状态返回
func (s *GreedySolver) Solve(ctx context.Context, input *Input) (*model.Schedule, *validator.Report, error) {
	if err := input.Validate(); err != nil {
		return nil, nil, err
	}

	startTime := time.Now()
	schedule := model.NewSchedule(input.StartDate, input.EndDate)
	schedule.State = model.StateSolving

	s.logger.StartSolve(schedule.ID.String(), len(input.Employees), len(input.Shifts))

	avail := availability.Resolve(input.Employees, input.Shifts, input.Constraints, input.Existing)
	gen := candidate.New(input.Employees, input.Constraints, avail, schedule.Range())
	scorer := NewScorer(input.Constraints, input.Weights)
	ledger := candidate.NewLedger()

	// 日期升序、同日按开始时间、人数需求多的优先、最后按 ID 兜底
	shifts := make([]*model.Shift, len(input.Shifts))
	copy(shifts, input.Shifts)
	sort.Slice(shifts, func(i, j int) bool {
		if shifts[i].Date != shifts[j].Date {
			return shifts[i].Date < shifts[j].Date
		}
		if shifts[i].StartTime != shifts[j].StartTime {
			return shifts[i].StartTime < shifts[j].StartTime
		}
		if shifts[i].RequiredStaff != shifts[j].RequiredStaff {
			return shifts[i].RequiredStaff > shifts[j].RequiredStaff
		}
		return shifts[i].ID.String() < shifts[j].ID.String()
	})

	for _, shift := range shifts {
		if err := ctx.Err(); err != nil {
			return nil, nil, errors.Wrap(err, errors.CodeTimeout, "排班求解被取消")
		}

		assigned := s.fillShift(schedule, shift, gen, scorer, ledger)
		if assigned < shift.RequiredStaff {
			s.logger.ShiftShortfall(shift.ID.String(), shift.RequiredStaff, assigned)
		}
	}

	report := s.detector.Detect(schedule, input.Employees, input.Shifts, input.Constraints)
	if report.HasHard() {
		schedule.State = model.StatePartial
	} else {
		schedule.State = model.StateFeasible
	}
	schedule.Statistics = buildStats(schedule, input.Employees, report)

	s.logger.SolveComplete(schedule.ID.String(), time.Since(startTime),
		len(schedule.Assignments), report.HardCount())

	return schedule, report, nil
}

// fillShift 为单个班次分配员工，返回实际分配人数
func (s *GreedySolver) fillShift(schedule *model.Schedule, shift *model.Shift, gen *candidate.Generator, scorer *Scorer, ledger *candidate.Ledger) int {
	candidates := gen.CandidatesFor(shift, ledger)
	if len(candidates) == 0 {
		return 0
	}

	mean := ledger.MeanMinutes(candidates)

	type scored struct {
		empID uuid.UUID
		score float64
	}
	ranked := make([]scored, len(candidates))
	for i, empID := range candidates {
		ranked[i] = scored{
			empID: empID,
			score: scorer.Candidate(empID, shift, ledger.Minutes(empID), mean),
		}
	}

	// 得分降序，同分按员工 ID 升序，保证确定性
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].empID.String() < ranked[j].empID.String()
	})

	assigned := 0
	for _, r := range ranked {
		if assigned >= shift.RequiredStaff {
			break
		}
		schedule.Assignments = append(schedule.Assignments, newAssignment(schedule.ID, r.empID, shift))
		ledger.Record(r.empID, shift)
		assigned++
	}
	return assigned
}

// newAssignment 构造求解器产出的分配
func newAssignment(scheduleID, empID uuid.UUID, shift *model.Shift) *model.Assignment {
	tr := shift.TimeRange()
	return &model.Assignment{
		BaseModel:    model.NewBaseModel(),
		ScheduleID:   scheduleID,
		EmployeeID:   empID,
		ShiftID:      shift.ID,
		Date:         shift.Date,
		StartTime:    tr.Start,
		EndTime:      tr.End,
		Status:       model.AssignmentAssigned,
		AutoAssigned: true,
	}
}

// buildStats 汇总排班统计
// 公平性与偏好得分由统计包在上层补充
func buildStats(schedule *model.Schedule, employees []*model.Employee, report *validator.Report) *model.ScheduleStats {
	stats := &model.ScheduleStats{
		TotalAssignments: len(schedule.Assignments),
		UnfilledShifts:   len(report.Shortfalls()),
	}

	rateByEmp := make(map[uuid.UUID]int, len(employees))
	for _, e := range employees {
		rateByEmp[e.ID] = e.HourlyRateCents
	}

	seen := make(map[uuid.UUID]bool)
	for _, a := range schedule.Assignments {
		if a.Status == model.AssignmentDeclined {
			continue
		}
		minutes := a.Minutes()
		stats.TotalMinutes += minutes
		stats.LaborCostCents += rateByEmp[a.EmployeeID] * minutes / 60
		seen[a.EmployeeID] = true
	}
	stats.TotalEmployees = len(seen)

	return stats
}
