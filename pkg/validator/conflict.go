// Package validator 提供排班冲突检测
// 对求解器产出、优化器产出或外部编辑过的排班做全量硬规则复核
package validator

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/model"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/rules"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/scheduler/availability"
)

// Rule 被违反的规则类型
type Rule string

const (
	RuleShortfall     Rule = "staffing_shortfall"   // 班次人员缺口
	RuleDuplicate     Rule = "duplicate_assignment" // 同一 (员工, 班次) 重复分配
	RuleOverlap       Rule = "overlap"              // 时间重叠
	RuleAvailability  Rule = "availability"         // 员工不可用
	RuleQualification Rule = "qualification"        // 资质不匹配
	RuleMaxMinutes    Rule = "max_minutes"          // 超过工时上限
	RuleRest          Rule = "rest_period"          // 休息间隔不足
	RuleConsecutive   Rule = "consecutive_days"     // 连续工作天数超限
	RuleRequirement   Rule = "requirement"          // 硬要求未满足
)

// Severity 违反严重程度
type Severity string

const (
	SeverityHard Severity = "hard"
	SeveritySoft Severity = "soft"
)

// Violation 单条违反记录
type Violation struct {
	Rule       Rule      `json:"rule"`
	Severity   Severity  `json:"severity"`
	ShiftID    uuid.UUID `json:"shift_id,omitempty"`
	EmployeeID uuid.UUID `json:"employee_id,omitempty"`
	Date       string    `json:"date,omitempty"`
	Message    string    `json:"message"`
	Shortfall  int       `json:"shortfall,omitempty"` // 仅人员缺口使用
}

// Report 冲突报告
// 可行性问题永远作为数据返回，不作为错误抛出
type Report struct {
	Violations []Violation `json:"violations"`
}

// Add 追加违反记录
func (r *Report) Add(v Violation) {
	r.Violations = append(r.Violations, v)
}

// Empty 检查报告是否为空
func (r *Report) Empty() bool {
	return len(r.Violations) == 0
}

// HardCount 返回硬违反数量
func (r *Report) HardCount() int {
	count := 0
	for _, v := range r.Violations {
		if v.Severity == SeverityHard {
			count++
		}
	}
	return count
}

// HasHard 检查是否存在硬违反
func (r *Report) HasHard() bool {
	return r.HardCount() > 0
}

// Shortfalls 返回人员缺口记录
func (r *Report) Shortfalls() []Violation {
	var result []Violation
	for _, v := range r.Violations {
		if v.Rule == RuleShortfall {
			result = append(result, v)
		}
	}
	return result
}

// Detector 冲突检测器
// 只读检测，从不修改排班
type Detector struct{}

// NewDetector 创建冲突检测器
func NewDetector() *Detector {
	return &Detector{}
}

// Detect 检测排班中的全部冲突
func (d *Detector) Detect(schedule *model.Schedule, employees []*model.Employee, shifts []*model.Shift, constraints rules.Set) *Report {
	report := &Report{}

	employeeMap := make(map[uuid.UUID]*model.Employee, len(employees))
	for _, e := range employees {
		employeeMap[e.ID] = e
	}
	shiftMap := make(map[uuid.UUID]*model.Shift, len(shifts))
	for _, s := range shifts {
		shiftMap[s.ID] = s
	}

	active := activeAssignments(schedule)

	// 班次人员缺口
	d.detectShortfalls(report, shifts, active)

	// 唯一性不变式
	d.detectDuplicates(report, active)

	// 按员工分组做逐员工检查
	byEmployee := make(map[uuid.UUID][]*model.Assignment)
	for _, a := range active {
		byEmployee[a.EmployeeID] = append(byEmployee[a.EmployeeID], a)
	}

	// 可用性映射（独立校验，不考虑外部已有分配；重叠单独检测）
	avail := availability.Resolve(employees, shifts, constraints, nil)

	empIDs := make([]uuid.UUID, 0, len(byEmployee))
	for id := range byEmployee {
		empIDs = append(empIDs, id)
	}
	sort.Slice(empIDs, func(i, j int) bool { return empIDs[i].String() < empIDs[j].String() })

	for _, empID := range empIDs {
		emp := employeeMap[empID]
		if emp == nil {
			continue
		}
		assignments := byEmployee[empID]
		d.detectOverlaps(report, emp, assignments)
		d.detectUnavailable(report, emp, assignments, avail)
		d.detectQualifications(report, emp, assignments, shiftMap)
		d.detectMaxMinutes(report, emp, assignments, schedule.Range(), constraints)
		d.detectRestViolations(report, emp, assignments, constraints)
		d.detectConsecutiveDays(report, emp, assignments, constraints)
	}

	// 硬要求对没有任何分配的员工同样生效（最低工时缺口）
	allIDs := make([]uuid.UUID, 0, len(employees))
	for _, e := range employees {
		allIDs = append(allIDs, e.ID)
	}
	sort.Slice(allIDs, func(i, j int) bool { return allIDs[i].String() < allIDs[j].String() })
	for _, empID := range allIDs {
		d.detectRequirements(report, employeeMap[empID], byEmployee[empID], schedule.Range(), constraints)
	}

	return report
}

// detectShortfalls 检测班次人员缺口
func (d *Detector) detectShortfalls(report *Report, shifts []*model.Shift, assignments []*model.Assignment) {
	counts := make(map[uuid.UUID]int)
	for _, a := range assignments {
		counts[a.ShiftID]++
	}

	ordered := make([]*model.Shift, len(shifts))
	copy(ordered, shifts)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Date != ordered[j].Date {
			return ordered[i].Date < ordered[j].Date
		}
		if ordered[i].StartTime != ordered[j].StartTime {
			return ordered[i].StartTime < ordered[j].StartTime
		}
		return ordered[i].ID.String() < ordered[j].ID.String()
	})

	for _, shift := range ordered {
		assigned := counts[shift.ID]
		if assigned < shift.RequiredStaff {
			report.Add(Violation{
				Rule:      RuleShortfall,
				Severity:  SeverityHard,
				ShiftID:   shift.ID,
				Date:      shift.Date,
				Shortfall: shift.RequiredStaff - assigned,
				Message: fmt.Sprintf("班次 %s (%s) 需要 %d 人，仅分配 %d 人",
					shift.Name, shift.Date, shift.RequiredStaff, assigned),
			})
		}
	}
}

// detectDuplicates 检测重复的 (员工, 班次) 分配
func (d *Detector) detectDuplicates(report *Report, assignments []*model.Assignment) {
	type pair struct {
		emp   uuid.UUID
		shift uuid.UUID
	}
	seen := make(map[pair]bool)
	for _, a := range assignments {
		p := pair{a.EmployeeID, a.ShiftID}
		if seen[p] {
			report.Add(Violation{
				Rule:       RuleDuplicate,
				Severity:   SeverityHard,
				ShiftID:    a.ShiftID,
				EmployeeID: a.EmployeeID,
				Date:       a.Date,
				Message:    fmt.Sprintf("员工 %s 在班次 %s 上存在重复分配", a.EmployeeID, a.ShiftID),
			})
		}
		seen[p] = true
	}
}

// detectOverlaps 检测同一员工的时间重叠
func (d *Detector) detectOverlaps(report *Report, emp *model.Employee, assignments []*model.Assignment) {
	sorted := make([]*model.Assignment, len(assignments))
	copy(sorted, assignments)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})

	for i := 0; i < len(sorted)-1; i++ {
		if sorted[i].Overlaps(sorted[i+1]) {
			report.Add(Violation{
				Rule:       RuleOverlap,
				Severity:   SeverityHard,
				ShiftID:    sorted[i+1].ShiftID,
				EmployeeID: emp.ID,
				Date:       sorted[i].Date,
				Message:    fmt.Sprintf("员工 %s 在 %s 存在时间重叠的分配", emp.Name, sorted[i].Date),
			})
		}
	}
}

// detectUnavailable 检测不可用时段的分配
func (d *Detector) detectUnavailable(report *Report, emp *model.Employee, assignments []*model.Assignment, avail *availability.Map) {
	for _, a := range assignments {
		if reason := avail.ReasonFor(emp.ID, a.ShiftID); reason != availability.ReasonAvailable {
			report.Add(Violation{
				Rule:       RuleAvailability,
				Severity:   SeverityHard,
				ShiftID:    a.ShiftID,
				EmployeeID: emp.ID,
				Date:       a.Date,
				Message:    fmt.Sprintf("员工 %s 在 %s 不可用 (%s)", emp.Name, a.Date, reason),
			})
		}
	}
}

// detectQualifications 检测资质不匹配
func (d *Detector) detectQualifications(report *Report, emp *model.Employee, assignments []*model.Assignment, shiftMap map[uuid.UUID]*model.Shift) {
	for _, a := range assignments {
		shift := shiftMap[a.ShiftID]
		if shift == nil {
			continue
		}
		for _, q := range shift.RequiredQualifications {
			if !emp.HasQualification(q) {
				report.Add(Violation{
					Rule:       RuleQualification,
					Severity:   SeverityHard,
					ShiftID:    shift.ID,
					EmployeeID: emp.ID,
					Date:       shift.Date,
					Message:    fmt.Sprintf("员工 %s 缺少班次 %s 所需资质: %s", emp.Name, shift.Name, q),
				})
			}
		}
	}
}

// detectMaxMinutes 检测工时超限（按日期范围折算）
func (d *Detector) detectMaxMinutes(report *Report, emp *model.Employee, assignments []*model.Assignment, window model.DateRange, constraints rules.Set) {
	total := 0
	for _, a := range assignments {
		total += a.Minutes()
	}

	cap := emp.MaxMinutesProrated(window)
	for _, c := range constraints.ForEmployee(emp.ID).Hard() {
		if c.Kind != rules.KindRestriction || c.Restriction.MaxMinutesPerWeek == 0 {
			continue
		}
		prorated := c.Restriction.MaxMinutesPerWeek
		if days := window.Days(); days > 7 {
			prorated = prorated * days / 7
		}
		if cap == 0 || prorated < cap {
			cap = prorated
		}
	}

	if cap > 0 && total > cap {
		report.Add(Violation{
			Rule:       RuleMaxMinutes,
			Severity:   SeverityHard,
			EmployeeID: emp.ID,
			Message: fmt.Sprintf("员工 %s 累计工时 %d 分钟，超过折算上限 %d 分钟",
				emp.Name, total, cap),
		})
	}
}

// detectRestViolations 检测休息间隔不足（仅硬限制约束）
func (d *Detector) detectRestViolations(report *Report, emp *model.Employee, assignments []*model.Assignment, constraints rules.Set) {
	minRest := constraints.MinRestHours(emp.ID)
	if minRest <= 0 || len(assignments) < 2 {
		return
	}

	sorted := make([]*model.Assignment, len(assignments))
	copy(sorted, assignments)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].EndTime.Before(sorted[j].EndTime)
	})

	for i := 0; i < len(sorted)-1; i++ {
		rest := sorted[i+1].StartTime.Sub(sorted[i].EndTime)
		if rest >= 0 && rest < time.Duration(minRest)*time.Hour {
			report.Add(Violation{
				Rule:       RuleRest,
				Severity:   SeverityHard,
				ShiftID:    sorted[i+1].ShiftID,
				EmployeeID: emp.ID,
				Date:       sorted[i+1].Date,
				Message: fmt.Sprintf("员工 %s 班次间隔仅 %.1f 小时，少于要求的 %d 小时",
					emp.Name, rest.Hours(), minRest),
			})
		}
	}
}

// detectConsecutiveDays 检测连续工作天数超限（仅硬限制约束）
func (d *Detector) detectConsecutiveDays(report *Report, emp *model.Employee, assignments []*model.Assignment, constraints rules.Set) {
	maxDays := constraints.MaxConsecutiveDays(emp.ID)
	if maxDays <= 0 || len(assignments) == 0 {
		return
	}

	workDates := make(map[string]bool)
	for _, a := range assignments {
		workDates[a.Date] = true
	}
	dates := make([]string, 0, len(workDates))
	for date := range workDates {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	consecutive := 1
	maxConsecutive := 1
	runStart := dates[0]
	maxRunStart := dates[0]
	for i := 1; i < len(dates); i++ {
		if isConsecutiveDate(dates[i-1], dates[i]) {
			consecutive++
			if consecutive > maxConsecutive {
				maxConsecutive = consecutive
				maxRunStart = runStart
			}
		} else {
			consecutive = 1
			runStart = dates[i]
		}
	}

	if maxConsecutive > maxDays {
		report.Add(Violation{
			Rule:       RuleConsecutive,
			Severity:   SeverityHard,
			EmployeeID: emp.ID,
			Date:       maxRunStart,
			Message: fmt.Sprintf("员工 %s 连续工作 %d 天，超过限制 %d 天",
				emp.Name, maxConsecutive, maxDays),
		})
	}
}

// detectRequirements 检测硬要求约束（仅优先级 5；软要求由求解器打分）
// 出勤星期之外的分配与周最低工时缺口都作为硬违反上报
func (d *Detector) detectRequirements(report *Report, emp *model.Employee, assignments []*model.Assignment, window model.DateRange, constraints rules.Set) {
	total := 0
	for _, a := range assignments {
		total += a.Minutes()
	}

	for _, c := range constraints.ForEmployee(emp.ID).Hard() {
		if c.Kind != rules.KindRequirement {
			continue
		}
		req := c.Requirement

		if len(req.RequiredWeekdays) > 0 {
			for _, a := range assignments {
				if requiredWeekday(req.RequiredWeekdays, a.Date) {
					continue
				}
				report.Add(Violation{
					Rule:       RuleRequirement,
					Severity:   SeverityHard,
					ShiftID:    a.ShiftID,
					EmployeeID: emp.ID,
					Date:       a.Date,
					Message:    fmt.Sprintf("员工 %s 在 %s 的分配不在要求的出勤星期内", emp.Name, a.Date),
				})
			}
		}

		if req.MinMinutesPerWeek > 0 {
			min := req.MinMinutesPerWeek * window.Days() / 7
			if total < min {
				report.Add(Violation{
					Rule:       RuleRequirement,
					Severity:   SeverityHard,
					EmployeeID: emp.ID,
					Message: fmt.Sprintf("员工 %s 累计工时 %d 分钟，低于折算最低要求 %d 分钟",
						emp.Name, total, min),
				})
			}
		}
	}
}

// requiredWeekday 检查日期是否落在要求的出勤星期内
func requiredWeekday(days []time.Weekday, date string) bool {
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return false
	}
	for _, d := range days {
		if d == t.Weekday() {
			return true
		}
	}
	return false
}

// activeAssignments 返回未被拒绝的分配
func activeAssignments(schedule *model.Schedule) []*model.Assignment {
	var result []*model.Assignment
	for _, a := range schedule.Assignments {
		if a.Status != model.AssignmentDeclined {
			result = append(result, a)
		}
	}
	return result
}

// isConsecutiveDate 检查两个日期是否连续
func isConsecutiveDate(date1, date2 string) bool {
	t1, err1 := time.Parse(model.DateLayout, date1)
	t2, err2 := time.Parse(model.DateLayout, date2)
	if err1 != nil || err2 != nil {
		return false
	}
	return t2.Sub(t1) == 24*time.Hour
}
