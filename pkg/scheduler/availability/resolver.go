// Package availability 提供员工可用性解析
// 将基础可用性模式、可用性类约束与已有分配折算成 (员工, 班次) 可用性映射
package availability

import (
	"github.com/google/uuid"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/model"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/rules"
)

// Reason 不可用原因码，供冲突检测器复用
type Reason string

const (
	ReasonAvailable      Reason = ""                       // 可用
	ReasonOutsidePattern Reason = "outside_base_pattern"   // 超出基础可用性模式
	ReasonBlockedByRule  Reason = "blocked_by_rule"        // 被可用性/限制类约束禁止
	ReasonOverlap        Reason = "overlapping_assignment" // 与已有分配时间重叠
	ReasonInactive       Reason = "employee_inactive"      // 员工不在职
)

type key struct {
	emp   uuid.UUID
	shift uuid.UUID
}

// Map 可用性映射：(员工, 班次) -> 可用与否及原因
type Map struct {
	entries map[key]Reason
}

// Available 检查员工对某班次是否可用
func (m *Map) Available(empID, shiftID uuid.UUID) bool {
	return m.entries[key{empID, shiftID}] == ReasonAvailable
}

// ReasonFor 返回不可用原因，可用时返回空值
func (m *Map) ReasonFor(empID, shiftID uuid.UUID) Reason {
	return m.entries[key{empID, shiftID}]
}

// Resolve 计算整个日期范围的可用性映射
// 每次生成请求只运行一次；候选生成必须在该映射存在后进行
func Resolve(employees []*model.Employee, shifts []*model.Shift, constraints rules.Set, existing []*model.Assignment) *Map {
	m := &Map{entries: make(map[key]Reason, len(employees)*len(shifts))}

	// 按员工预分组已有分配
	existingByEmp := make(map[uuid.UUID][]*model.Assignment)
	for _, a := range existing {
		existingByEmp[a.EmployeeID] = append(existingByEmp[a.EmployeeID], a)
	}

	for _, emp := range employees {
		empRules := constraints.ForEmployee(emp.ID).Hard()
		for _, shift := range shifts {
			m.entries[key{emp.ID, shift.ID}] = resolveSlot(emp, shift, empRules, existingByEmp[emp.ID])
		}
	}

	return m
}

// resolveSlot 判定单个 (员工, 班次) 槽位
func resolveSlot(emp *model.Employee, shift *model.Shift, hardRules rules.Set, existing []*model.Assignment) Reason {
	if !emp.IsActive() {
		return ReasonInactive
	}

	// (a) 基础可用性模式
	if !emp.Availability.Covers(shift.Weekday(), shift.StartTime, shift.EndTime) {
		return ReasonOutsidePattern
	}

	// (b) 硬约束中的可用性/限制时段
	// 软约束（优先级 1-4）不在此过滤，留给求解器打分
	for _, c := range hardRules {
		if Blocks(c, shift) {
			return ReasonBlockedByRule
		}
	}

	// (c) 与已有分配的时间重叠
	tr := shift.TimeRange()
	for _, a := range existing {
		if a.Status == model.AssignmentDeclined {
			continue
		}
		if a.StartTime.Before(tr.End) && tr.Start.Before(a.EndTime) {
			return ReasonOverlap
		}
	}

	return ReasonAvailable
}

// Blocks 检查单条可用性/限制约束是否禁止该班次
// 硬约束在此直接过滤；软约束由求解器用同一谓词计入惩罚
func Blocks(c *rules.Constraint, shift *model.Shift) bool {
	switch c.Kind {
	case rules.KindAvailability:
		r := c.Availability
		day := shift.Weekday()
		for _, d := range r.UnavailableWeekdays {
			if d == day {
				return true
			}
		}
		for _, date := range r.UnavailableDates {
			if date == shift.Date {
				return true
			}
		}
		if r.UnavailableClock != nil && clockOverlaps(*r.UnavailableClock, shift.StartTime, shift.EndTime) {
			return true
		}
	case rules.KindRestriction:
		r := c.Restriction
		start, err := model.ClockMinutes(shift.StartTime)
		if err != nil {
			return false
		}
		if r.NoShiftsBefore != "" {
			if limit, err := model.ClockMinutes(r.NoShiftsBefore); err == nil && start < limit {
				return true
			}
		}
		if r.NoShiftsAfter != "" {
			if limit, err := model.ClockMinutes(r.NoShiftsAfter); err == nil && start > limit {
				return true
			}
		}
	}
	return false
}

// clockOverlaps 检查时刻范围与班次 [start, end) 是否有交集
func clockOverlaps(cr model.ClockRange, start, end string) bool {
	cs, err1 := model.ClockMinutes(cr.Start)
	ce, err2 := model.ClockMinutes(cr.End)
	ss, err3 := model.ClockMinutes(start)
	se, err4 := model.ClockMinutes(end)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return false
	}
	if ce <= cs {
		ce += 24 * 60
	}
	if se <= ss {
		se += 24 * 60
	}
	return cs < se && ss < ce
}
