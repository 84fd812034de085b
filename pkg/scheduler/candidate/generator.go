// Package candidate 提供班次候选员工生成
// 候选集只做硬过滤；优先级 1-4 的软约束留给求解器打分
package candidate

import (
	"sort"

	"github.com/google/uuid"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/model"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/rules"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/scheduler/availability"
)

// Generator 候选员工生成器
// 调用方需先构建可用性映射，再按日期升序逐班次调用
type Generator struct {
	employees   []*model.Employee
	employeeMap map[uuid.UUID]*model.Employee
	constraints rules.Set
	avail       *availability.Map
	window      model.DateRange
}

// New 创建候选生成器
func New(employees []*model.Employee, constraints rules.Set, avail *availability.Map, window model.DateRange) *Generator {
	empMap := make(map[uuid.UUID]*model.Employee, len(employees))
	for _, e := range employees {
		empMap[e.ID] = e
	}
	return &Generator{
		employees:   employees,
		employeeMap: empMap,
		constraints: constraints,
		avail:       avail,
		window:      window,
	}
}

// Employee 按 ID 获取员工
func (g *Generator) Employee(id uuid.UUID) *model.Employee {
	return g.employeeMap[id]
}

// CandidatesFor 计算单个班次的候选员工集合
// 全部为硬过滤（优先级 5 语义）：可用性、资质、周工时上限（按范围折算）、
// 最小休息间隔、最大连续工作天数，以及声明为优先级 5 的偏好/要求类约束
// 输出按员工 ID 升序，保证确定性
func (g *Generator) CandidatesFor(shift *model.Shift, ledger *Ledger) []uuid.UUID {
	var result []uuid.UUID

	for _, emp := range g.employees {
		if g.Eligible(emp, shift, ledger) {
			result = append(result, emp.ID)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].String() < result[j].String()
	})
	return result
}

// Eligible 检查员工是否满足某班次的全部硬约束
func (g *Generator) Eligible(emp *model.Employee, shift *model.Shift, ledger *Ledger) bool {
	// 可用性（基础模式 + 硬可用性/限制约束 + 已有分配重叠）
	if !g.avail.Available(emp.ID, shift.ID) {
		return false
	}

	// 资质（结构性硬约束，与声明优先级无关）
	if !emp.HasAllQualifications(shift.RequiredQualifications) {
		return false
	}

	tr := shift.TimeRange()

	// 与本次求解中已排的班次重叠
	if ledger.Overlaps(emp.ID, tr) {
		return false
	}

	// 周工时上限，按日期范围折算
	if cap := g.effectiveMinutesCap(emp); cap > 0 {
		if ledger.Minutes(emp.ID)+tr.Minutes() > cap {
			return false
		}
	}

	// 最小休息间隔（硬限制约束）
	if minRest := g.constraints.MinRestHours(emp.ID); minRest > 0 {
		if ledger.RestViolated(emp.ID, tr, minRest) {
			return false
		}
	}

	// 最大连续工作天数（硬限制约束）
	if maxDays := g.constraints.MaxConsecutiveDays(emp.ID); maxDays > 0 {
		if ledger.ConsecutiveDays(emp.ID, shift.Date) > maxDays {
			return false
		}
	}

	// 声明为优先级 5 的偏好/要求约束同样作为硬过滤
	for _, c := range g.constraints.ForEmployee(emp.ID).Hard() {
		switch c.Kind {
		case rules.KindPreference:
			if preferenceBlocked(c.Preference, shift) {
				return false
			}
		case rules.KindRequirement:
			if requirementBlocked(c.Requirement, shift) {
				return false
			}
		}
	}

	return true
}

// effectiveMinutesCap 返回折算后的工时上限（分钟）
// 取员工自身上限与硬限制约束上限中的较小值；0 表示无上限
func (g *Generator) effectiveMinutesCap(emp *model.Employee) int {
	cap := emp.MaxMinutesProrated(g.window)
	for _, c := range g.constraints.ForEmployee(emp.ID).Hard() {
		if c.Kind != rules.KindRestriction || c.Restriction.MaxMinutesPerWeek == 0 {
			continue
		}
		prorated := prorate(c.Restriction.MaxMinutesPerWeek, g.window)
		if cap == 0 || prorated < cap {
			cap = prorated
		}
	}
	return cap
}

// preferenceBlocked 检查硬偏好是否禁止该班次
func preferenceBlocked(p *rules.PreferenceRule, shift *model.Shift) bool {
	day := shift.Weekday()
	for _, d := range p.AvoidWeekdays {
		if d == day {
			return true
		}
	}
	if p.PreferredClock != nil && !p.PreferredClock.Covers(shift.StartTime, shift.EndTime) {
		return true
	}
	return false
}

// requirementBlocked 检查硬要求是否禁止该班次
// 声明了出勤星期的硬要求只允许这些星期的班次
func requirementBlocked(r *rules.RequirementRule, shift *model.Shift) bool {
	if len(r.RequiredWeekdays) == 0 {
		return false
	}
	day := shift.Weekday()
	for _, d := range r.RequiredWeekdays {
		if d == day {
			return false
		}
	}
	return true
}

// prorate 将周上限按日期范围天数折算，不足一周按一周计
func prorate(weeklyMinutes int, dr model.DateRange) int {
	days := dr.Days()
	if days <= 7 {
		return weeklyMinutes
	}
	return weeklyMinutes * days / 7
}
