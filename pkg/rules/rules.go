// Package rules 定义排班规则的约束模型
// 将规则库中的原始记录规范化为类型化、可求值的约束对象
package rules

import (
	"time"

	"github.com/google/uuid"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/model"
)

// Kind 约束变体类型（封闭集合）
type Kind string

const (
	KindAvailability Kind = "availability" // 可用性
	KindPreference   Kind = "preference"   // 偏好
	KindRequirement  Kind = "requirement"  // 要求
	KindRestriction  Kind = "restriction"  // 限制
)

// PriorityHard 硬约束优先级
// 优先级 5 永远视为硬约束；1-4 为软约束，违反时按权重计入惩罚
const PriorityHard = 5

// RawRecord 规则库中的一条原始约束记录
// 自然语言解析在上游完成，这里收到的已经是结构化数据
type RawRecord struct {
	ID         uuid.UUID              `json:"id"`
	Kind       string                 `json:"kind"`
	EmployeeID *uuid.UUID             `json:"employee_id,omitempty"` // nil 表示全局约束
	Payload    map[string]interface{} `json:"payload"`
	Priority   int                    `json:"priority"` // 1-5
	Active     bool                   `json:"active"`
}

// Constraint 规范化后的约束对象
// 四个载荷字段恰好一个非空，与 Kind 对应
type Constraint struct {
	ID         uuid.UUID  `json:"id"`
	Kind       Kind       `json:"kind"`
	EmployeeID *uuid.UUID `json:"employee_id,omitempty"`
	Priority   int        `json:"priority"`

	Availability *AvailabilityRule `json:"availability,omitempty"`
	Preference   *PreferenceRule   `json:"preference,omitempty"`
	Requirement  *RequirementRule  `json:"requirement,omitempty"`
	Restriction  *RestrictionRule  `json:"restriction,omitempty"`
}

// AvailabilityRule 可用性约束载荷
// 命中任一条件即视为该时段不可用
type AvailabilityRule struct {
	UnavailableWeekdays []time.Weekday   `json:"unavailable_weekdays,omitempty"`
	UnavailableDates    []string         `json:"unavailable_dates,omitempty"` // YYYY-MM-DD
	UnavailableClock    *model.ClockRange `json:"unavailable_clock,omitempty"` // 每日不可用时段
}

// PreferenceRule 偏好约束载荷
type PreferenceRule struct {
	PreferredWeekdays []time.Weekday    `json:"preferred_weekdays,omitempty"`
	AvoidWeekdays     []time.Weekday    `json:"avoid_weekdays,omitempty"`
	PreferredClock    *model.ClockRange `json:"preferred_clock,omitempty"` // 偏好的班次时段
}

// RequirementRule 要求约束载荷
type RequirementRule struct {
	RequiredWeekdays  []time.Weekday `json:"required_weekdays,omitempty"`
	MinMinutesPerWeek int            `json:"min_minutes_per_week,omitempty"`
}

// RestrictionRule 限制约束载荷
type RestrictionRule struct {
	MaxConsecutiveDays int    `json:"max_consecutive_days,omitempty"`
	MinRestHours       int    `json:"min_rest_hours,omitempty"`
	MaxMinutesPerWeek  int    `json:"max_minutes_per_week,omitempty"`
	NoShiftsBefore     string `json:"no_shifts_before,omitempty"` // HH:MM，早于该时刻开始的班次禁止
	NoShiftsAfter      string `json:"no_shifts_after,omitempty"`  // HH:MM，晚于该时刻开始的班次禁止
}

// Hard 检查是否为硬约束
func (c *Constraint) Hard() bool {
	return c.Priority >= PriorityHard
}

// Weight 返回软约束权重（1-4）
func (c *Constraint) Weight() int {
	if c.Hard() {
		return 0
	}
	return c.Priority
}

// AppliesTo 检查约束是否作用于某员工
// 员工级约束只作用于该员工，全局约束作用于所有员工
func (c *Constraint) AppliesTo(empID uuid.UUID) bool {
	return c.EmployeeID == nil || *c.EmployeeID == empID
}

// Set 约束集合
type Set []*Constraint

// ForEmployee 返回作用于某员工的约束
func (s Set) ForEmployee(empID uuid.UUID) Set {
	var result Set
	for _, c := range s {
		if c.AppliesTo(empID) {
			result = append(result, c)
		}
	}
	return result
}

// OfKind 按变体类型过滤
func (s Set) OfKind(kind Kind) Set {
	var result Set
	for _, c := range s {
		if c.Kind == kind {
			result = append(result, c)
		}
	}
	return result
}

// Hard 返回硬约束
func (s Set) Hard() Set {
	var result Set
	for _, c := range s {
		if c.Hard() {
			result = append(result, c)
		}
	}
	return result
}

// Soft 返回软约束
func (s Set) Soft() Set {
	var result Set
	for _, c := range s {
		if !c.Hard() {
			result = append(result, c)
		}
	}
	return result
}

// MinRestHours 返回作用于某员工的最严格（最大）休息间隔要求，仅硬约束
func (s Set) MinRestHours(empID uuid.UUID) int {
	minRest := 0
	for _, c := range s {
		if c.Kind != KindRestriction || !c.Hard() || !c.AppliesTo(empID) {
			continue
		}
		if c.Restriction.MinRestHours > minRest {
			minRest = c.Restriction.MinRestHours
		}
	}
	return minRest
}

// MaxConsecutiveDays 返回作用于某员工的最严格连续工作天数限制，仅硬约束
// 0 表示不限制
func (s Set) MaxConsecutiveDays(empID uuid.UUID) int {
	maxDays := 0
	for _, c := range s {
		if c.Kind != KindRestriction || !c.Hard() || !c.AppliesTo(empID) {
			continue
		}
		d := c.Restriction.MaxConsecutiveDays
		if d > 0 && (maxDays == 0 || d < maxDays) {
			maxDays = d
		}
	}
	return maxDays
}
