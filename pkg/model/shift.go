// Package model 定义排班核心的数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// Shift 班次
// 由外部班次目录拥有，排班核心只读
type Shift struct {
	BaseModel
	Name      string `json:"name" db:"name"`
	Date      string `json:"date" db:"date"`             // YYYY-MM-DD
	StartTime string `json:"start_time" db:"start_time"` // HH:MM
	EndTime   string `json:"end_time" db:"end_time"`     // HH:MM

	RequiredStaff          int      `json:"required_staff" db:"required_staff"`
	RequiredQualifications []string `json:"required_qualifications,omitempty" db:"required_qualifications"`
}

// TimeRange 返回班次的具体起止时间，跨日班次顺延到次日
func (s *Shift) TimeRange() TimeRange {
	date, err := time.Parse(DateLayout, s.Date)
	if err != nil {
		return TimeRange{}
	}
	start := ClockOnDate(date, s.StartTime)
	end := ClockOnDate(date, s.EndTime)
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}
	return TimeRange{Start: start, End: end}
}

// DurationMinutes 返回班次时长（分钟）
func (s *Shift) DurationMinutes() int {
	return s.TimeRange().Minutes()
}

// Weekday 返回班次日期对应的星期
func (s *Shift) Weekday() time.Weekday {
	date, err := time.Parse(DateLayout, s.Date)
	if err != nil {
		return time.Sunday
	}
	return date.Weekday()
}

// AssignmentStatus 分配状态
type AssignmentStatus string

const (
	AssignmentAssigned  AssignmentStatus = "assigned"  // 已分配
	AssignmentConfirmed AssignmentStatus = "confirmed" // 已确认
	AssignmentDeclined  AssignmentStatus = "declined"  // 已拒绝
)

// Assignment 排班分配
// 不变式：同一 (employee, shift) 至多一条；同一员工的分配时间互不重叠
type Assignment struct {
	BaseModel
	ScheduleID uuid.UUID `json:"schedule_id" db:"schedule_id"`
	EmployeeID uuid.UUID `json:"employee_id" db:"employee_id"`
	ShiftID    uuid.UUID `json:"shift_id" db:"shift_id"`

	Date      string    `json:"date" db:"date"`
	StartTime time.Time `json:"start_time" db:"start_time"`
	EndTime   time.Time `json:"end_time" db:"end_time"`

	Status       AssignmentStatus `json:"status" db:"status"`
	AutoAssigned bool             `json:"auto_assigned" db:"auto_assigned"` // 求解器产出 / 人工编辑
}

// Minutes 返回分配的工时（分钟）
func (a *Assignment) Minutes() int {
	return int(a.EndTime.Sub(a.StartTime) / time.Minute)
}

// Overlaps 检查两个分配的时间是否重叠
func (a *Assignment) Overlaps(other *Assignment) bool {
	return a.StartTime.Before(other.EndTime) && other.StartTime.Before(a.EndTime)
}

// ScheduleStatus 排班计划状态
type ScheduleStatus string

const (
	ScheduleDraft     ScheduleStatus = "draft"     // 草稿
	SchedulePublished ScheduleStatus = "published" // 已发布
)

// SolveState 求解状态机：empty -> solving -> {feasible, partial} -> optimizing -> {feasible, partial}
type SolveState string

const (
	StateEmpty      SolveState = "empty"
	StateSolving    SolveState = "solving"
	StateFeasible   SolveState = "feasible"
	StatePartial    SolveState = "partial" // 存在硬冲突（如人员缺口）
	StateOptimizing SolveState = "optimizing"
)

// Schedule 排班计划
type Schedule struct {
	BaseModel
	StartDate string         `json:"start_date" db:"start_date"`
	EndDate   string         `json:"end_date" db:"end_date"`
	Status    ScheduleStatus `json:"status" db:"status"`
	State     SolveState     `json:"state" db:"state"`
	CreatedBy *uuid.UUID     `json:"created_by,omitempty" db:"created_by"`

	Assignments []*Assignment  `json:"assignments,omitempty" db:"-"`
	Statistics  *ScheduleStats `json:"statistics,omitempty" db:"-"`
}

// NewSchedule 创建空的排班计划
func NewSchedule(startDate, endDate string) *Schedule {
	return &Schedule{
		BaseModel: NewBaseModel(),
		StartDate: startDate,
		EndDate:   endDate,
		Status:    ScheduleDraft,
		State:     StateEmpty,
	}
}

// Range 返回排班计划的日期范围
func (s *Schedule) Range() DateRange {
	return DateRange{StartDate: s.StartDate, EndDate: s.EndDate}
}

// Clone 深拷贝排班计划（优化器在副本上搜索）
func (s *Schedule) Clone() *Schedule {
	clone := *s
	clone.Assignments = make([]*Assignment, len(s.Assignments))
	for i, a := range s.Assignments {
		copied := *a
		clone.Assignments[i] = &copied
	}
	if s.Statistics != nil {
		stats := *s.Statistics
		clone.Statistics = &stats
	}
	return &clone
}

// AssignmentsOf 返回某员工的所有分配
func (s *Schedule) AssignmentsOf(empID uuid.UUID) []*Assignment {
	var result []*Assignment
	for _, a := range s.Assignments {
		if a.EmployeeID == empID {
			result = append(result, a)
		}
	}
	return result
}

// ScheduleStats 排班统计
type ScheduleStats struct {
	TotalAssignments int     `json:"total_assignments"`
	TotalEmployees   int     `json:"total_employees"`
	TotalMinutes     int     `json:"total_minutes"`
	LaborCostCents   int     `json:"labor_cost_cents"`
	UnfilledShifts   int     `json:"unfilled_shifts"`
	FairnessScore    float64 `json:"fairness_score"`   // 公平性得分
	PreferenceScore  float64 `json:"preference_score"` // 偏好满足率
}
