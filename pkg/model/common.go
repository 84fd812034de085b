// Package model 定义排班核心的数据模型
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DateLayout 日期格式
const DateLayout = "2006-01-02"

// ClockLayout 时刻格式
const ClockLayout = "15:04"

// BaseModel 基础模型（包含通用字段）
type BaseModel struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// NewBaseModel 创建新的基础模型
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TimeRange 时间范围
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration 返回时间范围的持续时间
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// Minutes 返回时间范围的分钟数
func (tr TimeRange) Minutes() int {
	return int(tr.End.Sub(tr.Start) / time.Minute)
}

// Overlaps 检查两个时间范围是否重叠
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.Start.Before(other.End) && other.Start.Before(tr.End)
}

// Contains 检查时间范围是否包含某个时间点
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.Start) && t.Before(tr.End)
}

// DateRange 日期范围
type DateRange struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

// Validate 检查日期范围是否合法
func (dr DateRange) Validate() error {
	start, err := time.Parse(DateLayout, dr.StartDate)
	if err != nil {
		return fmt.Errorf("起始日期无效: %s", dr.StartDate)
	}
	end, err := time.Parse(DateLayout, dr.EndDate)
	if err != nil {
		return fmt.Errorf("结束日期无效: %s", dr.EndDate)
	}
	if end.Before(start) {
		return fmt.Errorf("结束日期早于起始日期: %s ~ %s", dr.StartDate, dr.EndDate)
	}
	return nil
}

// Days 返回日期范围包含的天数
func (dr DateRange) Days() int {
	start, err1 := time.Parse(DateLayout, dr.StartDate)
	end, err2 := time.Parse(DateLayout, dr.EndDate)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// ClockRange 一天内的时刻范围（HH:MM，左闭右开）
type ClockRange struct {
	Start string `json:"start"` // HH:MM
	End   string `json:"end"`   // HH:MM
}

// Covers 检查时刻范围是否完整覆盖 [start, end)
func (cr ClockRange) Covers(start, end string) bool {
	s, err1 := ClockMinutes(cr.Start)
	e, err2 := ClockMinutes(cr.End)
	ts, err3 := ClockMinutes(start)
	te, err4 := ClockMinutes(end)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return false
	}
	// 跨日时刻范围（如 22:00-06:00）按到次日处理
	if e <= s {
		e += 24 * 60
	}
	if te <= ts {
		te += 24 * 60
	}
	return s <= ts && te <= e
}

// ClockMinutes 将 HH:MM 时刻转换为当日分钟数
func ClockMinutes(clock string) (int, error) {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return 0, fmt.Errorf("时刻格式无效: %s", clock)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ClockOnDate 在指定日期解析 HH:MM 时刻
func ClockOnDate(date time.Time, clock string) time.Time {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return date
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location())
}

// WeeklyPattern 每周基础可用性模式：星期 -> 可用时刻范围列表
type WeeklyPattern map[time.Weekday][]ClockRange

// Covers 检查某星期的 [start, end) 是否落在可用范围内
// 空模式视为全时段可用
func (p WeeklyPattern) Covers(day time.Weekday, start, end string) bool {
	if len(p) == 0 {
		return true
	}
	ranges, ok := p[day]
	if !ok {
		return false
	}
	for _, r := range ranges {
		if r.Covers(start, end) {
			return true
		}
	}
	return false
}
