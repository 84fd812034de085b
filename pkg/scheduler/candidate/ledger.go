// Package candidate 提供班次候选员工生成
package candidate

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/model"
)

// Ledger 求解过程中的员工工作量台账
// 显式累加器：随求解循环传递，而不是在共享的 Employee 对象上累加字段
type Ledger struct {
	minutes   map[uuid.UUID]int
	spans     map[uuid.UUID][]model.TimeRange
	workDates map[uuid.UUID]map[string]bool
}

// NewLedger 创建空台账
func NewLedger() *Ledger {
	return &Ledger{
		minutes:   make(map[uuid.UUID]int),
		spans:     make(map[uuid.UUID][]model.TimeRange),
		workDates: make(map[uuid.UUID]map[string]bool),
	}
}

// LedgerFromSchedule 从已有排班重建台账（优化器使用）
func LedgerFromSchedule(schedule *model.Schedule, shifts map[uuid.UUID]*model.Shift) *Ledger {
	l := NewLedger()
	for _, a := range schedule.Assignments {
		if a.Status == model.AssignmentDeclined {
			continue
		}
		if shift, ok := shifts[a.ShiftID]; ok {
			l.Record(a.EmployeeID, shift)
		}
	}
	return l
}

// Record 记入一次分配
func (l *Ledger) Record(empID uuid.UUID, shift *model.Shift) {
	tr := shift.TimeRange()
	l.minutes[empID] += tr.Minutes()
	l.spans[empID] = append(l.spans[empID], tr)
	if l.workDates[empID] == nil {
		l.workDates[empID] = make(map[string]bool)
	}
	l.workDates[empID][shift.Date] = true
}

// Minutes 返回员工已累计的工时（分钟）
func (l *Ledger) Minutes(empID uuid.UUID) int {
	return l.minutes[empID]
}

// Overlaps 检查时间范围是否与员工已有分配重叠
func (l *Ledger) Overlaps(empID uuid.UUID, tr model.TimeRange) bool {
	for _, span := range l.spans[empID] {
		if span.Overlaps(tr) {
			return true
		}
	}
	return false
}

// RestViolated 检查时间范围与紧邻分配的间隔是否小于最小休息时间
func (l *Ledger) RestViolated(empID uuid.UUID, tr model.TimeRange, minRestHours int) bool {
	if minRestHours <= 0 {
		return false
	}
	minRest := time.Duration(minRestHours) * time.Hour
	for _, span := range l.spans[empID] {
		var gap time.Duration
		switch {
		case !span.End.After(tr.Start):
			gap = tr.Start.Sub(span.End)
		case !tr.End.After(span.Start):
			gap = span.Start.Sub(tr.End)
		default:
			return true // 重叠
		}
		if gap < minRest {
			return true
		}
	}
	return false
}

// ConsecutiveDays 返回在 date 当天工作会形成的最大连续工作天数
// 当天已有分配时结果与现状相同，向前后两侧延伸统计
func (l *Ledger) ConsecutiveDays(empID uuid.UUID, date string) int {
	dates := l.workDates[empID]

	count := 1
	current := previousDate(date)
	for dates[current] {
		count++
		current = previousDate(current)
		if count > 60 {
			break
		}
	}
	current = nextDate(date)
	for dates[current] {
		count++
		current = nextDate(current)
		if count > 60 {
			break
		}
	}
	return count
}

// MeanMinutes 返回一组员工的平均累计工时（分钟）
func (l *Ledger) MeanMinutes(empIDs []uuid.UUID) float64 {
	if len(empIDs) == 0 {
		return 0
	}
	total := 0
	for _, id := range empIDs {
		total += l.minutes[id]
	}
	return float64(total) / float64(len(empIDs))
}

// Clone 深拷贝台账（优化器评估候选移动时使用）
func (l *Ledger) Clone() *Ledger {
	clone := NewLedger()
	for id, m := range l.minutes {
		clone.minutes[id] = m
	}
	for id, spans := range l.spans {
		copied := make([]model.TimeRange, len(spans))
		copy(copied, spans)
		clone.spans[id] = copied
	}
	for id, dates := range l.workDates {
		copied := make(map[string]bool, len(dates))
		for d := range dates {
			copied[d] = true
		}
		clone.workDates[id] = copied
	}
	return clone
}

// SortedEmployeeIDs 返回确定性排序的员工 ID 列表
func SortedEmployeeIDs(employees []*model.Employee) []uuid.UUID {
	ids := make([]uuid.UUID, len(employees))
	for i, e := range employees {
		ids[i] = e.ID
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}

// previousDate 获取前一天日期
func previousDate(date string) string {
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(model.DateLayout)
}

// nextDate 获取后一天日期
func nextDate(date string) string {
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, 1).Format(model.DateLayout)
}
