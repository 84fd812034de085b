// Package stats 提供排班统计分析功能
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/model"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/rules"
)

// FairnessMetrics 公平性指标
type FairnessMetrics struct {
	// 工时公平性
	WorkloadGini        float64 `json:"workload_gini"`     // 工时基尼系数 (0=完全公平, 1=完全不公平)
	WorkloadVariance    float64 `json:"workload_variance"` // 工时方差（小时²）
	WorkloadStdDev      float64 `json:"workload_std_dev"`  // 工时标准差（小时）
	AvgHoursPerEmployee float64 `json:"avg_hours_per_employee"`
	MaxHours            float64 `json:"max_hours"`
	MinHours            float64 `json:"min_hours"`

	// 班次类型公平性
	NightShiftGini   float64 `json:"night_shift_gini"`   // 夜班分配基尼系数
	WeekendShiftGini float64 `json:"weekend_shift_gini"` // 周末班分配基尼系数

	EmployeeStats []EmployeeStat `json:"employee_stats"`

	// 综合评分 (0-100)
	OverallFairnessScore float64 `json:"overall_fairness_score"`
}

// EmployeeStat 单个员工的工作量统计
type EmployeeStat struct {
	EmployeeID    uuid.UUID `json:"employee_id"`
	EmployeeName  string    `json:"employee_name"`
	TotalHours    float64   `json:"total_hours"`
	ShiftCount    int       `json:"shift_count"`
	NightShifts   int       `json:"night_shifts"`
	WeekendShifts int       `json:"weekend_shifts"`
	Deviation     float64   `json:"deviation"` // 与人均工时的偏差百分比
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct {
	nightShiftStart int // 夜班判定：开始小时
	nightShiftEnd   int // 夜班判定：结束小时
}

// NewFairnessAnalyzer 创建公平性分析器
func NewFairnessAnalyzer() *FairnessAnalyzer {
	return &FairnessAnalyzer{
		nightShiftStart: 22,
		nightShiftEnd:   6,
	}
}

// Analyze 分析排班的工时公平性
// 只统计未被拒绝的分配；没有分配时返回满分
func (f *FairnessAnalyzer) Analyze(schedule *model.Schedule, employees []*model.Employee) *FairnessMetrics {
	statMap := make(map[uuid.UUID]*EmployeeStat)
	nameByID := make(map[uuid.UUID]string, len(employees))
	for _, e := range employees {
		nameByID[e.ID] = e.Name
	}

	for _, a := range schedule.Assignments {
		if a.Status == model.AssignmentDeclined {
			continue
		}
		stat, ok := statMap[a.EmployeeID]
		if !ok {
			stat = &EmployeeStat{
				EmployeeID:   a.EmployeeID,
				EmployeeName: nameByID[a.EmployeeID],
			}
			statMap[a.EmployeeID] = stat
		}

		stat.TotalHours += a.EndTime.Sub(a.StartTime).Hours()
		stat.ShiftCount++
		if f.isNightShift(a.StartTime, a.EndTime) {
			stat.NightShifts++
		}
		if isWeekend(a.Date) {
			stat.WeekendShifts++
		}
	}

	if len(statMap) == 0 {
		return &FairnessMetrics{OverallFairnessScore: 100}
	}

	employeeStats := make([]EmployeeStat, 0, len(statMap))
	for _, stat := range statMap {
		employeeStats = append(employeeStats, *stat)
	}
	sort.Slice(employeeStats, func(i, j int) bool {
		if employeeStats[i].TotalHours != employeeStats[j].TotalHours {
			return employeeStats[i].TotalHours > employeeStats[j].TotalHours
		}
		return employeeStats[i].EmployeeID.String() < employeeStats[j].EmployeeID.String()
	})

	hours := make([]float64, len(employeeStats))
	nightShifts := make([]float64, len(employeeStats))
	weekendShifts := make([]float64, len(employeeStats))
	for i, stat := range employeeStats {
		hours[i] = stat.TotalHours
		nightShifts[i] = float64(stat.NightShifts)
		weekendShifts[i] = float64(stat.WeekendShifts)
	}

	avgHours := mean(hours)
	wvariance := variance(hours, avgHours)
	stdDev := math.Sqrt(wvariance)
	maxHours, minHours := valueRange(hours)

	for i := range employeeStats {
		if avgHours > 0 {
			employeeStats[i].Deviation = (employeeStats[i].TotalHours - avgHours) / avgHours * 100
		}
	}

	workloadGini := gini(hours)
	nightGini := gini(nightShifts)
	weekendGini := gini(weekendShifts)

	return &FairnessMetrics{
		WorkloadGini:         workloadGini,
		WorkloadVariance:     wvariance,
		WorkloadStdDev:       stdDev,
		AvgHoursPerEmployee:  avgHours,
		MaxHours:             maxHours,
		MinHours:             minHours,
		NightShiftGini:       nightGini,
		WeekendShiftGini:     weekendGini,
		EmployeeStats:        employeeStats,
		OverallFairnessScore: overallScore(workloadGini, nightGini, weekendGini, stdDev, avgHours),
	}
}

// PreferenceSatisfaction 计算软偏好满足率 (0-100)
// 对每条作用于某分配的软偏好约束判定满足与否，按声明权重加权
func PreferenceSatisfaction(schedule *model.Schedule, shifts map[uuid.UUID]*model.Shift, constraints rules.Set) float64 {
	satisfied := 0
	total := 0

	for _, a := range schedule.Assignments {
		if a.Status == model.AssignmentDeclined {
			continue
		}
		shift, ok := shifts[a.ShiftID]
		if !ok {
			continue
		}
		day := shift.Weekday()

		for _, c := range constraints.ForEmployee(a.EmployeeID).Soft().OfKind(rules.KindPreference) {
			p := c.Preference
			w := c.Weight()

			for _, d := range p.PreferredWeekdays {
				total += w
				if d == day {
					satisfied += w
				}
			}
			for _, d := range p.AvoidWeekdays {
				total += w
				if d != day {
					satisfied += w
				}
			}
			if p.PreferredClock != nil {
				total += w
				if p.PreferredClock.Covers(shift.StartTime, shift.EndTime) {
					satisfied += w
				}
			}
		}
	}

	if total == 0 {
		return 100
	}
	return float64(satisfied) / float64(total) * 100
}

// isNightShift 判断是否夜班
func (f *FairnessAnalyzer) isNightShift(start, end time.Time) bool {
	return start.Hour() >= f.nightShiftStart || end.Hour() <= f.nightShiftEnd
}

// isWeekend 判断是否周末
func isWeekend(dateStr string) bool {
	date, err := time.Parse(model.DateLayout, dateStr)
	if err != nil {
		return false
	}
	weekday := date.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// mean 平均值
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// variance 方差
func variance(values []float64, avg float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - avg
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

// valueRange 最大值与最小值
func valueRange(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

// gini 基尼系数
func gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	g := 0.0
	for i, v := range sorted {
		g += (2*float64(i+1) - float64(n) - 1) * v
	}
	g = g / (float64(n) * sum)
	return math.Max(0, math.Min(1, g))
}

// overallScore 综合公平性评分
func overallScore(workloadGini, nightGini, weekendGini, stdDev, avgHours float64) float64 {
	const (
		workloadWeight = 0.4
		nightWeight    = 0.25
		weekendWeight  = 0.25
		stdDevWeight   = 0.1
	)

	workloadScore := (1 - workloadGini) * 100
	nightScore := (1 - nightGini) * 100
	weekendScore := (1 - weekendGini) * 100

	cvScore := 100.0
	if avgHours > 0 {
		cv := stdDev / avgHours
		cvScore = math.Max(0, 100-cv*200)
	}

	score := workloadWeight*workloadScore +
		nightWeight*nightScore +
		weekendWeight*weekendScore +
		stdDevWeight*cvScore

	return math.Max(0, math.Min(100, score))
}
