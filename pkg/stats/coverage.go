// Package stats 提供排班统计分析功能
package stats

import (
	"sort"

	"github.com/google/uuid"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/model"
)

// CoverageMetrics 覆盖率指标
type CoverageMetrics struct {
	TotalShifts     int     `json:"total_shifts"`
	FilledShifts    int     `json:"filled_shifts"`    // 人数达到需求的班次数
	OverallCoverage float64 `json:"overall_coverage"` // 已分配人次 / 需求人次 (%)

	DailyCoverage map[string]DayCoverage `json:"daily_coverage"`

	// 按资质统计的覆盖率
	QualificationCoverage map[string]float64 `json:"qualification_coverage"`

	UnfilledShifts []UnfilledShift `json:"unfilled_shifts"`
}

// DayCoverage 每日覆盖情况
type DayCoverage struct {
	Date         string  `json:"date"`
	TotalShifts  int     `json:"total_shifts"`
	FilledShifts int     `json:"filled_shifts"`
	Required     int     `json:"required"` // 需求人次
	Assigned     int     `json:"assigned"` // 分配人次
	CoverageRate float64 `json:"coverage_rate"`
	TotalHours   float64 `json:"total_hours"`
}

// UnfilledShift 人员不足的班次
type UnfilledShift struct {
	ShiftID   uuid.UUID `json:"shift_id"`
	Name      string    `json:"name"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Required  int       `json:"required"`
	Assigned  int       `json:"assigned"`
	Shortage  int       `json:"shortage"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// Analyze 分析排班覆盖率
func (c *CoverageAnalyzer) Analyze(schedule *model.Schedule, shifts []*model.Shift) *CoverageMetrics {
	metrics := &CoverageMetrics{
		DailyCoverage:         make(map[string]DayCoverage),
		QualificationCoverage: make(map[string]float64),
	}
	if len(shifts) == 0 {
		metrics.OverallCoverage = 100
		return metrics
	}

	counts := make(map[uuid.UUID]int)
	for _, a := range schedule.Assignments {
		if a.Status == model.AssignmentDeclined {
			continue
		}
		counts[a.ShiftID]++
	}

	totalRequired := 0
	totalAssigned := 0
	dailyStats := make(map[string]*DayCoverage)
	qualRequired := make(map[string]int)
	qualAssigned := make(map[string]int)

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
		if assigned > shift.RequiredStaff {
			assigned = shift.RequiredStaff
		}

		metrics.TotalShifts++
		totalRequired += shift.RequiredStaff
		totalAssigned += assigned

		filled := assigned >= shift.RequiredStaff
		if filled {
			metrics.FilledShifts++
		} else {
			metrics.UnfilledShifts = append(metrics.UnfilledShifts, UnfilledShift{
				ShiftID:   shift.ID,
				Name:      shift.Name,
				Date:      shift.Date,
				StartTime: shift.StartTime,
				EndTime:   shift.EndTime,
				Required:  shift.RequiredStaff,
				Assigned:  assigned,
				Shortage:  shift.RequiredStaff - assigned,
			})
		}

		day, ok := dailyStats[shift.Date]
		if !ok {
			day = &DayCoverage{Date: shift.Date}
			dailyStats[shift.Date] = day
		}
		day.TotalShifts++
		day.Required += shift.RequiredStaff
		day.Assigned += assigned
		day.TotalHours += float64(shift.DurationMinutes()*assigned) / 60.0
		if filled {
			day.FilledShifts++
		}

		for _, q := range shift.RequiredQualifications {
			qualRequired[q] += shift.RequiredStaff
			qualAssigned[q] += assigned
		}
	}

	if totalRequired > 0 {
		metrics.OverallCoverage = float64(totalAssigned) / float64(totalRequired) * 100
	} else {
		metrics.OverallCoverage = 100
	}

	for date, day := range dailyStats {
		if day.Required > 0 {
			day.CoverageRate = float64(day.Assigned) / float64(day.Required) * 100
		} else {
			day.CoverageRate = 100
		}
		metrics.DailyCoverage[date] = *day
	}

	for q, required := range qualRequired {
		if required > 0 {
			metrics.QualificationCoverage[q] = float64(qualAssigned[q]) / float64(required) * 100
		}
	}

	return metrics
}
