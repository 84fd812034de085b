// Package model 定义排班核心的数据模型
package model

// Employee 员工
// 由外部员工目录拥有，排班核心只读
type Employee struct {
	BaseModel
	Name   string `json:"name" db:"name"`
	Code   string `json:"code" db:"code"`
	Email  string `json:"email,omitempty" db:"email"`
	Status string `json:"status" db:"status"` // active/inactive/leave

	// 排班相关
	Qualifications    []string `json:"qualifications" db:"qualifications"`
	HourlyRateCents   int      `json:"hourly_rate_cents" db:"hourly_rate_cents"`
	MaxMinutesPerWeek int      `json:"max_minutes_per_week" db:"max_minutes_per_week"`

	// 每周基础可用性模式
	Availability WeeklyPattern `json:"availability,omitempty" db:"availability"`
}

// IsActive 检查员工是否在职
func (e *Employee) IsActive() bool {
	return e.Status == "active"
}

// HasQualification 检查员工是否具备某资质
func (e *Employee) HasQualification(q string) bool {
	for _, have := range e.Qualifications {
		if have == q {
			return true
		}
	}
	return false
}

// HasAllQualifications 检查员工是否具备全部资质
func (e *Employee) HasAllQualifications(required []string) bool {
	for _, q := range required {
		if !e.HasQualification(q) {
			return false
		}
	}
	return true
}

// MaxMinutesProrated 按日期范围折算的最大工时（分钟）
// 周上限按 range 天数 / 7 等比放大，不足一周按一周计
func (e *Employee) MaxMinutesProrated(dr DateRange) int {
	if e.MaxMinutesPerWeek <= 0 {
		return 0 // 无上限
	}
	days := dr.Days()
	if days <= 7 {
		return e.MaxMinutesPerWeek
	}
	return e.MaxMinutesPerWeek * days / 7
}
