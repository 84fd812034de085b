// Package solver 提供排班求解器
package solver

import (
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/model"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/rules"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/scheduler/availability"
)

// Weights 评分权重配置
type Weights struct {
	// Preference 软约束单位优先级的得分系数
	Preference float64 `json:"preference"`
	// Fairness 每小时工时偏差的惩罚系数
	Fairness float64 `json:"fairness"`
}

// DefaultWeights 返回默认权重
func DefaultWeights() Weights {
	return Weights{Preference: 1.0, Fairness: 1.0}
}

// normalized 零值权重回落到默认值
func (w Weights) normalized() Weights {
	d := DefaultWeights()
	if w.Preference == 0 {
		w.Preference = d.Preference
	}
	if w.Fairness == 0 {
		w.Fairness = d.Fairness
	}
	return w
}

// Scorer 候选分配评分器
// 软约束（优先级 1-4）在这里折算为得分；硬约束不参与，候选生成已过滤
type Scorer struct {
	constraints rules.Set
	weights     Weights

	// 按员工缓存软约束，评分在内层循环；优化器会并发评分
	mu        sync.RWMutex
	softByEmp map[uuid.UUID]rules.Set
}

// NewScorer 创建评分器
func NewScorer(constraints rules.Set, weights Weights) *Scorer {
	return &Scorer{
		constraints: constraints,
		weights:     weights.normalized(),
		softByEmp:   make(map[uuid.UUID]rules.Set),
	}
}

// Candidate 计算候选分配的综合得分
// 软约束得分减去公平性惩罚；mean 为当前候选集的平均累计工时（分钟）
func (s *Scorer) Candidate(empID uuid.UUID, shift *model.Shift, accruedMinutes int, mean float64) float64 {
	soft := s.SoftScore(empID, shift) + s.minMinutesBonus(empID, accruedMinutes)
	fairness := s.weights.Fairness * (float64(accruedMinutes) - mean) / 60.0
	return soft - fairness
}

// minMinutesBonus 软性周最低工时要求：未达标的员工优先获得分配
func (s *Scorer) minMinutesBonus(empID uuid.UUID, accruedMinutes int) float64 {
	bonus := 0.0
	for _, c := range s.softFor(empID) {
		if c.Kind != rules.KindRequirement || c.Requirement.MinMinutesPerWeek == 0 {
			continue
		}
		if accruedMinutes < c.Requirement.MinMinutesPerWeek {
			bonus += s.weights.Preference * float64(c.Weight())
		}
	}
	return bonus
}

// SoftScore 计算单个 (员工, 班次) 的软约束得分
// 满足偏好 / 要求加分，违反软约束减分，幅度与声明的优先级成正比
func (s *Scorer) SoftScore(empID uuid.UUID, shift *model.Shift) float64 {
	score := 0.0
	day := shift.Weekday()

	for _, c := range s.softFor(empID) {
		w := s.weights.Preference * float64(c.Weight())

		switch c.Kind {
		case rules.KindPreference:
			p := c.Preference
			for _, d := range p.PreferredWeekdays {
				if d == day {
					score += w
				}
			}
			for _, d := range p.AvoidWeekdays {
				if d == day {
					score -= w
				}
			}
			if p.PreferredClock != nil {
				if p.PreferredClock.Covers(shift.StartTime, shift.EndTime) {
					score += w
				} else {
					score -= w
				}
			}

		case rules.KindRequirement:
			for _, d := range c.Requirement.RequiredWeekdays {
				if d == day {
					score += w
				}
			}

		case rules.KindAvailability, rules.KindRestriction:
			// 软的可用性/限制约束与硬过滤共用同一谓词，命中即扣分
			if availability.Blocks(c, shift) {
				score -= w
			}
		}
	}

	return score
}

// softFor 返回作用于某员工的软约束（带缓存）
func (s *Scorer) softFor(empID uuid.UUID) rules.Set {
	s.mu.RLock()
	cached, ok := s.softByEmp[empID]
	s.mu.RUnlock()
	if ok {
		return cached
	}

	soft := s.constraints.ForEmployee(empID).Soft()
	s.mu.Lock()
	s.softByEmp[empID] = soft
	s.mu.Unlock()
	return soft
}

// Evaluate 计算整个排班的目标函数值（优化器的比较基准）
// 逐分配软约束得分之和，减去员工工时的平均绝对偏差（小时）乘以公平性系数
func (s *Scorer) Evaluate(schedule *model.Schedule, shifts map[uuid.UUID]*model.Shift) float64 {
	total := 0.0
	minutes := make(map[uuid.UUID]int)

	for _, a := range schedule.Assignments {
		if a.Status == model.AssignmentDeclined {
			continue
		}
		shift, ok := shifts[a.ShiftID]
		if !ok {
			continue
		}
		total += s.SoftScore(a.EmployeeID, shift)
		minutes[a.EmployeeID] += a.Minutes()
	}

	// 软性周最低工时缺口按小时计入惩罚，推动优化器补齐
	for _, c := range s.constraints.Soft() {
		if c.Kind != rules.KindRequirement || c.Requirement.MinMinutesPerWeek == 0 || c.EmployeeID == nil {
			continue
		}
		if short := c.Requirement.MinMinutesPerWeek - minutes[*c.EmployeeID]; short > 0 {
			total -= s.weights.Preference * float64(c.Weight()) * float64(short) / 60.0
		}
	}

	if len(minutes) > 1 {
		sum := 0
		for _, m := range minutes {
			sum += m
		}
		mean := float64(sum) / float64(len(minutes))

		deviation := 0.0
		for _, m := range minutes {
			deviation += math.Abs(float64(m) - mean)
		}
		deviation /= float64(len(minutes))

		total -= s.weights.Fairness * deviation / 60.0
	}

	return total
}
