// Package optimizer 提供排班优化算法
// 确定性局部搜索：不依赖随机数，相同输入与预算产出相同结果
package optimizer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/errors"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/logger"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/model"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/rules"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/scheduler/availability"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/scheduler/candidate"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/scheduler/solver"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/validator"
)

// Budget 优化预算
// 预算耗尽时返回当前最优解，永远不是错误
type Budget struct {
	MaxIterations int           `json:"max_iterations"`
	MaxTime       time.Duration `json:"max_time"`
	Workers       int           `json:"workers"` // 并行评估的工作协程数
}

// DefaultBudget 返回默认预算
func DefaultBudget() Budget {
	return Budget{
		MaxIterations: 1000,
		MaxTime:       30 * time.Second,
		Workers:       4,
	}
}

// normalized 零值字段回落到默认值
func (b Budget) normalized() Budget {
	d := DefaultBudget()
	if b.MaxIterations <= 0 {
		b.MaxIterations = d.MaxIterations
	}
	if b.MaxTime <= 0 {
		b.MaxTime = d.MaxTime
	}
	if b.Workers <= 0 {
		b.Workers = d.Workers
	}
	return b
}

// Input 优化输入
type Input struct {
	Schedule    *model.Schedule     `json:"schedule"`
	Employees   []*model.Employee   `json:"employees"`
	Shifts      []*model.Shift      `json:"shifts"`
	Constraints rules.Set           `json:"-"`
	Weights     solver.Weights      `json:"weights"`
	Existing    []*model.Assignment `json:"existing,omitempty"`
}

// Result 优化结果
type Result struct {
	Schedule   *model.Schedule   `json:"schedule"`
	Report     *validator.Report `json:"report"`
	Iterations int               `json:"iterations"`
	Improved   bool              `json:"improved"`
	Exhausted  bool              `json:"exhausted"` // 因预算或取消提前停止
}

// LocalSearchOptimizer 局部搜索优化器
// 接受准则：硬违反数不增加，且目标函数值改善；
// 目标函数持平时以更低人力成本为次级准则
type LocalSearchOptimizer struct {
	logger   *logger.SchedulerLogger
	detector *validator.Detector
}

// NewLocalSearchOptimizer 创建局部搜索优化器
func NewLocalSearchOptimizer() *LocalSearchOptimizer {
	return &LocalSearchOptimizer{
		logger:   logger.NewSchedulerLogger(),
		detector: validator.NewDetector(),
	}
}

// Optimize 优化排班
// 在副本上搜索，原排班不被修改；到达局部最优、预算耗尽或被取消时
// 返回当前最优解
func (o *LocalSearchOptimizer) Optimize(ctx context.Context, input *Input, budget Budget) (*Result, error) {
	if input.Schedule == nil {
		return nil, errors.InvalidInput("schedule", "不能为空")
	}
	if len(input.Employees) == 0 {
		return nil, errors.ErrEmptyRoster
	}

	budget = budget.normalized()
	start := time.Now()

	shiftMap := make(map[uuid.UUID]*model.Shift, len(input.Shifts))
	for _, s := range input.Shifts {
		shiftMap[s.ID] = s
	}
	rateByEmp := make(map[uuid.UUID]int, len(input.Employees))
	for _, e := range input.Employees {
		rateByEmp[e.ID] = e.HourlyRateCents
	}
	employeeIDs := candidate.SortedEmployeeIDs(input.Employees)
	scorer := solver.NewScorer(input.Constraints, input.Weights)

	// 可用性映射含外部已有分配：检测器看不到排班之外的分配，
	// 移动枚举阶段就得把会与它们重叠的目标排除掉
	avail := availability.Resolve(input.Employees, input.Shifts, input.Constraints, input.Existing)

	best := input.Schedule.Clone()
	best.State = model.StateOptimizing
	sortAssignments(best.Assignments)

	bestReport := o.detector.Detect(best, input.Employees, input.Shifts, input.Constraints)
	bestEval := evaluation{
		hard:  bestReport.HardCount(),
		score: scorer.Evaluate(best, shiftMap),
		cost:  laborCost(best, shiftMap, rateByEmp),
	}

	result := &Result{}

	for iter := 0; iter < budget.MaxIterations; iter++ {
		if ctx.Err() != nil || time.Since(start) > budget.MaxTime {
			result.Exhausted = true
			break
		}

		moves := enumerateMoves(best, employeeIDs, avail)
		if len(moves) == 0 {
			break
		}

		idx, cand, candEval := o.bestMove(ctx, best, moves, input, scorer, shiftMap, rateByEmp, budget.Workers)
		if idx < 0 || !candEval.betterThan(bestEval) {
			break // 局部最优
		}

		best = cand
		best.State = model.StateOptimizing
		bestEval = candEval
		result.Iterations = iter + 1
		result.Improved = true
		o.logger.OptimizeProgress(iter+1, bestEval.score)
	}

	bestReport = o.detector.Detect(best, input.Employees, input.Shifts, input.Constraints)
	if bestReport.HasHard() {
		best.State = model.StatePartial
	} else {
		best.State = model.StateFeasible
	}

	result.Schedule = best
	result.Report = bestReport

	o.logger.OptimizeComplete(best.ID.String(), time.Since(start), result.Iterations, bestReport.HasHard())
	return result, nil
}

// evaluation 候选解的评估值
type evaluation struct {
	hard  int
	score float64
	cost  int
}

// betterThan 接受准则
// 硬违反更少绝对优先；持平时比较目标函数值，再持平时比较人力成本
func (e evaluation) betterThan(base evaluation) bool {
	if e.hard != base.hard {
		return e.hard < base.hard
	}
	if e.score != base.score {
		return e.score > base.score
	}
	return e.cost < base.cost
}

// laborCost 计算排班的人力成本（分）
func laborCost(schedule *model.Schedule, shifts map[uuid.UUID]*model.Shift, rateByEmp map[uuid.UUID]int) int {
	total := 0
	for _, a := range schedule.Assignments {
		if a.Status == model.AssignmentDeclined {
			continue
		}
		if _, ok := shifts[a.ShiftID]; !ok {
			continue
		}
		total += rateByEmp[a.EmployeeID] * a.Minutes() / 60
	}
	return total
}
