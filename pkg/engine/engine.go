// Package engine 排班核心的统一入口
// 对外暴露 generate / optimize / validate 三个操作，把规则规范化、
// 求解、冲突检测与统计分析串成完整流程
package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/errors"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/model"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/rules"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/scheduler/optimizer"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/scheduler/solver"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/stats"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/validator"
)

// Engine 排班引擎
// 无内部状态，可被多请求并发使用；每次调用的排班数据互不共享
type Engine struct {
	solver    *solver.GreedySolver
	optimizer *optimizer.LocalSearchOptimizer
	detector  *validator.Detector
	fairness  *stats.FairnessAnalyzer
	coverage  *stats.CoverageAnalyzer
}

// New 创建排班引擎
func New() *Engine {
	return &Engine{
		solver:    solver.NewGreedySolver(),
		optimizer: optimizer.NewLocalSearchOptimizer(),
		detector:  validator.NewDetector(),
		fairness:  stats.NewFairnessAnalyzer(),
		coverage:  stats.NewCoverageAnalyzer(),
	}
}

// GenerateRequest 排班生成请求
type GenerateRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	Employees []*model.Employee   `json:"employees"`
	Shifts    []*model.Shift      `json:"shifts"`
	Rules     []rules.RawRecord   `json:"rules"`
	Existing  []*model.Assignment `json:"existing,omitempty"`

	Weights solver.Weights `json:"weights"`
}

// GenerateResult 排班生成结果
type GenerateResult struct {
	Schedule *model.Schedule       `json:"schedule"`
	Report   *validator.Report     `json:"report"`
	Fairness *stats.FairnessMetrics `json:"fairness"`
	Coverage *stats.CoverageMetrics `json:"coverage"`
}

// Generate 生成排班
// 规则格式错误与无效输入作为错误返回；
// 人员缺口等可行性问题进入冲突报告，排班以 partial 状态返回
func (e *Engine) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	constraints, err := rules.Normalize(req.Rules)
	if err != nil {
		return nil, err
	}

	schedule, report, err := e.solver.Solve(ctx, &solver.Input{
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Employees:   req.Employees,
		Shifts:      req.Shifts,
		Constraints: constraints,
		Existing:    req.Existing,
		Weights:     req.Weights,
	})
	if err != nil {
		return nil, err
	}

	return e.buildResult(schedule, report, req.Employees, req.Shifts, constraints), nil
}

// OptimizeRequest 排班优化请求
type OptimizeRequest struct {
	Schedule *model.Schedule `json:"schedule"`

	Employees []*model.Employee   `json:"employees"`
	Shifts    []*model.Shift      `json:"shifts"`
	Rules     []rules.RawRecord   `json:"rules"`
	Existing  []*model.Assignment `json:"existing,omitempty"`

	Weights solver.Weights   `json:"weights"`
	Budget  optimizer.Budget `json:"budget"`
}

// OptimizeResult 排班优化结果
type OptimizeResult struct {
	GenerateResult
	Iterations int  `json:"iterations"`
	Improved   bool `json:"improved"`
	Exhausted  bool `json:"exhausted"`
}

// Optimize 优化既有排班
// 在副本上搜索，传入的排班不被修改；预算耗尽或被取消时返回当前最优解
func (e *Engine) Optimize(ctx context.Context, req *OptimizeRequest) (*OptimizeResult, error) {
	constraints, err := rules.Normalize(req.Rules)
	if err != nil {
		return nil, err
	}

	res, err := e.optimizer.Optimize(ctx, &optimizer.Input{
		Schedule:    req.Schedule,
		Employees:   req.Employees,
		Shifts:      req.Shifts,
		Constraints: constraints,
		Weights:     req.Weights,
		Existing:    req.Existing,
	}, req.Budget)
	if err != nil {
		return nil, err
	}

	return &OptimizeResult{
		GenerateResult: *e.buildResult(res.Schedule, res.Report, req.Employees, req.Shifts, constraints),
		Iterations:     res.Iterations,
		Improved:       res.Improved,
		Exhausted:      res.Exhausted,
	}, nil
}

// ValidateRequest 排班校验请求
type ValidateRequest struct {
	Schedule  *model.Schedule   `json:"schedule"`
	Employees []*model.Employee `json:"employees"`
	Shifts    []*model.Shift    `json:"shifts"`
	Rules     []rules.RawRecord `json:"rules"`
}

// Validate 校验排班（含人工编辑过的）
// 只读检测，返回完整冲突报告
func (e *Engine) Validate(req *ValidateRequest) (*validator.Report, error) {
	if req.Schedule == nil {
		return nil, errors.InvalidInput("schedule", "不能为空")
	}

	constraints, err := rules.Normalize(req.Rules)
	if err != nil {
		return nil, err
	}

	return e.detector.Detect(req.Schedule, req.Employees, req.Shifts, constraints), nil
}

// buildResult 汇总统计并补全排班的公平性与偏好得分
func (e *Engine) buildResult(schedule *model.Schedule, report *validator.Report, employees []*model.Employee, shifts []*model.Shift, constraints rules.Set) *GenerateResult {
	shiftMap := make(map[uuid.UUID]*model.Shift, len(shifts))
	for _, s := range shifts {
		shiftMap[s.ID] = s
	}

	fairness := e.fairness.Analyze(schedule, employees)
	coverage := e.coverage.Analyze(schedule, shifts)

	if schedule.Statistics == nil {
		schedule.Statistics = &model.ScheduleStats{}
	}
	schedule.Statistics.FairnessScore = fairness.OverallFairnessScore
	schedule.Statistics.PreferenceScore = stats.PreferenceSatisfaction(schedule, shiftMap, constraints)
	schedule.Statistics.UnfilledShifts = len(coverage.UnfilledShifts)

	return &GenerateResult{
		Schedule: schedule,
		Report:   report,
		Fairness: fairness,
		Coverage: coverage,
	}
}
