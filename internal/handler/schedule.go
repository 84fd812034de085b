// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/TingTung93/AI-Schedule-Manager-sub013/internal/config"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/internal/metrics"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/engine"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/errors"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/model"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/scheduler/optimizer"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/scheduler/solver"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/validator"
)

// ScheduleHandler 排班处理器
type ScheduleHandler struct {
	engine *engine.Engine
	cfg    *config.SchedulerConfig
}

// NewScheduleHandler 创建排班处理器
func NewScheduleHandler(cfg *config.SchedulerConfig) *ScheduleHandler {
	return &ScheduleHandler{
		engine: engine.New(),
		cfg:    cfg,
	}
}

// Options 请求级选项
type Options struct {
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
	MaxIterations  int `json:"max_iterations,omitempty"`
}

// GenerateRequest 排班生成请求
type GenerateRequest struct {
	engine.GenerateRequest
	Options *Options `json:"options,omitempty"`
}

// GenerateResponse 排班生成响应
type GenerateResponse struct {
	Schedule *model.Schedule   `json:"schedule"`
	Report   *validator.Report `json:"report"`
	Partial  bool              `json:"partial"`
	Fairness interface{}       `json:"fairness,omitempty"`
	Coverage interface{}       `json:"coverage,omitempty"`
	Duration string            `json:"duration"`
}

// Generate 生成排班
func (h *ScheduleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	if appErr := validateGenerateRequest(&req); appErr != nil {
		respondError(w, appErr)
		return
	}

	if req.Weights == (solver.Weights{}) {
		req.Weights = h.defaultWeights()
	}

	ctx, cancel := h.solveContext(r.Context(), req.Options)
	defer cancel()

	start := time.Now()
	result, err := h.engine.Generate(ctx, &req.GenerateRequest)
	if err != nil {
		respondAppError(w, err)
		return
	}
	elapsed := time.Since(start)

	metrics.RecordGeneration("generate", result.Report.HardCount(), elapsed)
	metrics.SetFairnessScore(result.Fairness.OverallFairnessScore)
	metrics.SetCoverageRate(result.Coverage.OverallCoverage)

	respondJSON(w, http.StatusOK, GenerateResponse{
		Schedule: result.Schedule,
		Report:   result.Report,
		Partial:  result.Schedule.State == model.StatePartial,
		Fairness: result.Fairness,
		Coverage: result.Coverage,
		Duration: elapsed.String(),
	})
}

// OptimizeRequest 排班优化请求
type OptimizeRequest struct {
	engine.OptimizeRequest
	Options *Options `json:"options,omitempty"`
}

// OptimizeResponse 排班优化响应
type OptimizeResponse struct {
	GenerateResponse
	Iterations int  `json:"iterations"`
	Improved   bool `json:"improved"`
	Exhausted  bool `json:"exhausted"`
}

// Optimize 优化既有排班
func (h *ScheduleHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	if req.Schedule == nil {
		respondError(w, errors.InvalidInput("schedule", "不能为空"))
		return
	}

	if req.Weights == (solver.Weights{}) {
		req.Weights = h.defaultWeights()
	}
	if req.Budget == (optimizer.Budget{}) {
		req.Budget = optimizer.Budget{
			MaxIterations: h.cfg.MaxIterations,
			MaxTime:       h.cfg.OptimizeTimeout,
			Workers:       h.cfg.Workers,
		}
	}
	if req.Options != nil && req.Options.MaxIterations > 0 {
		req.Budget.MaxIterations = req.Options.MaxIterations
	}

	ctx, cancel := h.solveContext(r.Context(), req.Options)
	defer cancel()

	start := time.Now()
	result, err := h.engine.Optimize(ctx, &req.OptimizeRequest)
	if err != nil {
		respondAppError(w, err)
		return
	}
	elapsed := time.Since(start)

	metrics.RecordGeneration("optimize", result.Report.HardCount(), elapsed)
	metrics.RecordOptimizeIterations(result.Iterations)

	respondJSON(w, http.StatusOK, OptimizeResponse{
		GenerateResponse: GenerateResponse{
			Schedule: result.Schedule,
			Report:   result.Report,
			Partial:  result.Schedule.State == model.StatePartial,
			Fairness: result.Fairness,
			Coverage: result.Coverage,
			Duration: elapsed.String(),
		},
		Iterations: result.Iterations,
		Improved:   result.Improved,
		Exhausted:  result.Exhausted,
	})
}

// ValidateResponse 排班校验响应
type ValidateResponse struct {
	Valid  bool              `json:"valid"`
	Report *validator.Report `json:"report"`
}

// Validate 校验排班
func (h *ScheduleHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req engine.ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	report, err := h.engine.Validate(&req)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ValidateResponse{
		Valid:  !report.HasHard(),
		Report: report,
	})
}

// defaultWeights 请求未携带权重时回落到配置中的默认值
func (h *ScheduleHandler) defaultWeights() solver.Weights {
	return solver.Weights{
		Preference: h.cfg.PreferenceWeight,
		Fairness:   h.cfg.FairnessWeight,
	}
}

// solveContext 按请求选项构造超时上下文
func (h *ScheduleHandler) solveContext(parent context.Context, opts *Options) (context.Context, context.CancelFunc) {
	timeout := h.cfg.SolveTimeout
	if opts != nil && opts.TimeoutSeconds > 0 {
		timeout = time.Duration(opts.TimeoutSeconds) * time.Second
	}
	return context.WithTimeout(parent, timeout)
}

// validateGenerateRequest 验证生成请求
func validateGenerateRequest(req *GenerateRequest) *errors.AppError {
	ve := &errors.ValidationErrors{}

	if req.StartDate == "" {
		ve.Add("start_date", "开始日期不能为空")
	}
	if req.EndDate == "" {
		ve.Add("end_date", "结束日期不能为空")
	}
	if len(req.Employees) == 0 {
		ve.Add("employees", "员工列表不能为空")
	}
	if len(req.Shifts) == 0 {
		ve.Add("shifts", "班次列表不能为空")
	}

	if req.StartDate != "" {
		if _, err := time.Parse(model.DateLayout, req.StartDate); err != nil {
			ve.Add("start_date", "日期格式无效，应为YYYY-MM-DD")
		}
	}
	if req.EndDate != "" {
		if _, err := time.Parse(model.DateLayout, req.EndDate); err != nil {
			ve.Add("end_date", "日期格式无效，应为YYYY-MM-DD")
		}
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应
func respondError(w http.ResponseWriter, err *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    err.Code,
		"message": err.Message,
		"details": err.Details,
		"fields":  err.Fields,
	})
}

// respondAppError 将任意错误映射为错误响应
func respondAppError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		respondError(w, appErr)
		return
	}
	if err == context.DeadlineExceeded {
		respondError(w, errors.New(errors.CodeTimeout, "排班计算超时，请尝试减少规模或缩短排班周期"))
		return
	}
	respondError(w, errors.Wrap(err, errors.CodeInternal, "排班失败"))
}
