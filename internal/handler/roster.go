// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/internal/config"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/internal/repository"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/engine"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/errors"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/model"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/rules"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/scheduler/solver"
)

// RosterHandler 人员与班次数据处理器
// 排班计算端点无状态，这里承载员工/班次/规则/排班的持久化访问
type RosterHandler struct {
	employees *repository.EmployeeRepository
	shifts    *repository.ShiftRepository
	rules     *repository.RuleRepository
	schedules *repository.ScheduleRepository
	engine    *engine.Engine
	cfg       *config.SchedulerConfig
}

// NewRosterHandler 创建数据处理器
func NewRosterHandler(db repository.DB, cfg *config.SchedulerConfig) *RosterHandler {
	return &RosterHandler{
		employees: repository.NewEmployeeRepository(db),
		shifts:    repository.NewShiftRepository(db),
		rules:     repository.NewRuleRepository(db),
		schedules: repository.NewScheduleRepository(db),
		engine:    engine.New(),
		cfg:       cfg,
	}
}

// StorageUnavailable 数据库未连接时挂载的占位处理器
func StorageUnavailable(w http.ResponseWriter, r *http.Request) {
	respondError(w, errors.New(errors.CodeDatabaseError, "持久化存储不可用"))
}

// ListResponse 列表响应
type ListResponse struct {
	Items interface{} `json:"items"`
	Total int         `json:"total"`
}

// Employees 员工集合端点：GET 列表 / POST 创建
func (h *RosterHandler) Employees(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		filter := listFilter(r)
		employees, total, err := h.employees.List(r.Context(), filter)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询员工列表失败"))
			return
		}
		respondJSON(w, http.StatusOK, ListResponse{Items: employees, Total: total})

	case http.MethodPost:
		var emp model.Employee
		if err := json.NewDecoder(r.Body).Decode(&emp); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
			return
		}
		if emp.Name == "" {
			respondError(w, errors.InvalidInput("name", "不能为空"))
			return
		}
		if err := h.employees.Create(r.Context(), &emp); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "创建员工失败"))
			return
		}
		respondJSON(w, http.StatusCreated, &emp)

	default:
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET/POST方法"))
	}
}

// Shifts 班次集合端点：GET 按日期范围列表 / POST 创建
func (h *RosterHandler) Shifts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		start := r.URL.Query().Get("start_date")
		end := r.URL.Query().Get("end_date")
		if start == "" || end == "" {
			respondError(w, errors.InvalidInput("start_date/end_date", "不能为空"))
			return
		}
		shifts, err := h.shifts.ListByDateRange(r.Context(), start, end)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询班次列表失败"))
			return
		}
		respondJSON(w, http.StatusOK, ListResponse{Items: shifts, Total: len(shifts)})

	case http.MethodPost:
		var shift model.Shift
		if err := json.NewDecoder(r.Body).Decode(&shift); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
			return
		}
		if !shift.TimeRange().Start.Before(shift.TimeRange().End) {
			respondError(w, errors.InvalidTimeRange(shift.StartTime, shift.EndTime))
			return
		}
		if err := h.shifts.Create(r.Context(), &shift); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "创建班次失败"))
			return
		}
		respondJSON(w, http.StatusCreated, &shift)

	default:
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET/POST方法"))
	}
}

// Rules 规则集合端点：GET 激活规则 / POST 创建
// 创建前先做一次规范化，格式错误的记录不落库
func (h *RosterHandler) Rules(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		records, err := h.rules.ListActive(r.Context())
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询规则列表失败"))
			return
		}
		respondJSON(w, http.StatusOK, ListResponse{Items: records, Total: len(records)})

	case http.MethodPost:
		var record rules.RawRecord
		if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
			return
		}
		if record.Active {
			if _, err := rules.Normalize([]rules.RawRecord{record}); err != nil {
				respondAppError(w, err)
				return
			}
		}
		if err := h.rules.Create(r.Context(), &record); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "创建规则失败"))
			return
		}
		respondJSON(w, http.StatusCreated, &record)

	default:
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET/POST方法"))
	}
}

// Schedules 排班集合端点：GET 列表 / POST 保存
func (h *RosterHandler) Schedules(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		filter := listFilter(r)
		schedules, total, err := h.schedules.List(r.Context(), filter)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询排班列表失败"))
			return
		}
		respondJSON(w, http.StatusOK, ListResponse{Items: schedules, Total: total})

	case http.MethodPost:
		var schedule model.Schedule
		if err := json.NewDecoder(r.Body).Decode(&schedule); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
			return
		}
		if err := h.schedules.Save(r.Context(), &schedule); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "保存排班失败"))
			return
		}
		respondJSON(w, http.StatusCreated, &schedule)

	default:
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET/POST方法"))
	}
}

// ScheduleByID 排班单项端点：GET /{id} 与 POST /{id}/publish
func (h *RosterHandler) ScheduleByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/schedules/")
	publish := strings.HasSuffix(rest, "/publish")
	idStr := strings.TrimSuffix(rest, "/publish")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, errors.InvalidInput("id", "不是合法的UUID"))
		return
	}

	switch {
	case publish && r.Method == http.MethodPost:
		if err := h.schedules.UpdateStatus(r.Context(), id, model.SchedulePublished); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "发布排班失败"))
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": string(model.SchedulePublished)})

	case !publish && r.Method == http.MethodGet:
		schedule, err := h.schedules.GetByID(r.Context(), id)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询排班失败"))
			return
		}
		if schedule == nil {
			respondError(w, errors.NotFound("排班", id.String()))
			return
		}
		respondJSON(w, http.StatusOK, schedule)

	default:
		respondError(w, errors.New(errors.CodeInvalidInput, "方法与路径不匹配"))
	}
}

// GenerateStoredRequest 基于库内数据的排班生成请求
type GenerateStoredRequest struct {
	StartDate string         `json:"start_date"`
	EndDate   string         `json:"end_date"`
	Weights   solver.Weights `json:"weights"`
	Save      bool           `json:"save"` // 生成后立即持久化
}

// GenerateStored 从持久化存储加载在职员工、日期范围内的班次与激活规则生成排班
// 外部分配来自范围内已保存的排班，保证不与既有排班冲突
func (h *RosterHandler) GenerateStored(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req GenerateStoredRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if req.StartDate == "" || req.EndDate == "" {
		respondError(w, errors.InvalidInput("start_date/end_date", "不能为空"))
		return
	}
	if req.Weights == (solver.Weights{}) {
		req.Weights = solver.Weights{
			Preference: h.cfg.PreferenceWeight,
			Fairness:   h.cfg.FairnessWeight,
		}
	}

	ctx := r.Context()

	employees, err := h.employees.ListActive(ctx)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "加载员工失败"))
		return
	}
	shifts, err := h.shifts.ListByDateRange(ctx, req.StartDate, req.EndDate)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "加载班次失败"))
		return
	}
	records, err := h.rules.ListActive(ctx)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "加载规则失败"))
		return
	}
	existing, err := h.schedules.ListAssignmentsInRange(ctx, req.StartDate, req.EndDate)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "加载已有分配失败"))
		return
	}

	start := time.Now()
	result, err := h.engine.Generate(ctx, &engine.GenerateRequest{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Employees: employees,
		Shifts:    shifts,
		Rules:     records,
		Existing:  existing,
		Weights:   req.Weights,
	})
	if err != nil {
		respondAppError(w, err)
		return
	}

	if req.Save {
		if err := h.schedules.Save(ctx, result.Schedule); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "保存排班失败"))
			return
		}
	}

	respondJSON(w, http.StatusOK, GenerateResponse{
		Schedule: result.Schedule,
		Report:   result.Report,
		Partial:  result.Schedule.State == model.StatePartial,
		Fairness: result.Fairness,
		Coverage: result.Coverage,
		Duration: time.Since(start).String(),
	})
}

// listFilter 从查询参数构造列表过滤器
func listFilter(r *http.Request) repository.ListFilter {
	filter := repository.DefaultListFilter()
	q := r.URL.Query()

	if status := q.Get("status"); status != "" {
		filter = filter.WithStatus(status)
	}
	if search := q.Get("search"); search != "" {
		filter.Search = search
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		filter = filter.WithLimit(limit)
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil && offset >= 0 {
		filter = filter.WithOffset(offset)
	}
	if start, end := q.Get("start_date"), q.Get("end_date"); start != "" && end != "" {
		filter = filter.WithDateRange(start, end)
	}

	return filter
}
