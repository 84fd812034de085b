// 排班引擎服务
// 主程序入口

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TingTung93/AI-Schedule-Manager-sub013/internal/config"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/internal/database"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/internal/handler"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/internal/metrics"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/internal/middleware"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/logger"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/rules"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	format := "json"
	if cfg.IsDevelopment() {
		format = "console"
	}
	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: format,
	})

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Str("env", cfg.App.Env).
		Msg("排班引擎启动中")

	// 连接数据库（失败不阻断：排班计算端点无状态）
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Warn().Err(err).Msg("数据库连接失败，持久化功能不可用")
		db = nil
	} else {
		defer db.Close()
	}

	// 创建处理器
	scheduleHandler := handler.NewScheduleHandler(&cfg.Scheduler)
	statsHandler := handler.NewStatsHandler()

	var rosterHandler *handler.RosterHandler
	if db != nil {
		rosterHandler = handler.NewRosterHandler(db, &cfg.Scheduler)
	}

	// 创建 HTTP 服务器
	mux := http.NewServeMux()

	// ========================================
	// 系统端点
	// ========================================

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		dbStatus := "disabled"
		code := http.StatusOK

		if db != nil {
			dbStatus = "ok"
			if err := db.Health(r.Context()); err != nil {
				dbStatus = "unavailable"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{
			"status":   status,
			"service":  cfg.App.Name,
			"database": dbStatus,
		})
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	// ========================================
	// API v1 端点
	// ========================================

	// API 根路由
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "排班引擎 API v1",
			"endpoints": {
				"schedule": {
					"generate": "POST /api/v1/schedule/generate",
					"optimize": "POST /api/v1/schedule/optimize",
					"validate": "POST /api/v1/schedule/validate"
				},
				"rules": {
					"kinds": "GET /api/v1/rules/kinds",
					"list": "GET /api/v1/rules",
					"create": "POST /api/v1/rules"
				},
				"roster": {
					"employees": "GET|POST /api/v1/employees",
					"shifts": "GET|POST /api/v1/shifts",
					"schedules": "GET|POST /api/v1/schedules",
					"generate_stored": "POST /api/v1/schedule/generate-stored"
				},
				"stats": {
					"fairness": "POST /api/v1/stats/fairness",
					"coverage": "POST /api/v1/stats/coverage"
				}
			}
		}`))
	})

	// 排班生成 API
	mux.HandleFunc("/api/v1/schedule/generate", scheduleHandler.Generate)

	// 排班优化 API
	mux.HandleFunc("/api/v1/schedule/optimize", scheduleHandler.Optimize)

	// 排班验证 API
	mux.HandleFunc("/api/v1/schedule/validate", scheduleHandler.Validate)

	// 规则种类 API - 返回引擎支持的全部规则种类及载荷定义
	mux.HandleFunc("/api/v1/rules/kinds", handleRuleKinds)

	// ========================================
	// 持久化 API（需要数据库）
	// ========================================

	if rosterHandler != nil {
		mux.HandleFunc("/api/v1/employees", rosterHandler.Employees)
		mux.HandleFunc("/api/v1/shifts", rosterHandler.Shifts)
		mux.HandleFunc("/api/v1/rules", rosterHandler.Rules)
		mux.HandleFunc("/api/v1/schedules", rosterHandler.Schedules)
		mux.HandleFunc("/api/v1/schedules/", rosterHandler.ScheduleByID)
		mux.HandleFunc("/api/v1/schedule/generate-stored", rosterHandler.GenerateStored)
	} else {
		for _, path := range []string{
			"/api/v1/employees", "/api/v1/shifts", "/api/v1/rules",
			"/api/v1/schedules", "/api/v1/schedules/", "/api/v1/schedule/generate-stored",
		} {
			mux.HandleFunc(path, handler.StorageUnavailable)
		}
	}

	// ========================================
	// 统计分析 API
	// ========================================

	mux.HandleFunc("/api/v1/stats/fairness", statsHandler.Fairness)

	mux.HandleFunc("/api/v1/stats/coverage", statsHandler.Coverage)

	// ========================================
	// 监控端点
	// ========================================

	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// ========================================
	// 中间件
	// ========================================

	// 中间件执行顺序：recovery -> requestID -> rateLimit -> cors -> logging -> handler
	limiter := middleware.NewRateLimiter(100)
	chain := middleware.Recovery(
		middleware.RequestID(
			middleware.RateLimit(limiter)(
				middleware.CORS(cfg.API.CORS)(
					middleware.Logging(mux)))))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      chain,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.API.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	// 启动服务器（非阻塞）
	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("version", Version).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}

	logger.Info().Msg("服务器已关闭")
}

// RuleParam 规则载荷字段定义
type RuleParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // int, float, string, bool, array, object
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
}

// RuleKindDefinition 规则种类定义
type RuleKindDefinition struct {
	Kind        rules.Kind  `json:"kind"`
	DisplayName string      `json:"display_name"`
	Scope       string      `json:"scope"`    // employee/global
	Priority    string      `json:"priority"` // 优先级说明
	Description string      `json:"description"`
	Params      []RuleParam `json:"params"`
}

// RuleKindsResponse 规则种类响应
type RuleKindsResponse struct {
	Kinds []RuleKindDefinition `json:"kinds"`
}

// handleRuleKinds 返回引擎支持的规则种类及其载荷定义
func handleRuleKinds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	kinds := []RuleKindDefinition{
		{
			Kind:        rules.KindAvailability,
			DisplayName: "可用性",
			Scope:       "employee",
			Priority:    "5为硬约束（直接过滤），1-4为软约束（评分惩罚）",
			Description: "声明员工在某些时段不可排班，如每周固定不可用的星期、具体日期或时段。",
			Params: []RuleParam{
				{Name: "unavailable_weekdays", Type: "array", Description: "不可用的星期（0=周日）"},
				{Name: "unavailable_dates", Type: "array", Description: "不可用的具体日期 YYYY-MM-DD"},
				{Name: "unavailable_clock", Type: "object", Description: "不可用时段 {start, end}，HH:MM"},
			},
		},
		{
			Kind:        rules.KindPreference,
			DisplayName: "偏好",
			Scope:       "employee",
			Priority:    "始终为软约束，权重由优先级决定",
			Description: "员工对班次时段或星期的偏好与回避，满足加分、违背减分。",
			Params: []RuleParam{
				{Name: "preferred_weekdays", Type: "array", Description: "偏好的星期"},
				{Name: "avoid_weekdays", Type: "array", Description: "回避的星期"},
				{Name: "preferred_clock", Type: "object", Description: "偏好时段 {start, end}，HH:MM"},
			},
		},
		{
			Kind:        rules.KindRequirement,
			DisplayName: "要求",
			Scope:       "employee",
			Priority:    "软约束，倾向将员工排入指定星期",
			Description: "业务要求某员工尽量出现在特定星期的班次上，或达到每周最低工时。",
			Params: []RuleParam{
				{Name: "required_weekdays", Type: "array", Description: "要求出勤的星期"},
				{Name: "min_minutes_per_week", Type: "int", Description: "每周最低工时(分钟)"},
			},
		},
		{
			Kind:        rules.KindRestriction,
			DisplayName: "限制",
			Scope:       "employee/global",
			Priority:    "5为硬约束，1-4为软约束",
			Description: "工时与休息限制：周最大工时、最早/最晚上下班时刻、班次间最小休息、最大连续工作天数。",
			Params: []RuleParam{
				{Name: "max_minutes_per_week", Type: "int", Description: "每周最大工时(分钟)", Default: "2400"},
				{Name: "no_shifts_before", Type: "string", Description: "最早上班时刻 HH:MM"},
				{Name: "no_shifts_after", Type: "string", Description: "最晚下班时刻 HH:MM"},
				{Name: "min_rest_hours", Type: "int", Description: "班次间最小休息(小时)", Default: "11"},
				{Name: "max_consecutive_days", Type: "int", Description: "最大连续工作天数", Default: "6"},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(RuleKindsResponse{Kinds: kinds})
}
