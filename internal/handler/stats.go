// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/errors"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/model"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/stats"
)

// StatsHandler 统计分析处理器
type StatsHandler struct {
	fairness *stats.FairnessAnalyzer
	coverage *stats.CoverageAnalyzer
}

// NewStatsHandler 创建统计分析处理器
func NewStatsHandler() *StatsHandler {
	return &StatsHandler{
		fairness: stats.NewFairnessAnalyzer(),
		coverage: stats.NewCoverageAnalyzer(),
	}
}

// StatsRequest 统计分析请求
type StatsRequest struct {
	Schedule  *model.Schedule   `json:"schedule"`
	Employees []*model.Employee `json:"employees,omitempty"`
	Shifts    []*model.Shift    `json:"shifts,omitempty"`
}

// Fairness 分析排班公平性
func (h *StatsHandler) Fairness(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, h.fairness.Analyze(req.Schedule, req.Employees))
}

// Coverage 分析排班覆盖率
func (h *StatsHandler) Coverage(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, h.coverage.Analyze(req.Schedule, req.Shifts))
}

// decode 解析并校验统计请求
func (h *StatsHandler) decode(w http.ResponseWriter, r *http.Request) (*StatsRequest, bool) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return nil, false
	}

	var req StatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return nil, false
	}
	if req.Schedule == nil {
		respondError(w, errors.InvalidInput("schedule", "不能为空"))
		return nil, false
	}

	return &req, true
}
