// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/model"
)

// ScheduleRepository 排班计划仓储
type ScheduleRepository struct {
	db DB
}

// NewScheduleRepository 创建排班计划仓储
func NewScheduleRepository(db DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Save 保存排班计划及其全部分配
// 先写计划头，再整体替换分配明细
func (r *ScheduleRepository) Save(ctx context.Context, schedule *model.Schedule) error {
	if schedule.ID == uuid.Nil {
		schedule.ID = uuid.New()
	}
	now := time.Now()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	var statsJSON []byte
	if schedule.Statistics != nil {
		var err error
		statsJSON, err = json.Marshal(schedule.Statistics)
		if err != nil {
			return fmt.Errorf("序列化排班统计失败: %w", err)
		}
	}

	query := `
		INSERT INTO schedules (id, start_date, end_date, status, state, created_by, statistics, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			state = EXCLUDED.state,
			statistics = EXCLUDED.statistics,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		schedule.ID, schedule.StartDate, schedule.EndDate, schedule.Status, schedule.State,
		schedule.CreatedBy, statsJSON, schedule.CreatedAt, schedule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("保存排班计划失败: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE schedule_id = $1`, schedule.ID); err != nil {
		return fmt.Errorf("清理旧分配失败: %w", err)
	}

	for _, a := range schedule.Assignments {
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		a.ScheduleID = schedule.ID

		_, err := r.db.ExecContext(ctx, `
			INSERT INTO assignments (
				id, schedule_id, employee_id, shift_id, date,
				start_time, end_time, status, auto_assigned, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		`,
			a.ID, a.ScheduleID, a.EmployeeID, a.ShiftID, a.Date,
			a.StartTime, a.EndTime, a.Status, a.AutoAssigned, now,
		)
		if err != nil {
			return fmt.Errorf("保存分配失败: %w", err)
		}
	}

	return nil
}

// GetByID 根据ID获取排班计划（含分配明细）
func (r *ScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	query := `
		SELECT id, start_date, end_date, status, state, created_by, statistics, created_at, updated_at
		FROM schedules
		WHERE id = $1 AND deleted_at IS NULL
	`

	schedule := &model.Schedule{}
	var statsJSON []byte

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&schedule.ID, &schedule.StartDate, &schedule.EndDate, &schedule.Status, &schedule.State,
		&schedule.CreatedBy, &statsJSON, &schedule.CreatedAt, &schedule.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询排班计划失败: %w", err)
	}

	if len(statsJSON) > 0 {
		schedule.Statistics = &model.ScheduleStats{}
		if err := json.Unmarshal(statsJSON, schedule.Statistics); err != nil {
			return nil, fmt.Errorf("解析排班统计失败: %w", err)
		}
	}

	assignments, err := r.listAssignments(ctx, id)
	if err != nil {
		return nil, err
	}
	schedule.Assignments = assignments

	return schedule, nil
}

// List 查询排班计划列表（不含分配明细）
func (r *ScheduleRepository) List(ctx context.Context, filter ListFilter) ([]*model.Schedule, int, error) {
	where := "deleted_at IS NULL"
	var args []interface{}
	argIndex := 1

	if filter.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}
	if filter.StartDate != "" {
		where += fmt.Sprintf(" AND end_date >= $%d", argIndex)
		args = append(args, filter.StartDate)
		argIndex++
	}
	if filter.EndDate != "" {
		where += fmt.Sprintf(" AND start_date <= $%d", argIndex)
		args = append(args, filter.EndDate)
		argIndex++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM schedules WHERE %s", where)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, start_date, end_date, status, state, created_by, statistics, created_at, updated_at
		FROM schedules
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询排班计划失败: %w", err)
	}
	defer rows.Close()

	var schedules []*model.Schedule
	for rows.Next() {
		schedule := &model.Schedule{}
		var statsJSON []byte
		if err := rows.Scan(
			&schedule.ID, &schedule.StartDate, &schedule.EndDate, &schedule.Status, &schedule.State,
			&schedule.CreatedBy, &statsJSON, &schedule.CreatedAt, &schedule.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("扫描排班计划失败: %w", err)
		}
		if len(statsJSON) > 0 {
			schedule.Statistics = &model.ScheduleStats{}
			if err := json.Unmarshal(statsJSON, schedule.Statistics); err != nil {
				return nil, 0, fmt.Errorf("解析排班统计失败: %w", err)
			}
		}
		schedules = append(schedules, schedule)
	}

	return schedules, total, nil
}

// UpdateStatus 更新排班计划状态（发布等）
func (r *ScheduleRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ScheduleStatus) error {
	query := `UPDATE schedules SET status = $2, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("更新排班状态失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("排班计划不存在")
	}

	return nil
}

// ListAssignmentsInRange 查询日期范围内已有的分配（跨计划）
// 生成新排班时用于避开已占用的时段
func (r *ScheduleRepository) ListAssignmentsInRange(ctx context.Context, startDate, endDate string) ([]*model.Assignment, error) {
	query := `
		SELECT a.id, a.schedule_id, a.employee_id, a.shift_id, a.date,
			a.start_time, a.end_time, a.status, a.auto_assigned, a.created_at, a.updated_at
		FROM assignments a
		JOIN schedules s ON s.id = a.schedule_id
		WHERE a.date >= $1 AND a.date <= $2
			AND a.status != 'declined'
			AND s.status = 'published' AND s.deleted_at IS NULL
		ORDER BY a.date, a.start_time
	`

	rows, err := r.db.QueryContext(ctx, query, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("查询已有分配失败: %w", err)
	}
	defer rows.Close()

	return scanAssignments(rows)
}

// listAssignments 查询某排班计划的全部分配
func (r *ScheduleRepository) listAssignments(ctx context.Context, scheduleID uuid.UUID) ([]*model.Assignment, error) {
	query := `
		SELECT id, schedule_id, employee_id, shift_id, date,
			start_time, end_time, status, auto_assigned, created_at, updated_at
		FROM assignments
		WHERE schedule_id = $1
		ORDER BY date, start_time, id
	`

	rows, err := r.db.QueryContext(ctx, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("查询分配失败: %w", err)
	}
	defer rows.Close()

	return scanAssignments(rows)
}

// scanAssignments 扫描分配结果集
func scanAssignments(rows *sql.Rows) ([]*model.Assignment, error) {
	var assignments []*model.Assignment
	for rows.Next() {
		a := &model.Assignment{}
		if err := rows.Scan(
			&a.ID, &a.ScheduleID, &a.EmployeeID, &a.ShiftID, &a.Date,
			&a.StartTime, &a.EndTime, &a.Status, &a.AutoAssigned, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("扫描分配数据失败: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, nil
}
