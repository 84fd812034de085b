// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/model"
)

// ShiftRepository 班次仓储
type ShiftRepository struct {
	db DB
}

// NewShiftRepository 创建班次仓储
func NewShiftRepository(db DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

const shiftColumns = `id, name, date, start_time, end_time,
	required_staff, required_qualifications, created_at, updated_at`

// Create 创建班次
func (r *ShiftRepository) Create(ctx context.Context, shift *model.Shift) error {
	if shift.ID == uuid.Nil {
		shift.ID = uuid.New()
	}
	now := time.Now()
	shift.CreatedAt = now
	shift.UpdatedAt = now

	query := `
		INSERT INTO shifts (
			id, name, date, start_time, end_time,
			required_staff, required_qualifications, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		shift.ID, shift.Name, shift.Date, shift.StartTime, shift.EndTime,
		shift.RequiredStaff, pq.Array(shift.RequiredQualifications),
		shift.CreatedAt, shift.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建班次失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取班次
func (r *ShiftRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Shift, error) {
	query := fmt.Sprintf(`SELECT %s FROM shifts WHERE id = $1 AND deleted_at IS NULL`, shiftColumns)
	return r.scanShift(r.db.QueryRowContext(ctx, query, id))
}

// Update 更新班次
func (r *ShiftRepository) Update(ctx context.Context, shift *model.Shift) error {
	shift.UpdatedAt = time.Now()

	query := `
		UPDATE shifts SET
			name = $2, date = $3, start_time = $4, end_time = $5,
			required_staff = $6, required_qualifications = $7, updated_at = $8
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		shift.ID, shift.Name, shift.Date, shift.StartTime, shift.EndTime,
		shift.RequiredStaff, pq.Array(shift.RequiredQualifications), shift.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新班次失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("班次不存在")
	}

	return nil
}

// Delete 软删除班次
func (r *ShiftRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE shifts SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除班次失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("班次不存在")
	}

	return nil
}

// ListByDateRange 查询日期范围内的班次
func (r *ShiftRepository) ListByDateRange(ctx context.Context, startDate, endDate string) ([]*model.Shift, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM shifts
		WHERE date >= $1 AND date <= $2 AND deleted_at IS NULL
		ORDER BY date, start_time, id
	`, shiftColumns)

	rows, err := r.db.QueryContext(ctx, query, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("查询班次失败: %w", err)
	}
	defer rows.Close()

	var shifts []*model.Shift
	for rows.Next() {
		shift, err := r.scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}

	return shifts, nil
}

// ListByIDs 根据ID列表获取班次
func (r *ShiftRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Shift, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM shifts
		WHERE id = ANY($1) AND deleted_at IS NULL
	`, shiftColumns)

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("查询班次失败: %w", err)
	}
	defer rows.Close()

	var shifts []*model.Shift
	for rows.Next() {
		shift, err := r.scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}

	return shifts, nil
}

// scanShift 扫描单行班次数据
func (r *ShiftRepository) scanShift(row Scanner) (*model.Shift, error) {
	shift := &model.Shift{}

	err := row.Scan(
		&shift.ID, &shift.Name, &shift.Date, &shift.StartTime, &shift.EndTime,
		&shift.RequiredStaff, pq.Array(&shift.RequiredQualifications),
		&shift.CreatedAt, &shift.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描班次数据失败: %w", err)
	}

	return shift, nil
}
