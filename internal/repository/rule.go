// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/rules"
)

// RuleRepository 排班规则仓储
// 存储的是原始规则记录，规范化在约束模型内完成
type RuleRepository struct {
	db DB
}

// NewRuleRepository 创建规则仓储
func NewRuleRepository(db DB) *RuleRepository {
	return &RuleRepository{db: db}
}

const ruleColumns = `id, kind, employee_id, payload, priority, active`

// Create 创建规则记录
func (r *RuleRepository) Create(ctx context.Context, record *rules.RawRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	payloadJSON, err := json.Marshal(record.Payload)
	if err != nil {
		return fmt.Errorf("序列化规则载荷失败: %w", err)
	}

	query := `
		INSERT INTO rules (id, kind, employee_id, payload, priority, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`

	_, err = r.db.ExecContext(ctx, query,
		record.ID, record.Kind, record.EmployeeID, payloadJSON,
		record.Priority, record.Active, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("创建规则失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取规则记录
func (r *RuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*rules.RawRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM rules WHERE id = $1 AND deleted_at IS NULL`, ruleColumns)
	return r.scanRule(r.db.QueryRowContext(ctx, query, id))
}

// Update 更新规则记录
func (r *RuleRepository) Update(ctx context.Context, record *rules.RawRecord) error {
	payloadJSON, err := json.Marshal(record.Payload)
	if err != nil {
		return fmt.Errorf("序列化规则载荷失败: %w", err)
	}

	query := `
		UPDATE rules SET
			kind = $2, employee_id = $3, payload = $4, priority = $5, active = $6, updated_at = $7
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		record.ID, record.Kind, record.EmployeeID, payloadJSON,
		record.Priority, record.Active, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("更新规则失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("规则不存在")
	}

	return nil
}

// Delete 软删除规则记录
func (r *RuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE rules SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除规则失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("规则不存在")
	}

	return nil
}

// ListActive 获取全部激活的规则记录
func (r *RuleRepository) ListActive(ctx context.Context) ([]rules.RawRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM rules
		WHERE active = TRUE AND deleted_at IS NULL
		ORDER BY priority DESC, created_at
	`, ruleColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("查询规则失败: %w", err)
	}
	defer rows.Close()

	var records []rules.RawRecord
	for rows.Next() {
		record, err := r.scanRule(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}

	return records, nil
}

// ListForEmployee 获取作用于某员工的规则（含全局规则）
func (r *RuleRepository) ListForEmployee(ctx context.Context, empID uuid.UUID) ([]rules.RawRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM rules
		WHERE (employee_id = $1 OR employee_id IS NULL) AND deleted_at IS NULL
		ORDER BY priority DESC, created_at
	`, ruleColumns)

	rows, err := r.db.QueryContext(ctx, query, empID)
	if err != nil {
		return nil, fmt.Errorf("查询规则失败: %w", err)
	}
	defer rows.Close()

	var records []rules.RawRecord
	for rows.Next() {
		record, err := r.scanRule(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}

	return records, nil
}

// scanRule 扫描单行规则数据
func (r *RuleRepository) scanRule(row Scanner) (*rules.RawRecord, error) {
	record := &rules.RawRecord{}
	var payloadJSON []byte

	err := row.Scan(
		&record.ID, &record.Kind, &record.EmployeeID,
		&payloadJSON, &record.Priority, &record.Active,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描规则数据失败: %w", err)
	}

	if len(payloadJSON) > 0 {
		if err := json.Unmarshal(payloadJSON, &record.Payload); err != nil {
			return nil, fmt.Errorf("解析规则载荷失败: %w", err)
		}
	}

	return record, nil
}
