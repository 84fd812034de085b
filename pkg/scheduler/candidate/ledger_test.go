package candidate

import (
	"testing"

	"github.com/google/uuid"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/model"
)

func TestLedger_Record(t *testing.T) {
	ledger := NewLedger()
	empID := uuid.New()
	shift := newShift("2026-03-02", "09:00", "17:00")

	ledger.Record(empID, shift)

	if got := ledger.Minutes(empID); got != 8*60 {
		t.Errorf("Minutes() = %d, expected %d", got, 8*60)
	}
}

func TestLedger_Overlaps(t *testing.T) {
	ledger := NewLedger()
	empID := uuid.New()

	ledger.Record(empID, newShift("2026-03-02", "09:00", "17:00"))

	overlapping := newShift("2026-03-02", "13:00", "21:00")
	if !ledger.Overlaps(empID, overlapping.TimeRange()) {
		t.Error("Should detect overlap with recorded shift")
	}

	disjoint := newShift("2026-03-03", "09:00", "17:00")
	if ledger.Overlaps(empID, disjoint.TimeRange()) {
		t.Error("Should not report overlap for another day")
	}
}

func TestLedger_RestViolated(t *testing.T) {
	ledger := NewLedger()
	empID := uuid.New()

	ledger.Record(empID, newShift("2026-03-02", "15:00", "23:00"))

	// 次日 09:00 开始，仅休息 10 小时
	morning := newShift("2026-03-03", "09:00", "17:00")
	if !ledger.RestViolated(empID, morning.TimeRange(), 11) {
		t.Error("10 hour gap should violate 11 hour minimum rest")
	}
	if ledger.RestViolated(empID, morning.TimeRange(), 8) {
		t.Error("10 hour gap should satisfy 8 hour minimum rest")
	}

	// 检查方向对称：新班次在已有班次之前
	earlier := newShift("2026-03-02", "02:00", "06:00")
	if !ledger.RestViolated(empID, earlier.TimeRange(), 11) {
		t.Error("Gap before recorded shift should also be checked")
	}
}

func TestLedger_ConsecutiveDays(t *testing.T) {
	ledger := NewLedger()
	empID := uuid.New()

	ledger.Record(empID, newShift("2026-03-02", "09:00", "17:00"))
	ledger.Record(empID, newShift("2026-03-03", "09:00", "17:00"))

	// 在 03-04 工作会形成 3 连续天
	if got := ledger.ConsecutiveDays(empID, "2026-03-04"); got != 3 {
		t.Errorf("ConsecutiveDays() = %d, expected 3", got)
	}

	// 隔一天则重新计数
	if got := ledger.ConsecutiveDays(empID, "2026-03-06"); got != 1 {
		t.Errorf("ConsecutiveDays() after gap = %d, expected 1", got)
	}

	// 夹在两段中间会把两段连起来
	ledger.Record(empID, newShift("2026-03-05", "09:00", "17:00"))
	if got := ledger.ConsecutiveDays(empID, "2026-03-04"); got != 4 {
		t.Errorf("ConsecutiveDays() bridging = %d, expected 4", got)
	}
}

func TestLedger_MeanMinutes(t *testing.T) {
	ledger := NewLedger()
	emp1 := uuid.New()
	emp2 := uuid.New()

	ledger.Record(emp1, newShift("2026-03-02", "09:00", "17:00")) // 480 分钟

	mean := ledger.MeanMinutes([]uuid.UUID{emp1, emp2})
	if mean != 240 {
		t.Errorf("MeanMinutes() = %f, expected 240", mean)
	}

	if got := ledger.MeanMinutes(nil); got != 0 {
		t.Errorf("MeanMinutes(nil) = %f, expected 0", got)
	}
}

func TestLedger_Clone(t *testing.T) {
	ledger := NewLedger()
	empID := uuid.New()
	ledger.Record(empID, newShift("2026-03-02", "09:00", "17:00"))

	clone := ledger.Clone()
	clone.Record(empID, newShift("2026-03-03", "09:00", "17:00"))

	if ledger.Minutes(empID) != 8*60 {
		t.Error("Recording on clone should not affect the original")
	}
	if clone.Minutes(empID) != 16*60 {
		t.Error("Clone should accumulate independently")
	}
}

func TestSortedEmployeeIDs(t *testing.T) {
	employees := []*model.Employee{
		newEmployee("员工1"),
		newEmployee("员工2"),
		newEmployee("员工3"),
	}

	ids := SortedEmployeeIDs(employees)
	if len(ids) != 3 {
		t.Fatalf("Expected 3 ids, got %d", len(ids))
	}
	for i := 0; i < len(ids)-1; i++ {
		if ids[i].String() > ids[i+1].String() {
			t.Fatal("IDs should be sorted ascending")
		}
	}
}
