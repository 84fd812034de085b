// Package optimizer 提供排班优化算法
package optimizer

import (
	"sort"

	"github.com/google/uuid"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/model"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/scheduler/availability"
)

// moveKind 邻域移动类型
type moveKind int

const (
	moveReassign moveKind = iota // 把一条分配换给另一名员工
	moveSwap                     // 交换两条分配的员工
)

// move 一次邻域移动
// 以排序后的分配下标表达，保证枚举顺序确定
type move struct {
	kind   moveKind
	i, j   int       // 分配下标；reassign 只用 i
	target uuid.UUID // reassign 的目标员工
}

// sortAssignments 把分配按日期、班次、员工排成确定顺序
// 移动下标基于该顺序，相同输入必然枚举出相同的移动序列
func sortAssignments(assignments []*model.Assignment) {
	sort.Slice(assignments, func(a, b int) bool {
		x, y := assignments[a], assignments[b]
		if x.Date != y.Date {
			return x.Date < y.Date
		}
		if x.ShiftID != y.ShiftID {
			return x.ShiftID.String() < y.ShiftID.String()
		}
		return x.EmployeeID.String() < y.EmployeeID.String()
	})
}

// enumerateMoves 枚举当前排班的全部候选移动
// 先 reassign 后 swap，内部均按下标与员工 ID 升序；
// 目标员工对班次不可用（含与外部已有分配重叠）的移动直接跳过
func enumerateMoves(schedule *model.Schedule, employeeIDs []uuid.UUID, avail *availability.Map) []move {
	assignments := schedule.Assignments
	var moves []move

	// 占用表：同一班次上已有的员工不能作为 reassign/swap 目标
	onShift := make(map[uuid.UUID]map[uuid.UUID]bool)
	for _, a := range assignments {
		if onShift[a.ShiftID] == nil {
			onShift[a.ShiftID] = make(map[uuid.UUID]bool)
		}
		onShift[a.ShiftID][a.EmployeeID] = true
	}

	for i, a := range assignments {
		for _, empID := range employeeIDs {
			if empID == a.EmployeeID || onShift[a.ShiftID][empID] {
				continue
			}
			if !avail.Available(empID, a.ShiftID) {
				continue
			}
			moves = append(moves, move{kind: moveReassign, i: i, target: empID})
		}
	}

	for i := 0; i < len(assignments); i++ {
		for j := i + 1; j < len(assignments); j++ {
			x, y := assignments[i], assignments[j]
			if x.ShiftID == y.ShiftID || x.EmployeeID == y.EmployeeID {
				continue
			}
			// 任一方已在对方班次上时交换会违反唯一性
			if onShift[x.ShiftID][y.EmployeeID] || onShift[y.ShiftID][x.EmployeeID] {
				continue
			}
			if !avail.Available(x.EmployeeID, y.ShiftID) || !avail.Available(y.EmployeeID, x.ShiftID) {
				continue
			}
			moves = append(moves, move{kind: moveSwap, i: i, j: j})
		}
	}

	return moves
}

// apply 在排班副本上执行移动
func (m move) apply(schedule *model.Schedule) *model.Schedule {
	clone := schedule.Clone()
	switch m.kind {
	case moveReassign:
		clone.Assignments[m.i].EmployeeID = m.target
	case moveSwap:
		a, b := clone.Assignments[m.i], clone.Assignments[m.j]
		a.EmployeeID, b.EmployeeID = b.EmployeeID, a.EmployeeID
	}
	return clone
}
