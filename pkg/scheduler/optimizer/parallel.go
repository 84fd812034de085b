// Package optimizer 提供排班优化算法
package optimizer

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/model"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/scheduler/solver"
)

// candidateEval 单个移动的评估产物
type candidateEval struct {
	schedule *model.Schedule
	eval     evaluation
	ok       bool
}

// bestMove 并行评估全部候选移动，返回最优的一个
// 评估结果按移动下标落位，选择阶段顺序扫描：
// 并行度只影响耗时，不影响选出的移动
func (o *LocalSearchOptimizer) bestMove(
	ctx context.Context,
	base *model.Schedule,
	moves []move,
	input *Input,
	scorer *solver.Scorer,
	shiftMap map[uuid.UUID]*model.Shift,
	rateByEmp map[uuid.UUID]int,
	workers int,
) (int, *model.Schedule, evaluation) {
	results := make([]candidateEval, len(moves))

	if workers > len(moves) {
		workers = len(moves)
	}

	var wg sync.WaitGroup
	next := make(chan int)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range next {
				results[idx] = o.evaluateMove(base, moves[idx], input, scorer, shiftMap, rateByEmp)
			}
		}()
	}

	for idx := range moves {
		if ctx.Err() != nil {
			break
		}
		next <- idx
	}
	close(next)
	wg.Wait()

	bestIdx := -1
	var best candidateEval
	for idx, r := range results {
		if !r.ok {
			continue
		}
		if bestIdx < 0 || r.eval.betterThan(best.eval) {
			bestIdx = idx
			best = r
		}
	}

	if bestIdx < 0 {
		return -1, nil, evaluation{}
	}
	return bestIdx, best.schedule, best.eval
}

// evaluateMove 在副本上执行移动并做全量评估
func (o *LocalSearchOptimizer) evaluateMove(
	base *model.Schedule,
	m move,
	input *Input,
	scorer *solver.Scorer,
	shiftMap map[uuid.UUID]*model.Shift,
	rateByEmp map[uuid.UUID]int,
) candidateEval {
	cand := m.apply(base)
	report := o.detector.Detect(cand, input.Employees, input.Shifts, input.Constraints)

	return candidateEval{
		schedule: cand,
		eval: evaluation{
			hard:  report.HardCount(),
			score: scorer.Evaluate(cand, shiftMap),
			cost:  laborCost(cand, shiftMap, rateByEmp),
		},
		ok: true,
	}
}
