package db

import (
	"context"
	"fmt"

	"horse.fit/newsrank/internal/engine"
)

// InsertRankingRun records the audit row for one completed run.
func (p *Pool) InsertRankingRun(ctx context.Context, report engine.Report) (int64, error) {
	if p == nil || p.gdb == nil {
		return 0, fmt.Errorf("database pool is not initialized")
	}

	run := RankingRun{
		Preset:          report.Preset,
		InputCount:      report.InputCount,
		AfterURLCount:   report.AfterURLCount,
		AfterTitleCount: report.AfterTitleCount,
		ClusterCount:    report.ClusterCount,
		ExcludedCount:   report.ExcludedCount,
		ReturnedCount:   report.ReturnedCount,
		ElapsedMillis:   report.Elapsed.Milliseconds(),
	}
	res := p.gdb.WithContext(ctx).Create(&run)
	if res.Error != nil {
		return 0, fmt.Errorf("insert ranking run: %w", res.Error)
	}
	return run.RunID, nil
}

// RecentRankingRuns lists the latest audit rows, newest first.
func (p *Pool) RecentRankingRuns(ctx context.Context, limit int) ([]RankingRun, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	var runs []RankingRun
	res := p.gdb.WithContext(ctx).Order("run_id DESC").Limit(limit).Find(&runs)
	if res.Error != nil {
		return nil, fmt.Errorf("list ranking runs: %w", res.Error)
	}
	return runs, nil
}
