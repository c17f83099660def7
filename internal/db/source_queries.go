package db

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"horse.fit/newsrank/internal/registry"
)

// SyncSources upserts the registry's sources. Tier, trust, and name
// follow the file; runtime health columns are left untouched so a
// reload never erases failure history.
func (p *Pool) SyncSources(ctx context.Context, sources []registry.Source) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}
	if len(sources) == 0 {
		return nil
	}

	records := make([]Source, 0, len(sources))
	for _, src := range sources {
		records = append(records, Source{
			SourceID:  src.ID,
			Name:      src.Name,
			Tier:      src.Tier,
			BaseTrust: src.BaseTrust,
			Active:    src.Active,
		})
	}

	res := p.gdb.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "tier", "base_trust", "active", "updated_at"}),
	}).Create(&records)
	if res.Error != nil {
		return fmt.Errorf("sync sources: %w", res.Error)
	}
	return nil
}

// LoadSources returns every persisted source.
func (p *Pool) LoadSources(ctx context.Context) ([]Source, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}

	var sources []Source
	res := p.gdb.WithContext(ctx).Order("source_id").Find(&sources)
	if res.Error != nil {
		return nil, fmt.Errorf("load sources: %w", res.Error)
	}
	return sources, nil
}

// SaveSourceHealth persists one source's runtime state after a
// success or failure was recorded in memory.
func (p *Pool) SaveSourceHealth(ctx context.Context, src registry.Source) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	res := p.gdb.WithContext(ctx).Model(&Source{}).
		Where("source_id = ?", src.ID).
		Updates(map[string]any{
			"active":        src.Active,
			"failure_count": src.FailureCount,
			"last_success":  src.LastSuccess,
			"last_attempt":  src.LastAttempt,
		})
	if res.Error != nil {
		return fmt.Errorf("save source health: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("save source health: source %q not found", src.ID)
	}
	return nil
}
