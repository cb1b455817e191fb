package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/pokerjest/animatch/internal/model"
	"gorm.io/gorm"
)

// PendingRelease is the slice of a release row the matcher needs.
type PendingRelease struct {
	ID         int64
	SearchName string
}

// Releases reads and writes the releases table.
type Releases struct {
	db *gorm.DB
}

func NewReleases(db *gorm.DB) *Releases {
	return &Releases{db: db}
}

// SelectUnresolved returns up to limit ready releases of the category that
// have no anidb_id yet, newest first.
func (r *Releases) SelectUnresolved(ctx context.Context, category, limit int) ([]PendingRelease, error) {
	var rows []PendingRelease
	err := r.db.WithContext(ctx).
		Model(&model.Release{}).
		Select("id", "search_name").
		Where("nzbstatus = ?", model.NZBStatusAdded).
		Where("anidb_id IS NULL").
		Where("categories_id = ?", category).
		Order("postdate DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("select unresolved releases: %w", err)
	}
	return rows, nil
}

// SetResolvedIdentity writes an AniDB id or failure sentinel onto a release.
// Rows that already carry a value are left untouched; the returned bool
// reports whether the row was written.
func (r *Releases) SetResolvedIdentity(ctx context.Context, releaseID int64, value int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Release{}).
		Where("id = ? AND anidb_id IS NULL", releaseID).
		UpdateColumn("anidb_id", value)
	if res.Error != nil {
		return false, fmt.Errorf("update release %d: %w", releaseID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ResetValues clears anidb_id on releases carrying one of the given values,
// so the next batch picks them up again. Returns the number of rows reset.
func (r *Releases) ResetValues(ctx context.Context, values ...int) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&model.Release{}).
		Where("anidb_id IN ?", values).
		UpdateColumn("anidb_id", gorm.Expr("NULL"))
	if res.Error != nil {
		return 0, fmt.Errorf("reset releases: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ErrEmptyTitleIndex is returned by ResetOrphaned when there are no titles to
// compare against.
var ErrEmptyTitleIndex = errors.New("title index is empty, import titles before resetting orphans")

// ResetOrphaned clears anidb_id on releases whose identity no longer has any
// title in the index, typically after a title dump dropped or merged an anime.
// An empty index would orphan every release, so it is refused.
func (r *Releases) ResetOrphaned(ctx context.Context) (int64, error) {
	var titles int64
	if err := r.db.WithContext(ctx).Model(&model.AnimeTitle{}).Count(&titles).Error; err != nil {
		return 0, fmt.Errorf("count titles: %w", err)
	}
	if titles == 0 {
		return 0, ErrEmptyTitleIndex
	}

	res := r.db.WithContext(ctx).
		Model(&model.Release{}).
		Where("anidb_id > 0 AND anidb_id NOT IN (?)",
			r.db.Model(&model.AnimeTitle{}).Distinct("anidb_id")).
		UpdateColumn("anidb_id", gorm.Expr("NULL"))
	if res.Error != nil {
		return 0, fmt.Errorf("reset orphaned releases: %w", res.Error)
	}
	return res.RowsAffected, nil
}
