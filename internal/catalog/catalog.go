package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pokerjest/animatch/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Wildcard is the token FindIdentityByTitle treats as "any run of characters".
const Wildcard = "%"

// maxWildcardCandidates bounds how many LIKE hits are ranked per lookup.
const maxWildcardCandidates = 50

// Identity 番剧标识 (AniDB ID + 规范标题)
type Identity struct {
	ID    int
	Title string
}

// EpisodeDetail 单集详情
type EpisodeDetail struct {
	AniDBID   int
	Episode   int
	Title     string
	Airdate   *time.Time
	UpdatedAt time.Time
}

// Catalog is the local AniDB index backed by gorm.
type Catalog struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// WildcardTitle turns title into a substring pattern: every whitespace run
// becomes the wildcard token and the ends are left open.
func WildcardTitle(title string) string {
	return Wildcard + strings.Join(strings.Fields(title), Wildcard) + Wildcard
}

// FindIdentityByTitle looks a title up in anidb_titles. A title without the
// wildcard token must match exactly (case-insensitive); a title containing it
// is a substring pattern. Returns nil, nil when nothing matches.
func (c *Catalog) FindIdentityByTitle(ctx context.Context, title string) (*Identity, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}

	var rows []model.AnimeTitle
	q := c.db.WithContext(ctx).Model(&model.AnimeTitle{})
	if !strings.Contains(title, Wildcard) {
		q = q.Where("title = ? COLLATE NOCASE", title).Order("anidb_id ASC").Limit(1)
	} else {
		// 短标题优先进入候选, 再由 closestTitle 排序
		q = q.Where("title LIKE ?", title).Order("length(title) ASC").Order("anidb_id ASC").Limit(maxWildcardCandidates)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("lookup title %q: %w", title, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	best := rows[0]
	if len(rows) > 1 {
		best = closestTitle(title, rows)
	}
	return &Identity{ID: best.AniDBID, Title: best.Title}, nil
}

// closestTitle ranks wildcard hits by edit distance to the searched words.
func closestTitle(pattern string, rows []model.AnimeTitle) model.AnimeTitle {
	source := strings.Join(strings.Fields(strings.ReplaceAll(pattern, Wildcard, " ")), "")

	type ranked struct {
		row  model.AnimeTitle
		rank int
	}
	candidates := make([]ranked, 0, len(rows))
	for _, row := range rows {
		r := fuzzy.RankMatchNormalizedFold(source, row.Title)
		if r < 0 {
			r = len(row.Title) + len(source)
		}
		candidates = append(candidates, ranked{row: row, rank: r})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		if len(a.row.Title) != len(b.row.Title) {
			return len(a.row.Title) < len(b.row.Title)
		}
		return a.row.AniDBID < b.row.AniDBID
	})
	return candidates[0].row
}

// FindEpisodeDetail returns the detail row for (aid, episode), or nil when absent.
func (c *Catalog) FindEpisodeDetail(ctx context.Context, aid, episode int) (*EpisodeDetail, error) {
	var rows []model.AnimeEpisode
	err := c.db.WithContext(ctx).
		Where("anidb_id = ? AND episode_no = ?", aid, episode).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("lookup episode %d of %d: %w", episode, aid, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	ep := rows[0]
	return &EpisodeDetail{
		AniDBID:   ep.AniDBID,
		Episode:   ep.EpisodeNo,
		Title:     ep.EpisodeTitle,
		Airdate:   ep.Airdate,
		UpdatedAt: ep.UpdatedAt,
	}, nil
}

// GetLastUpdated returns when the identity was last refreshed from AniDB: the
// newer of its info row and its newest episode row. Nil means never refreshed.
func (c *Catalog) GetLastUpdated(ctx context.Context, aid int) (*time.Time, error) {
	var last *time.Time

	var infos []model.AnimeInfo
	if err := c.db.WithContext(ctx).Where("anidb_id = ?", aid).Limit(1).Find(&infos).Error; err != nil {
		return nil, fmt.Errorf("lookup info update of %d: %w", aid, err)
	}
	if len(infos) > 0 && !infos[0].UpdatedAt.IsZero() {
		t := infos[0].UpdatedAt
		last = &t
	}

	var episodes []model.AnimeEpisode
	err := c.db.WithContext(ctx).
		Where("anidb_id = ?", aid).
		Order("updated_at DESC").
		Limit(1).
		Find(&episodes).Error
	if err != nil {
		return nil, fmt.Errorf("lookup episode update of %d: %w", aid, err)
	}
	if len(episodes) > 0 && (last == nil || episodes[0].UpdatedAt.After(*last)) {
		t := episodes[0].UpdatedAt
		last = &t
	}
	return last, nil
}

// UpsertInfo stores series level metadata.
func (c *Catalog) UpsertInfo(ctx context.Context, info *model.AnimeInfo) error {
	err := c.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "anidb_id"}},
			UpdateAll: true,
		}).
		Create(info).Error
	if err != nil {
		return fmt.Errorf("upsert info %d: %w", info.AniDBID, err)
	}
	return nil
}

// UpsertEpisodes stores episode rows, refreshing title, airdate and updated_at of existing ones.
func (c *Catalog) UpsertEpisodes(ctx context.Context, episodes []model.AnimeEpisode) error {
	if len(episodes) == 0 {
		return nil
	}
	err := c.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "anidb_id"}, {Name: "episode_no"}},
			DoUpdates: clause.AssignmentColumns([]string{"episode_title", "airdate", "updated_at"}),
		}).
		Create(&episodes).Error
	if err != nil {
		return fmt.Errorf("upsert %d episodes: %w", len(episodes), err)
	}
	return nil
}

// ReplaceTitles swaps the whole title index in one transaction.
func (c *Catalog) ReplaceTitles(ctx context.Context, titles []model.AnimeTitle) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.AnimeTitle{}).Error; err != nil {
			return fmt.Errorf("clear titles: %w", err)
		}
		if len(titles) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(titles, 500).Error; err != nil {
			return fmt.Errorf("insert titles: %w", err)
		}
		return nil
	})
}

// CountTitles reports the size of the title index.
func (c *Catalog) CountTitles(ctx context.Context) (int64, error) {
	var n int64
	if err := c.db.WithContext(ctx).Model(&model.AnimeTitle{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count titles: %w", err)
	}
	return n, nil
}
