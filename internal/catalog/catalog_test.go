package catalog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pokerjest/animatch/internal/db"
	"github.com/pokerjest/animatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestCatalog(t *testing.T) (*Catalog, *gorm.DB) {
	t.Helper()
	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return New(conn), conn
}

func seedTitles(t *testing.T, conn *gorm.DB, titles ...model.AnimeTitle) {
	t.Helper()
	require.NoError(t, conn.Create(&titles).Error)
}

func TestWildcardTitle(t *testing.T) {
	assert.Equal(t, "%Great%Anime%", WildcardTitle("Great Anime"))
	assert.Equal(t, "%Great%Anime%2%", WildcardTitle("  Great \t Anime  2 "))
	assert.Equal(t, "%Single%", WildcardTitle("Single"))
}

func TestFindIdentityByTitle_Exact(t *testing.T) {
	c, conn := newTestCatalog(t)
	seedTitles(t, conn,
		model.AnimeTitle{AniDBID: 77, Type: "main", Lang: "x-jat", Title: "Great Anime"},
		model.AnimeTitle{AniDBID: 78, Type: "main", Lang: "x-jat", Title: "Great Anime 2"},
	)
	ctx := context.Background()

	id, err := c.FindIdentityByTitle(ctx, "Great Anime")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, 77, id.ID)
	assert.Equal(t, "Great Anime", id.Title)

	id, err = c.FindIdentityByTitle(ctx, "great anime")
	require.NoError(t, err)
	require.NotNil(t, id, "exact lookup is case-insensitive")
	assert.Equal(t, 77, id.ID)

	id, err = c.FindIdentityByTitle(ctx, "Great")
	require.NoError(t, err)
	assert.Nil(t, id, "exact lookup must not do substring matching")
}

func TestFindIdentityByTitle_Wildcard(t *testing.T) {
	c, conn := newTestCatalog(t)
	seedTitles(t, conn,
		model.AnimeTitle{AniDBID: 5, Type: "official", Lang: "en", Title: "The Great-Anime Adventure Chronicles"},
		model.AnimeTitle{AniDBID: 9, Type: "main", Lang: "x-jat", Title: "Great-Anime"},
		model.AnimeTitle{AniDBID: 12, Type: "main", Lang: "x-jat", Title: "Unrelated"},
	)
	ctx := context.Background()

	id, err := c.FindIdentityByTitle(ctx, "Great Anime")
	require.NoError(t, err)
	assert.Nil(t, id)

	id, err = c.FindIdentityByTitle(ctx, WildcardTitle("Great Anime"))
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, 9, id.ID, "closest title wins among wildcard hits")

	id, err = c.FindIdentityByTitle(ctx, WildcardTitle("Missing Show"))
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestFindIdentityByTitle_Empty(t *testing.T) {
	c, _ := newTestCatalog(t)
	id, err := c.FindIdentityByTitle(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestEpisodeDetailAndLastUpdated(t *testing.T) {
	c, conn := newTestCatalog(t)
	ctx := context.Background()

	last, err := c.GetLastUpdated(ctx, 77)
	require.NoError(t, err)
	assert.Nil(t, last, "no rows means no timestamp")

	older := time.Now().Add(-10 * 24 * time.Hour).UTC().Truncate(time.Second)
	newer := time.Now().Add(-2 * 24 * time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, c.UpsertEpisodes(ctx, []model.AnimeEpisode{
		{AniDBID: 77, EpisodeNo: 1, EpisodeTitle: "Beginning", UpdatedAt: older},
		{AniDBID: 77, EpisodeNo: 2, EpisodeTitle: "Middle", UpdatedAt: newer},
	}))
	// updated_at is set by the caller; pin it regardless of gorm's time tracking.
	require.NoError(t, conn.Model(&model.AnimeEpisode{}).Where("episode_no = ?", 1).UpdateColumn("updated_at", older).Error)
	require.NoError(t, conn.Model(&model.AnimeEpisode{}).Where("episode_no = ?", 2).UpdateColumn("updated_at", newer).Error)

	ep, err := c.FindEpisodeDetail(ctx, 77, 2)
	require.NoError(t, err)
	require.NotNil(t, ep)
	assert.Equal(t, "Middle", ep.Title)
	assert.Equal(t, 2, ep.Episode)

	ep, err = c.FindEpisodeDetail(ctx, 77, 3)
	require.NoError(t, err)
	assert.Nil(t, ep)

	last, err = c.GetLastUpdated(ctx, 77)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.WithinDuration(t, newer, *last, time.Second)
}

func TestUpsertEpisodes_RefreshesExisting(t *testing.T) {
	c, _ := newTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, c.UpsertEpisodes(ctx, []model.AnimeEpisode{
		{AniDBID: 3, EpisodeNo: 1, EpisodeTitle: "Old", UpdatedAt: time.Now()},
	}))
	require.NoError(t, c.UpsertEpisodes(ctx, []model.AnimeEpisode{
		{AniDBID: 3, EpisodeNo: 1, EpisodeTitle: "New", UpdatedAt: time.Now()},
		{AniDBID: 3, EpisodeNo: 2, EpisodeTitle: "Second", UpdatedAt: time.Now()},
	}))

	ep, err := c.FindEpisodeDetail(ctx, 3, 1)
	require.NoError(t, err)
	require.NotNil(t, ep)
	assert.Equal(t, "New", ep.Title)

	ep, err = c.FindEpisodeDetail(ctx, 3, 2)
	require.NoError(t, err)
	require.NotNil(t, ep)
}

func TestUpsertInfo(t *testing.T) {
	c, conn := newTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, c.UpsertInfo(ctx, &model.AnimeInfo{AniDBID: 4, Type: "TV Series", EpisodeCount: 12}))
	require.NoError(t, c.UpsertInfo(ctx, &model.AnimeInfo{AniDBID: 4, Type: "TV Series", EpisodeCount: 13}))

	var infos []model.AnimeInfo
	require.NoError(t, conn.Find(&infos).Error)
	require.Len(t, infos, 1)
	assert.Equal(t, 13, infos[0].EpisodeCount)
}

func TestReplaceTitles(t *testing.T) {
	c, conn := newTestCatalog(t)
	ctx := context.Background()
	seedTitles(t, conn, model.AnimeTitle{AniDBID: 1, Title: "Stale"})

	require.NoError(t, c.ReplaceTitles(ctx, []model.AnimeTitle{
		{AniDBID: 2, Type: "main", Lang: "x-jat", Title: "Fresh"},
		{AniDBID: 2, Type: "official", Lang: "en", Title: "Fresh EN"},
	}))

	n, err := c.CountTitles(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	id, err := c.FindIdentityByTitle(ctx, "Stale")
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestGetLastUpdated_InfoOnly(t *testing.T) {
	c, conn := newTestCatalog(t)
	ctx := context.Background()

	refreshed := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, c.UpsertInfo(ctx, &model.AnimeInfo{AniDBID: 77, EpisodeCount: 12, UpdatedAt: refreshed}))
	require.NoError(t, conn.Model(&model.AnimeInfo{}).Where("anidb_id = ?", 77).UpdateColumn("updated_at", refreshed).Error)

	last, err := c.GetLastUpdated(ctx, 77)
	require.NoError(t, err)
	require.NotNil(t, last, "an info row without episodes still counts as refreshed")
	assert.WithinDuration(t, refreshed, *last, time.Second)
}

func TestGetLastUpdated_NewerOfInfoAndEpisodes(t *testing.T) {
	c, conn := newTestCatalog(t)
	ctx := context.Background()

	infoTime := time.Now().Add(-10 * 24 * time.Hour).UTC().Truncate(time.Second)
	episodeTime := time.Now().Add(-2 * 24 * time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, c.UpsertInfo(ctx, &model.AnimeInfo{AniDBID: 5, UpdatedAt: infoTime}))
	require.NoError(t, conn.Model(&model.AnimeInfo{}).Where("anidb_id = ?", 5).UpdateColumn("updated_at", infoTime).Error)
	require.NoError(t, c.UpsertEpisodes(ctx, []model.AnimeEpisode{{AniDBID: 5, EpisodeNo: 1, UpdatedAt: episodeTime}}))
	require.NoError(t, conn.Model(&model.AnimeEpisode{}).Where("anidb_id = ?", 5).UpdateColumn("updated_at", episodeTime).Error)

	last, err := c.GetLastUpdated(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.WithinDuration(t, episodeTime, *last, time.Second)

	// A later info refresh wins over older episode rows.
	require.NoError(t, conn.Model(&model.AnimeInfo{}).Where("anidb_id = ?", 5).UpdateColumn("updated_at", episodeTime.Add(time.Hour)).Error)
	last, err = c.GetLastUpdated(ctx, 5)
	require.NoError(t, err)
	assert.WithinDuration(t, episodeTime.Add(time.Hour), *last, time.Second)
}

func TestFindIdentityByTitle_WildcardManyCandidates(t *testing.T) {
	c, conn := newTestCatalog(t)

	// More long matches with low ids than the candidate cap.
	titles := make([]model.AnimeTitle, 0, maxWildcardCandidates+11)
	for i := 1; i <= maxWildcardCandidates+10; i++ {
		titles = append(titles, model.AnimeTitle{
			AniDBID: i,
			Type:    "synonym",
			Lang:    "en",
			Title:   fmt.Sprintf("Great Anime Spinoff Number %03d Extended", i),
		})
	}
	titles = append(titles, model.AnimeTitle{AniDBID: 9000, Type: "main", Lang: "x-jat", Title: "Great Anime!"})
	require.NoError(t, conn.CreateInBatches(titles, 100).Error)

	id, err := c.FindIdentityByTitle(context.Background(), WildcardTitle("Great Anime"))
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, 9000, id.ID)
}
