package anidb

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pokerjest/animatch/internal/model"
	"github.com/rs/zerolog/log"
)

// AnimeFetcher is the remote side of the populator.
type AnimeFetcher interface {
	GetAnime(ctx context.Context, aid int) (*Anime, error)
}

// DetailWriter persists what the populator fetched.
type DetailWriter interface {
	UpsertInfo(ctx context.Context, info *model.AnimeInfo) error
	UpsertEpisodes(ctx context.Context, episodes []model.AnimeEpisode) error
}

// Populator refreshes anidb_info and anidb_episodes for one anime at a time.
type Populator struct {
	fetcher AnimeFetcher
	writer  DetailWriter
	now     func() time.Time
}

func NewPopulator(fetcher AnimeFetcher, writer DetailWriter) *Populator {
	return &Populator{fetcher: fetcher, writer: writer, now: time.Now}
}

// Populate fetches aid from AniDB and upserts its info and regular episodes.
// Every stored episode gets the same updated_at, the time of this refresh.
func (p *Populator) Populate(ctx context.Context, aid int) error {
	anime, err := p.fetcher.GetAnime(ctx, aid)
	if err != nil {
		return fmt.Errorf("fetch anime %d: %w", aid, err)
	}
	if anime == nil {
		return nil
	}

	now := p.now().UTC()
	info := &model.AnimeInfo{
		AniDBID:      aid,
		Type:         strings.TrimSpace(anime.Type),
		EpisodeCount: anime.EpisodeCount,
		StartDate:    ParseDate(anime.StartDate),
		EndDate:      ParseDate(anime.EndDate),
		Description:  strings.TrimSpace(anime.Description),
		Picture:      strings.TrimSpace(anime.Picture),
		UpdatedAt:    now,
	}
	if r, err := strconv.ParseFloat(strings.TrimSpace(anime.Ratings.Permanent), 64); err == nil {
		info.Rating = r
	}
	if err := p.writer.UpsertInfo(ctx, info); err != nil {
		return err
	}

	episodes := make([]model.AnimeEpisode, 0, len(anime.Episodes))
	seen := make(map[int]bool, len(anime.Episodes))
	for _, ep := range anime.Episodes {
		if !ep.Regular() {
			continue
		}
		n, ok := ep.Number()
		if !ok || seen[n] {
			continue
		}
		seen[n] = true
		episodes = append(episodes, model.AnimeEpisode{
			AniDBID:      aid,
			EpisodeNo:    n,
			EpisodeTitle: ep.PreferredTitle(),
			Airdate:      ParseDate(ep.Airdate),
			UpdatedAt:    now,
		})
	}
	if err := p.writer.UpsertEpisodes(ctx, episodes); err != nil {
		return err
	}

	log.Debug().Int("anidb_id", aid).Int("episodes", len(episodes)).Msg("populated anime from AniDB")
	return nil
}
