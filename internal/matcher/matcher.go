package matcher

import (
	"context"
	"fmt"
	"time"

	"github.com/pokerjest/animatch/internal/catalog"
	"github.com/pokerjest/animatch/internal/parser"
	"github.com/pokerjest/animatch/internal/store"
	"github.com/rs/zerolog/log"
)

// Catalog is the read side of the local AniDB index.
type Catalog interface {
	FindIdentityByTitle(ctx context.Context, title string) (*catalog.Identity, error)
	FindEpisodeDetail(ctx context.Context, aid, episode int) (*catalog.EpisodeDetail, error)
	GetLastUpdated(ctx context.Context, aid int) (*time.Time, error)
}

// Enricher refreshes an identity's detail rows from AniDB.
type Enricher interface {
	Populate(ctx context.Context, aid int) error
}

// Store is the releases table as seen by the matcher and runner.
type Store interface {
	SelectUnresolved(ctx context.Context, category, limit int) ([]store.PendingRelease, error)
	SetResolvedIdentity(ctx context.Context, releaseID int64, value int) (bool, error)
}

// Matcher resolves a single release: parse, look up the catalog, enrich from
// AniDB when detail is missing and stale, then record the identity.
type Matcher struct {
	catalog  Catalog
	enricher Enricher
	store    Store
	gate     *FreshnessGate
	pauser   Pauser
}

func NewMatcher(c Catalog, e Enricher, s Store, p Pauser) *Matcher {
	if p == nil {
		p = NoPause{}
	}
	return &Matcher{
		catalog:  c,
		enricher: e,
		store:    s,
		gate:     NewFreshnessGate(c),
		pauser:   p,
	}
}

// Resolve runs the per-release algorithm. Unresolved outcomes are returned
// without touching the store; the runner records their sentinel. The error
// is non-nil only for catalog or store failures.
func (m *Matcher) Resolve(ctx context.Context, rel store.PendingRelease) (Outcome, error) {
	cand := parser.ParseReleaseName(rel.SearchName)
	if !cand.OK() {
		log.Debug().
			Int64("release_id", rel.ID).
			Str("name", rel.SearchName).
			Str("rule", cand.Rule).
			Msg("could not extract title and episode")
		return unresolved(rel.ID, parser.ReasonExtractionFailed, cand), nil
	}

	ident, err := m.catalog.FindIdentityByTitle(ctx, cand.Title)
	if err != nil {
		return Outcome{}, err
	}
	if ident == nil {
		ident, err = m.catalog.FindIdentityByTitle(ctx, catalog.WildcardTitle(cand.Title))
		if err != nil {
			return Outcome{}, err
		}
	}
	if ident == nil || ident.ID <= 0 {
		log.Debug().
			Int64("release_id", rel.ID).
			Str("title", cand.Title).
			Int("episode", cand.Episode).
			Msg("no AniDB title match")
		return unresolved(rel.ID, parser.ReasonNoMatch, cand), nil
	}

	out := Outcome{
		ReleaseID:  rel.ID,
		Matched:    true,
		Identity:   ident,
		Provenance: ProvenanceLocal,
		Title:      cand.Title,
		Episode:    cand.Episode,
	}

	detail, err := m.catalog.FindEpisodeDetail(ctx, ident.ID, cand.Episode)
	if err != nil {
		return Outcome{}, err
	}
	if detail == nil {
		fresh, err := m.gate.IsFreshEnough(ctx, ident.ID)
		if err != nil {
			return Outcome{}, err
		}
		if fresh {
			log.Info().Int("anidb_id", ident.ID).Msg("AniDB data updated too recently, skipping refresh")
		} else {
			if err := m.enricher.Populate(ctx, ident.ID); err != nil {
				log.Warn().Err(err).Int("anidb_id", ident.ID).Msg("AniDB refresh failed")
			}
			m.pauser.Pause()
			detail, err = m.catalog.FindEpisodeDetail(ctx, ident.ID, cand.Episode)
			if err != nil {
				return Outcome{}, err
			}
			out.Provenance = ProvenanceRemote
		}
	}
	out.Detail = detail

	if _, err := m.store.SetResolvedIdentity(ctx, rel.ID, ident.ID); err != nil {
		return Outcome{}, fmt.Errorf("record identity for release %d: %w", rel.ID, err)
	}

	episodeTitle := ""
	if detail != nil {
		episodeTitle = detail.Title
	}
	log.Info().
		Str("provenance", string(out.Provenance)).
		Int("anidb_id", ident.ID).
		Str("title", ident.Title).
		Int("episode", cand.Episode).
		Str("episode_title", episodeTitle).
		Msg("release matched")
	return out, nil
}
