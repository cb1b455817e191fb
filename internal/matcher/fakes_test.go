package matcher

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pokerjest/animatch/internal/catalog"
	"github.com/pokerjest/animatch/internal/store"
)

type episodeKey struct{ aid, ep int }

type fakeCatalog struct {
	titles   map[string]int
	episodes map[episodeKey]string
	updated  map[int]time.Time
	lookups  []string
	err      error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		titles:   map[string]int{},
		episodes: map[episodeKey]string{},
		updated:  map[int]time.Time{},
	}
}

func (f *fakeCatalog) FindIdentityByTitle(_ context.Context, title string) (*catalog.Identity, error) {
	f.lookups = append(f.lookups, title)
	if f.err != nil {
		return nil, f.err
	}
	if !strings.Contains(title, catalog.Wildcard) {
		if id, ok := f.titles[title]; ok {
			return &catalog.Identity{ID: id, Title: title}, nil
		}
		return nil, nil
	}
	words := strings.Fields(strings.ReplaceAll(title, catalog.Wildcard, " "))
	for t, id := range f.titles {
		hit := true
		for _, w := range words {
			if !strings.Contains(t, w) {
				hit = false
				break
			}
		}
		if hit {
			return &catalog.Identity{ID: id, Title: t}, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) FindEpisodeDetail(_ context.Context, aid, episode int) (*catalog.EpisodeDetail, error) {
	title, ok := f.episodes[episodeKey{aid, episode}]
	if !ok {
		return nil, nil
	}
	return &catalog.EpisodeDetail{AniDBID: aid, Episode: episode, Title: title, UpdatedAt: f.updated[aid]}, nil
}

func (f *fakeCatalog) GetLastUpdated(_ context.Context, aid int) (*time.Time, error) {
	t, ok := f.updated[aid]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// fakeEnricher optionally adds episode rows to the catalog when called.
type fakeEnricher struct {
	calls   []int
	err     error
	catalog *fakeCatalog
	adds    map[episodeKey]string
}

func (f *fakeEnricher) Populate(_ context.Context, aid int) error {
	f.calls = append(f.calls, aid)
	if f.err != nil {
		return f.err
	}
	for k, v := range f.adds {
		f.catalog.episodes[k] = v
		f.catalog.updated[k.aid] = time.Now()
	}
	return nil
}

type fakeStore struct {
	pending  []store.PendingRelease
	written  map[int64]int
	limit    int
	category int
	writeErr error
}

func newFakeStore(pending ...store.PendingRelease) *fakeStore {
	return &fakeStore{pending: pending, written: map[int64]int{}}
}

func (f *fakeStore) SelectUnresolved(_ context.Context, category, limit int) ([]store.PendingRelease, error) {
	f.category, f.limit = category, limit
	var out []store.PendingRelease
	for _, rel := range f.pending {
		if _, done := f.written[rel.ID]; done {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, rel)
	}
	return out, nil
}

func (f *fakeStore) SetResolvedIdentity(_ context.Context, releaseID int64, value int) (bool, error) {
	if f.writeErr != nil {
		return false, f.writeErr
	}
	if _, ok := f.written[releaseID]; ok {
		return false, nil
	}
	f.written[releaseID] = value
	return true, nil
}

type recordingPauser struct{ calls int }

func (p *recordingPauser) Pause() time.Duration {
	p.calls++
	return 0
}

var errBoom = errors.New("boom")
