package matcher

import (
	"context"
	"testing"
	"time"

	"github.com/pokerjest/animatch/internal/catalog"
	"github.com/pokerjest/animatch/internal/parser"
	"github.com/pokerjest/animatch/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_RemoteEnrichment(t *testing.T) {
	cat := newFakeCatalog()
	cat.titles["Great Anime"] = 77
	enr := &fakeEnricher{catalog: cat, adds: map[episodeKey]string{{77, 3}: "Third"}}
	st := newFakeStore()
	p := &recordingPauser{}
	m := NewMatcher(cat, enr, st, p)

	out, err := m.Resolve(context.Background(), store.PendingRelease{ID: 42, SearchName: "[Fans] Great Anime - 03 [480p]"})
	require.NoError(t, err)

	assert.True(t, out.Matched)
	assert.Equal(t, 77, out.Identity.ID)
	assert.Equal(t, "Great Anime", out.Title)
	assert.Equal(t, 3, out.Episode)
	assert.Equal(t, ProvenanceRemote, out.Provenance)
	require.NotNil(t, out.Detail)
	assert.Equal(t, "Third", out.Detail.Title)
	assert.Equal(t, []int{77}, enr.calls)
	assert.Equal(t, 1, p.calls, "pause after enrichment")
	assert.Equal(t, 77, st.written[42])
	assert.Equal(t, 0, out.StatusCode())
}

func TestResolve_PersistsEvenWhenEnrichmentFails(t *testing.T) {
	cat := newFakeCatalog()
	cat.titles["Great Anime"] = 77
	enr := &fakeEnricher{catalog: cat, err: errBoom}
	st := newFakeStore()
	m := NewMatcher(cat, enr, st, nil)

	out, err := m.Resolve(context.Background(), store.PendingRelease{ID: 42, SearchName: "[Fans] Great Anime - 03 [480p]"})
	require.NoError(t, err)

	assert.True(t, out.Matched)
	assert.Nil(t, out.Detail)
	assert.Equal(t, ProvenanceRemote, out.Provenance)
	assert.Equal(t, 77, st.written[42])
}

func TestResolve_LocalDetail(t *testing.T) {
	cat := newFakeCatalog()
	cat.titles["Great Anime"] = 77
	cat.episodes[episodeKey{77, 3}] = "Third"
	cat.updated[77] = time.Now().Add(-30 * 24 * time.Hour)
	enr := &fakeEnricher{catalog: cat}
	p := &recordingPauser{}
	st := newFakeStore()
	m := NewMatcher(cat, enr, st, p)

	out, err := m.Resolve(context.Background(), store.PendingRelease{ID: 1, SearchName: "[Fans] Great Anime - 03 [480p]"})
	require.NoError(t, err)

	assert.Equal(t, ProvenanceLocal, out.Provenance)
	assert.Empty(t, enr.calls, "stored detail means no AniDB call")
	assert.Zero(t, p.calls)
	assert.Equal(t, 77, st.written[1])
}

func TestResolve_FreshIdentitySkipsEnrichment(t *testing.T) {
	cat := newFakeCatalog()
	cat.titles["Great Anime"] = 77
	cat.episodes[episodeKey{77, 1}] = "First"
	cat.updated[77] = time.Now().Add(-6 * 24 * time.Hour)
	enr := &fakeEnricher{catalog: cat}
	st := newFakeStore()
	m := NewMatcher(cat, enr, st, nil)

	out, err := m.Resolve(context.Background(), store.PendingRelease{ID: 5, SearchName: "[Fans] Great Anime - 03 [480p]"})
	require.NoError(t, err)

	assert.True(t, out.Matched)
	assert.Equal(t, ProvenanceLocal, out.Provenance)
	assert.Nil(t, out.Detail)
	assert.Empty(t, enr.calls)
	assert.Equal(t, 77, st.written[5])
}

func TestResolve_WildcardFallback(t *testing.T) {
	cat := newFakeCatalog()
	cat.titles["Great Anime: The Series"] = 91
	cat.episodes[episodeKey{91, 2}] = "Second"
	st := newFakeStore()
	m := NewMatcher(cat, &fakeEnricher{catalog: cat}, st, nil)

	out, err := m.Resolve(context.Background(), store.PendingRelease{ID: 7, SearchName: "[Fans] Great Anime - 02 [480p]"})
	require.NoError(t, err)

	assert.True(t, out.Matched)
	assert.Equal(t, 91, out.Identity.ID)
	assert.Equal(t, []string{"Great Anime", "%Great%Anime%"}, cat.lookups)
}

func TestResolve_ExtractionFailed(t *testing.T) {
	cat := newFakeCatalog()
	st := newFakeStore()
	m := NewMatcher(cat, &fakeEnricher{catalog: cat}, st, nil)

	out, err := m.Resolve(context.Background(), store.PendingRelease{ID: 9, SearchName: "zzz_invalid_name_zzz"})
	require.NoError(t, err)

	assert.False(t, out.Matched)
	assert.Equal(t, parser.ReasonExtractionFailed, out.Reason)
	assert.Equal(t, -1, out.StoreValue())
	assert.Empty(t, cat.lookups, "catalog is not consulted")
	assert.Empty(t, st.written, "runner records the sentinel, not Resolve")
}

func TestResolve_NoMatch(t *testing.T) {
	cat := newFakeCatalog()
	enr := &fakeEnricher{catalog: cat}
	m := NewMatcher(cat, enr, newFakeStore(), nil)

	out, err := m.Resolve(context.Background(), store.PendingRelease{ID: 9, SearchName: "[Fans] Unknown Show - 01 [480p]"})
	require.NoError(t, err)

	assert.False(t, out.Matched)
	assert.Equal(t, parser.ReasonNoMatch, out.Reason)
	assert.Equal(t, -2, out.StoreValue())
	assert.Equal(t, "Unknown Show", out.Title)
	assert.Empty(t, enr.calls)
}

func TestResolve_NonPositiveIdentityIsNoMatch(t *testing.T) {
	cat := newFakeCatalog()
	cat.titles["Great Anime"] = 0
	m := NewMatcher(cat, &fakeEnricher{catalog: cat}, newFakeStore(), nil)

	out, err := m.Resolve(context.Background(), store.PendingRelease{ID: 9, SearchName: "[Fans] Great Anime - 01 [480p]"})
	require.NoError(t, err)
	assert.Equal(t, parser.ReasonNoMatch, out.Reason)
}

func TestResolve_CatalogError(t *testing.T) {
	cat := newFakeCatalog()
	cat.err = errBoom
	m := NewMatcher(cat, &fakeEnricher{catalog: cat}, newFakeStore(), nil)

	_, err := m.Resolve(context.Background(), store.PendingRelease{ID: 9, SearchName: "[Fans] Great Anime - 01 [480p]"})
	assert.ErrorIs(t, err, errBoom)
}

func TestResolve_StoreError(t *testing.T) {
	cat := newFakeCatalog()
	cat.titles["Great Anime"] = 77
	cat.episodes[episodeKey{77, 1}] = "First"
	st := newFakeStore()
	st.writeErr = errBoom
	m := NewMatcher(cat, &fakeEnricher{catalog: cat}, st, nil)

	_, err := m.Resolve(context.Background(), store.PendingRelease{ID: 9, SearchName: "[Fans] Great Anime - 01 [480p]"})
	assert.ErrorIs(t, err, errBoom)
}

func TestOutcomeStoreValue(t *testing.T) {
	assert.Equal(t, 12, Outcome{Matched: true, Identity: &catalog.Identity{ID: 12}}.StoreValue())
	assert.Equal(t, -2, Outcome{Reason: parser.ReasonNoMatch}.StoreValue())
}
