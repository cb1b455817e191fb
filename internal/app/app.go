package app

import (
	"github.com/pokerjest/animatch/internal/anidb"
	"github.com/pokerjest/animatch/internal/catalog"
	"github.com/pokerjest/animatch/internal/config"
	"github.com/pokerjest/animatch/internal/event"
	"github.com/pokerjest/animatch/internal/matcher"
	"github.com/pokerjest/animatch/internal/store"
	"gorm.io/gorm"
)

// App holds the components both binaries share.
type App struct {
	Catalog   *catalog.Catalog
	Releases  *store.Releases
	Client    *anidb.Client
	Populator *anidb.Populator
	Matcher   *matcher.Matcher
	Cooldown  *matcher.Cooldown
	Runner    *matcher.Runner
	Bus       *event.InMemoryBus
}

// New wires the matcher stack over conn using cfg.
func New(cfg *config.Config, conn *gorm.DB) *App {
	client := anidb.NewClient(cfg.AniDB.Client, cfg.AniDB.ClientVersion, cfg.AniDB.Timeout)
	if cfg.AniDB.BaseURL != "" {
		client.BaseURL = cfg.AniDB.BaseURL
	}
	if cfg.AniDB.TitlesURL != "" {
		client.TitlesURL = cfg.AniDB.TitlesURL
	}
	client.SetProxy(cfg.AniDB.Proxy)

	cat := catalog.New(conn)
	releases := store.NewReleases(conn)
	populator := anidb.NewPopulator(client, cat)
	cooldown := matcher.NewCooldown()
	bus := event.NewInMemoryBus()

	m := matcher.NewMatcher(cat, populator, releases, cooldown)
	return &App{
		Catalog:   cat,
		Releases:  releases,
		Client:    client,
		Populator: populator,
		Matcher:   m,
		Cooldown:  cooldown,
		Runner:    matcher.NewRunner(releases, m, cooldown, bus, cfg.Matcher.MaxProcessed),
		Bus:       bus,
	}
}
