package matcher

import (
	"context"
	"time"
)

// FreshnessWindow is how long an identity's episode rows are trusted before
// AniDB may be asked again.
const FreshnessWindow = 7 * 24 * time.Hour

// LastUpdatedReader is the slice of the catalog the gate needs.
type LastUpdatedReader interface {
	GetLastUpdated(ctx context.Context, aid int) (*time.Time, error)
}

type FreshnessGate struct {
	reader LastUpdatedReader
	now    func() time.Time
	window time.Duration
}

func NewFreshnessGate(reader LastUpdatedReader) *FreshnessGate {
	return &FreshnessGate{reader: reader, now: time.Now, window: FreshnessWindow}
}

// IsFreshEnough is true when the identity has episode rows updated less than
// the window ago. An identity without any rows is never fresh.
func (g *FreshnessGate) IsFreshEnough(ctx context.Context, aid int) (bool, error) {
	last, err := g.reader.GetLastUpdated(ctx, aid)
	if err != nil {
		return false, err
	}
	if last == nil {
		return false, nil
	}
	return g.now().Sub(*last) < g.window, nil
}
