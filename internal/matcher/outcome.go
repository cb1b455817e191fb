package matcher

import (
	"github.com/pokerjest/animatch/internal/catalog"
	"github.com/pokerjest/animatch/internal/parser"
)

// Provenance tells whether a match came from cached data or needed an AniDB refresh.
type Provenance string

const (
	ProvenanceLocal  Provenance = "Local"
	ProvenanceRemote Provenance = "Remote"
)

// Outcome is the result of resolving one release: either Matched with an
// Identity, or unresolved with a Reason.
type Outcome struct {
	ReleaseID  int64                  `json:"release_id"`
	Matched    bool                   `json:"matched"`
	Identity   *catalog.Identity      `json:"identity,omitempty"`
	Reason     parser.Reason          `json:"reason"`
	Provenance Provenance             `json:"provenance,omitempty"`
	Title      string                 `json:"title"` // parsed title
	Episode    int                    `json:"episode"`
	Detail     *catalog.EpisodeDetail `json:"detail,omitempty"` // nil when episode detail is still unknown
}

// StatusCode is 0 for a match and the negative failure code otherwise.
func (o Outcome) StatusCode() int {
	if o.Matched {
		return 0
	}
	return int(o.Reason)
}

// StoreValue encodes the outcome for releases.anidb_id: the positive AniDB id
// on a match, the negative reason code otherwise.
func (o Outcome) StoreValue() int {
	if o.Matched && o.Identity != nil {
		return o.Identity.ID
	}
	return int(o.Reason)
}

func unresolved(releaseID int64, reason parser.Reason, c parser.Candidate) Outcome {
	return Outcome{
		ReleaseID: releaseID,
		Reason:    reason,
		Title:     c.Title,
		Episode:   c.Episode,
	}
}
