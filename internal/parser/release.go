package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// Reason 解析或匹配失败的原因. 数值与 releases.anidb_id 中的哨兵值一致.
type Reason int

const (
	ReasonNone             Reason = 0
	ReasonExtractionFailed Reason = -1 // 无法从名称中提取标题/集数
	ReasonNoMatch          Reason = -2 // 标题在本地目录中没有对应的 AniDB ID
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonExtractionFailed:
		return "extraction_failed"
	case ReasonNoMatch:
		return "no_match"
	}
	return "unknown(" + strconv.Itoa(int(r)) + ")"
}

// Candidate 从发布名称中解析出的 (标题, 集数)
type Candidate struct {
	Title      string `json:"title"`
	Episode    int    `json:"episode"`
	HasEpisode bool   `json:"has_episode"`
	Rule       string `json:"rule,omitempty"` // 命中的规则名
	Failure    Reason `json:"failure"`
}

// OK reports whether the name yielded a usable title and episode.
func (c Candidate) OK() bool {
	return c.Failure == ReasonNone && c.Title != "" && c.HasEpisode && c.Episode >= 0
}

// rule is one step of the cascade. extract returns false when the
// match cannot be turned into a candidate.
type rule struct {
	name    string
	pattern *regexp.Regexp
	extract func(m map[string]string) (Candidate, bool)
}

// Shared fragments. Titles are ASCII word characters plus a little punctuation.
const (
	groupTag   = `(?:\[[a-zA-Z.!?-]+\][\s_]*)?`
	titleChars = `[\w\s.+!?'()-]+`
	boxSet     = `(?:New Edit|(?:Blu-?ray)?(?: ?Box)?(?: ?Set)?)?`
)

var rules = []rule{
	{
		// [Group] Title - 05 [720p], Title Episode 12 (BD), Title Vol.3 [..], Title - Movie [..]
		name: "episode_marker",
		pattern: regexp.MustCompile(`(?i)(?:^|.*")` + groupTag + `(?:\[BD\][\s_]*)?(?:\[\d{3,4}[ip]\][\s_]*)?` +
			`(?P<title>` + titleChars + `?)` + boxSet +
			`(?:[ _]-[ _]|[ ._-]Epi?(?:sode)?[ ._-]?|[ ._-]Vol\.[ ._-]?|[ ._-]E)` +
			`(?P<epno>\d{1,3}|Movie|OVA|Complete Series)(?:v\d|-\d+)?[-_. ].*[\[("]`),
		extract: episodeFromMatch,
	},
	{
		// [Group] Title [BD][1080p], Title (720p)
		name: "disc_release",
		pattern: regexp.MustCompile(`(?i)^` + groupTag + `(?:\[BD\])?(?:\[\d{3,4}[ip]\])?` +
			`(?P<title>` + titleChars + `)` + boxSet + `\s*[(\[](?:BD|\d{3,4}[ipx])`),
		extract: func(m map[string]string) (Candidate, bool) {
			return Candidate{Title: m["title"], Episode: 1, HasEpisode: true}, true
		},
	},
	{
		// [Group] Title - 12 [480p]
		name:    "separator_number",
		pattern: regexp.MustCompile(`^` + groupTag + `(?P<title>[\w -]+)?\s+-\s+(?P<epno>\d+)\s*(?:\[\d+p\])?$`),
		extract: episodeFromMatch,
	},
}

// ParseReleaseName runs the rule cascade over a release search name.
// The first matching rule decides the result; there is no fallthrough.
func ParseReleaseName(name string) Candidate {
	clean := strings.ReplaceAll(name, "_", " ")

	for _, r := range rules {
		m := namedMatch(r.pattern, clean)
		if m == nil {
			continue
		}
		c, ok := r.extract(m)
		if !ok {
			return Candidate{Rule: r.name, Failure: ReasonExtractionFailed}
		}
		c.Title = NormalizeTitle(c.Title)
		if c.Title == "" {
			return Candidate{Rule: r.name, Failure: ReasonExtractionFailed}
		}
		c.Rule = r.name
		return c
	}

	return Candidate{Failure: ReasonExtractionFailed}
}

func episodeFromMatch(m map[string]string) (Candidate, bool) {
	ep := m["epno"]
	switch strings.ToLower(ep) {
	case "movie", "ova", "complete series":
		return Candidate{Title: m["title"], Episode: 1, HasEpisode: true}, true
	}
	n, err := strconv.Atoi(ep)
	if err != nil {
		return Candidate{}, false
	}
	return Candidate{Title: m["title"], Episode: n, HasEpisode: true}, true
}

func namedMatch(re *regexp.Regexp, s string) map[string]string {
	match := re.FindStringSubmatch(s)
	if match == nil {
		return nil
	}
	out := make(map[string]string, 2)
	for i, name := range re.SubexpNames() {
		if name != "" {
			out[name] = match[i]
		}
	}
	return out
}

var spaceRun = regexp.MustCompile(`\s+`)

// NormalizeTitle turns separators into spaces and collapses whitespace.
func NormalizeTitle(raw string) string {
	s := strings.NewReplacer("_", " ", ".", " ").Replace(raw)
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}
