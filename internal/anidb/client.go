package anidb

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL   = "http://api.anidb.net:9001"
	DefaultTitlesURL = "http://anidb.net/api/anime-titles.dat.gz"
	protocolVersion  = "1"
	userAgent        = "pokerjest/animatch/1.0 (https://github.com/pokerjest/animatch)"
)

// APIError is an <error> document returned by the HTTP API (bans, bad client, unknown aid).
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("anidb api error %s: %s", e.Code, e.Message)
	}
	return "anidb api error: " + e.Message
}

type Client struct {
	BaseURL       string
	TitlesURL     string
	ClientName    string
	ClientVersion int
	client        *resty.Client
}

func NewClient(clientName string, clientVersion int, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:       DefaultBaseURL,
		TitlesURL:     DefaultTitlesURL,
		ClientName:    clientName,
		ClientVersion: clientVersion,
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", userAgent),
	}
}

func (c *Client) SetProxy(proxyURL string) {
	if proxyURL != "" {
		c.client.SetProxy(proxyURL)
	}
}

// Anime is the subset of the HTTP API anime document we keep.
type Anime struct {
	XMLName      xml.Name  `xml:"anime"`
	ID           int       `xml:"id,attr"`
	Type         string    `xml:"type"`
	EpisodeCount int       `xml:"episodecount"`
	StartDate    string    `xml:"startdate"`
	EndDate      string    `xml:"enddate"`
	Titles       []Title   `xml:"titles>title"`
	Description  string    `xml:"description"`
	Picture      string    `xml:"picture"`
	Ratings      Ratings   `xml:"ratings"`
	Episodes     []Episode `xml:"episodes>episode"`
}

type Title struct {
	Lang  string `xml:"http://www.w3.org/XML/1998/namespace lang,attr"`
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type Ratings struct {
	Permanent string `xml:"permanent"`
}

type Episode struct {
	ID      int     `xml:"id,attr"`
	Update  string  `xml:"update,attr"`
	EpNo    EpNo    `xml:"epno"`
	Length  int     `xml:"length"`
	Airdate string  `xml:"airdate"`
	Titles  []Title `xml:"title"`
}

type EpNo struct {
	Type  int    `xml:"type,attr"`
	Value string `xml:",chardata"`
}

// Regular reports whether the episode is a normal numbered episode (not a special, trailer, ...).
func (e Episode) Regular() bool {
	return e.EpNo.Type == 1
}

// Number parses the episode number; ok is false for non-numeric numbers like "S1".
func (e Episode) Number() (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(e.EpNo.Value))
	if err != nil {
		return 0, false
	}
	return n, true
}

// PreferredTitle picks the English title, then the romaji one, then whatever comes first.
func (e Episode) PreferredTitle() string {
	for _, lang := range []string{"en", "x-jat"} {
		for _, t := range e.Titles {
			if t.Lang == lang && strings.TrimSpace(t.Value) != "" {
				return strings.TrimSpace(t.Value)
			}
		}
	}
	if len(e.Titles) > 0 {
		return strings.TrimSpace(e.Titles[0].Value)
	}
	return ""
}

type apiErrorDoc struct {
	XMLName xml.Name `xml:"error"`
	Code    string   `xml:"code,attr"`
	Message string   `xml:",chardata"`
}

// GetAnime fetches the anime document for aid.
func (c *Client) GetAnime(ctx context.Context, aid int) (*Anime, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"request":   "anime",
			"client":    c.ClientName,
			"clientver": strconv.Itoa(c.ClientVersion),
			"protover":  protocolVersion,
			"aid":       strconv.Itoa(aid),
		}).
		Get(strings.TrimRight(c.BaseURL, "/") + "/httpapi")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("anidb request for %d failed: %s", aid, resp.Status())
	}

	body, err := maybeGunzip(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("decompress anime %d: %w", aid, err)
	}

	if rootElement(body) == "error" {
		var doc apiErrorDoc
		if err := xml.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("xml unmarshal error: %v", err)
		}
		return nil, &APIError{Code: doc.Code, Message: strings.TrimSpace(doc.Message)}
	}

	var anime Anime
	if err := xml.Unmarshal(body, &anime); err != nil {
		return nil, fmt.Errorf("xml unmarshal error: %v", err)
	}
	return &anime, nil
}

// FetchTitleDump downloads the anime-titles dump and returns it uncompressed.
func (c *Client) FetchTitleDump(ctx context.Context) (io.Reader, error) {
	resp, err := c.client.R().SetContext(ctx).Get(c.TitlesURL)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("title dump download failed: %s", resp.Status())
	}
	body, err := maybeGunzip(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("decompress title dump: %w", err)
	}
	return bytes.NewReader(body), nil
}

func rootElement(body []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local
		}
	}
}

// maybeGunzip inflates body when it carries the gzip magic; the API
// compresses regardless of Accept-Encoding.
func maybeGunzip(body []byte) ([]byte, error) {
	if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
		return body, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// ParseDate parses the YYYY-MM-DD dates used by the API; partial or empty dates yield nil.
func ParseDate(s string) *time.Time {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &t
}
