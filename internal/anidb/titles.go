package anidb

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pokerjest/animatch/internal/model"
)

// Title types as numbered in anime-titles.dat.
var titleTypes = map[string]string{
	"1": "main",
	"2": "synonym",
	"3": "short",
	"4": "official",
}

// TitleWriter replaces the local title index.
type TitleWriter interface {
	ReplaceTitles(ctx context.Context, titles []model.AnimeTitle) error
}

// ParseTitleDump reads "aid|type|lang|title" lines. Comment lines start with '#'.
func ParseTitleDump(r io.Reader) ([]model.AnimeTitle, error) {
	var titles []model.AnimeTitle

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		parts := strings.SplitN(text, "|", 4)
		if len(parts) != 4 {
			return nil, fmt.Errorf("title dump line %d: expected 4 fields, got %d", line, len(parts))
		}
		aid, err := strconv.Atoi(parts[0])
		if err != nil || aid <= 0 {
			return nil, fmt.Errorf("title dump line %d: invalid aid %q", line, parts[0])
		}
		typ, ok := titleTypes[parts[1]]
		if !ok {
			typ = parts[1]
		}
		title := strings.TrimSpace(parts[3])
		if title == "" {
			continue
		}
		titles = append(titles, model.AnimeTitle{
			AniDBID: aid,
			Type:    typ,
			Lang:    parts[2],
			Title:   title,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read title dump: %w", err)
	}
	return titles, nil
}

// ImportTitles parses a dump and swaps it into the catalog, returning the number of titles stored.
func ImportTitles(ctx context.Context, r io.Reader, w TitleWriter) (int, error) {
	titles, err := ParseTitleDump(r)
	if err != nil {
		return 0, err
	}
	if len(titles) == 0 {
		return 0, fmt.Errorf("title dump is empty")
	}
	if err := w.ReplaceTitles(ctx, titles); err != nil {
		return 0, err
	}
	return len(titles), nil
}

type dumpFile struct {
	io.Reader
	closers []io.Closer
}

func (d *dumpFile) Close() error {
	var first error
	for _, c := range d.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OpenTitleDump opens a local anime-titles.dat, inflating it when gzipped.
func OpenTitleDump(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(f)
	magic, _ := br.Peek(2)
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip title dump: %w", err)
		}
		return &dumpFile{Reader: zr, closers: []io.Closer{zr, f}}, nil
	}
	return &dumpFile{Reader: br, closers: []io.Closer{f}}, nil
}
