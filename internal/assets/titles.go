package assets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/filmiq/filmiq/internal/engine"
)

// SuggestLimit is the default number of autocomplete suggestions.
const SuggestLimit = 10

// TitleIndex answers autocomplete queries over the known movie titles.
type TitleIndex struct {
	titles []string
	folded []string
}

// LoadTitles reads the titles CSV: a header row, then the title in the first
// column of each record.
func LoadTitles(r io.Reader) (*TitleIndex, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	idx := &TitleIndex{}
	seen := make(map[string]bool)
	header := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading titles: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(rec) == 0 {
			continue
		}
		title := strings.TrimSpace(strings.Trim(rec[0], `"`))
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true
		idx.titles = append(idx.titles, title)
		idx.folded = append(idx.folded, engine.Normalize(title))
	}
	return idx, nil
}

// NewTitleIndex builds an index from titles already in memory.
func NewTitleIndex(titles []string) *TitleIndex {
	idx := &TitleIndex{}
	for _, t := range titles {
		idx.titles = append(idx.titles, t)
		idx.folded = append(idx.folded, engine.Normalize(t))
	}
	return idx
}

// Len is the number of titles.
func (t *TitleIndex) Len() int { return len(t.titles) }

// Suggest returns up to limit titles containing query, ignoring case, in
// file order. An empty query matches nothing.
func (t *TitleIndex) Suggest(query string, limit int) []string {
	q := engine.Normalize(query)
	if q == "" || limit <= 0 {
		return nil
	}
	var out []string
	for i, f := range t.folded {
		if strings.Contains(f, q) {
			out = append(out, t.titles[i])
			if len(out) == limit {
				break
			}
		}
	}
	return out
}
