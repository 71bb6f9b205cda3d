package assets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/filmiq/filmiq/internal/trivia"
)

// quoteFixer maps curly and prime quotes to their ASCII forms.
var quoteFixer = strings.NewReplacer(
	"\u2018", "'", "\u2019", "'", "\u201A", "'", "\u201B", "'", "\u2032", "'", "\u2035", "'",
	"\u201C", `"`, "\u201D", `"`, "\u201E", `"`, "\u201F", `"`, "\u2033", `"`, "\u2036", `"`,
)

// LoadQuestions reads the windows-1252 question bank CSV with columns
// theme,question,a,b,c,d,correct,level where correct is a letter A-D and
// level is 1 (easy) to 3 (hard). Malformed rows are skipped.
func LoadQuestions(r io.Reader) ([]trivia.Question, error) {
	raw, err := io.ReadAll(charmap.Windows1252.NewDecoder().Reader(r))
	if err != nil {
		return nil, fmt.Errorf("decoding questions: %w", err)
	}

	cr := csv.NewReader(strings.NewReader(quoteFixer.Replace(string(raw))))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var qs []trivia.Question
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading questions: %w", err)
		}
		line++
		if line == 1 || len(rec) < 8 {
			continue
		}
		q, ok := parseQuestion(rec)
		if !ok {
			continue
		}
		q.ID = "q" + strconv.Itoa(line)
		qs = append(qs, q)
	}
	return qs, nil
}

func parseQuestion(rec []string) (trivia.Question, bool) {
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	level, err := strconv.Atoi(rec[7])
	if err != nil || !trivia.Level(level).Valid() {
		return trivia.Question{}, false
	}
	correct := strings.ToUpper(rec[6])
	if len(correct) == 0 || correct[0] < 'A' || correct[0] > 'D' {
		return trivia.Question{}, false
	}
	if rec[0] == "" || rec[1] == "" {
		return trivia.Question{}, false
	}
	return trivia.Question{
		Theme:   rec[0],
		Text:    rec[1],
		Options: []string{rec[2], rec[3], rec[4], rec[5]},
		Correct: int(correct[0] - 'A'),
		Level:   trivia.Level(level),
	}, true
}
