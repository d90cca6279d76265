// Package loans reads borrower records and aggregates default rates per rating.
package loans

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	DefaultScoreColumn   = "fico_score"
	DefaultDefaultColumn = "default"
)

var ErrMissingColumn = errors.New("missing column")

// Columns names the CSV header fields to read.
type Columns struct {
	Score   string
	Default string
}

func DefaultColumns() Columns {
	return Columns{Score: DefaultScoreColumn, Default: DefaultDefaultColumn}
}

type Record struct {
	Score     float64
	Defaulted bool
}

// LoadCSV reads records from r. Rows whose score or default flag is empty or
// not numeric are dropped.
func LoadCSV(r io.Reader, cols Columns) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read csv header")
	}

	scoreIdx := slices.Index(trimAll(header), cols.Score)
	if scoreIdx < 0 {
		return nil, errors.Wrapf(ErrMissingColumn, "%q", cols.Score)
	}
	defaultIdx := slices.Index(trimAll(header), cols.Default)
	if defaultIdx < 0 {
		return nil, errors.Wrapf(ErrMissingColumn, "%q", cols.Default)
	}

	var records []Record
	dropped := 0
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read csv line %d", line)
		}

		record, ok := parseRow(row, scoreIdx, defaultIdx)
		if !ok {
			dropped++
			log.Trace().Int("line", line).Strs("row", row).Msg("dropping incomplete row")
			continue
		}
		records = append(records, record)
	}

	log.Debug().Int("records", len(records)).Int("dropped", dropped).Msg("loaded loan records")
	return records, nil
}

// LoadCSVFile opens path and reads it with LoadCSV.
func LoadCSVFile(path string, cols Columns) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open loan data")
	}
	defer f.Close()

	return LoadCSV(f, cols)
}

// Scores returns the record scores sorted ascending.
func Scores(records []Record) []float64 {
	scores := make([]float64, len(records))
	for i, r := range records {
		scores[i] = r.Score
	}
	slices.Sort(scores)
	return scores
}

func parseRow(row []string, scoreIdx, defaultIdx int) (Record, bool) {
	if scoreIdx >= len(row) || defaultIdx >= len(row) {
		return Record{}, false
	}

	score, ok := parseNumber(row[scoreIdx])
	if !ok {
		return Record{}, false
	}
	flag, ok := parseNumber(row[defaultIdx])
	if !ok {
		return Record{}, false
	}

	return Record{Score: score, Defaulted: flag != 0}, true
}

func parseNumber(field string) (float64, bool) {
	field = strings.TrimSpace(field)
	if field == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func trimAll(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.TrimSpace(f)
	}
	return out
}
