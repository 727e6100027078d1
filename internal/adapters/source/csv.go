// Package source reads ball-by-ball match logs from a CSV directory.
package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/creaselab/crease/internal/domain/model"
)

// dateLayout matches the start_date column of the match files.
const dateLayout = "2006-01-02"

// Sentinel kinds for source errors.
var (
	ErrMissingColumn = errors.New("missing column")
	ErrEmptyMatch    = errors.New("match file has no deliveries")
)

// columns required from every match file.
var columns = []string{
	"venue", "start_date", "season",
	"striker", "bowler", "runs_off_bat", "wides", "noballs", "wicket_type",
}

// Source discovers and parses match files in a directory. Each match is one
// <id>.csv file; <id>info.csv auxiliary files are ignored. Files are ordered
// ascending by numeric id so rating trajectories are deterministic.
type Source struct {
	dir string
}

// New creates a source over the given directory.
func New(dir string) *Source {
	return &Source{dir: dir}
}

// List returns the ordered match file paths.
func (s *Source) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read match dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, "info.csv") {
			continue
		}
		files = append(files, filepath.Join(s.dir, name))
	}

	sort.Slice(files, func(i, j int) bool {
		a, aok := numericID(files[i])
		b, bok := numericID(files[j])
		if aok && bok {
			return a < b
		}
		return files[i] < files[j]
	})
	return files, nil
}

// MatchID derives the stable match identifier from a file path.
func MatchID(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// Read parses one match file into a MatchContext. Any malformed row or date
// fails this file only; the caller decides whether the run continues.
func (s *Source) Read(ctx context.Context, path string) (model.MatchContext, error) {
	if err := ctx.Err(); err != nil {
		return model.MatchContext{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return model.MatchContext{}, fmt.Errorf("open match file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return model.MatchContext{}, fmt.Errorf("read header of %s: %w", filepath.Base(path), err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return model.MatchContext{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	m := model.MatchContext{ID: MatchID(path)}
	for line := 2; ; line++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.MatchContext{}, fmt.Errorf("read %s line %d: %w", filepath.Base(path), line, err)
		}

		if len(m.Balls) == 0 {
			m.Venue = field(record, idx, "venue")
			m.Season = field(record, idx, "season")
			m.Date, err = time.Parse(dateLayout, field(record, idx, "start_date"))
			if err != nil {
				return model.MatchContext{}, fmt.Errorf("parse start_date in %s: %w", filepath.Base(path), err)
			}
		}

		ball := model.BallEvent{
			Striker:    field(record, idx, "striker"),
			Bowler:     field(record, idx, "bowler"),
			WicketType: field(record, idx, "wicket_type"),
		}
		if ball.RunsOffBat, err = count(record, idx, "runs_off_bat"); err != nil {
			return model.MatchContext{}, fmt.Errorf("%s line %d: %w", filepath.Base(path), line, err)
		}
		if ball.Wides, err = count(record, idx, "wides"); err != nil {
			return model.MatchContext{}, fmt.Errorf("%s line %d: %w", filepath.Base(path), line, err)
		}
		if ball.NoBalls, err = count(record, idx, "noballs"); err != nil {
			return model.MatchContext{}, fmt.Errorf("%s line %d: %w", filepath.Base(path), line, err)
		}
		m.Balls = append(m.Balls, ball)
	}

	if len(m.Balls) == 0 {
		return model.MatchContext{}, fmt.Errorf("%s: %w", filepath.Base(path), ErrEmptyMatch)
	}
	return m, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, want := range columns {
		if _, ok := idx[want]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, want)
		}
	}
	return idx, nil
}

func field(record []string, idx map[string]int, name string) string {
	i := idx[name]
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// count parses a numeric column, treating blank cells as zero.
func count(record []string, idx map[string]int, name string) (int, error) {
	raw := field(record, idx, name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", name, raw, err)
	}
	return n, nil
}

// numericID extracts the leading numeric identifier of a match file name.
func numericID(path string) (int, bool) {
	n, err := strconv.Atoi(MatchID(path))
	if err != nil {
		return 0, false
	}
	return n, true
}
