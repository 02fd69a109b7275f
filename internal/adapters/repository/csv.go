package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/okian/spotrank/internal/domain/model"
	"github.com/okian/spotrank/internal/domain/types"
)

// ParseCSV reads locations from a CSV document whose first row is a header.
// Every column in types.RequiredColumns must be present; any other column is
// kept as a string attribute. Rows are returned in file order.
func ParseCSV(r io.Reader) ([]model.Location, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header row", ErrMalformedDataset)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDataset, err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		header[i] = h
		index[h] = i
	}
	var missing []string
	for _, col := range types.RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required columns: %s", ErrMalformedDataset, strings.Join(missing, ", "))
	}
	required := make(map[int]bool, len(types.RequiredColumns))
	for _, col := range types.RequiredColumns {
		required[index[col]] = true
	}

	var locs []model.Location
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDataset, err)
		}

		p := rowParser{row: row, index: index, line: line}
		loc := model.Location{
			Name:            p.text(types.ColumnName),
			Latitude:        p.number(types.ColumnLatitude),
			Longitude:       p.number(types.ColumnLongitude),
			UserRating:      p.number(types.ColumnUserRating),
			NumberOfRatings: p.number(types.ColumnNumberOfRatings),
			CurrentCapacity: p.number(types.ColumnCurrentCapacity),
			MaxCapacity:     p.positive(types.ColumnMaxCapacity),
		}
		if p.err == nil && math.IsInf(loc.CurrentCapacity/loc.MaxCapacity, 0) {
			p.err = fmt.Errorf("%w: line %d: %s/%s overflows", ErrMalformedDataset, line,
				types.ColumnCurrentCapacity, types.ColumnMaxCapacity)
		}
		if p.err != nil {
			return nil, p.err
		}
		for i, h := range header {
			if required[i] || h == "" {
				continue
			}
			if loc.Attributes == nil {
				loc.Attributes = make(map[string]string)
			}
			loc.Attributes[h] = row[i]
		}
		locs = append(locs, loc)
	}
	return locs, nil
}

// rowParser extracts typed cells from one CSV row, keeping the first error.
type rowParser struct {
	row   []string
	index map[string]int
	line  int
	err   error
}

func (p *rowParser) text(col string) string {
	return strings.TrimSpace(p.row[p.index[col]])
}

func (p *rowParser) number(col string) float64 {
	if p.err != nil {
		return 0
	}
	raw := p.text(col)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		p.err = fmt.Errorf("%w: line %d column %q: %q is not a number", ErrMalformedDataset, p.line, col, raw)
		return 0
	}
	return v
}

func (p *rowParser) positive(col string) float64 {
	v := p.number(col)
	if p.err == nil && v <= 0 {
		p.err = fmt.Errorf("%w: line %d column %q: %v must be greater than 0", ErrMalformedDataset, p.line, col, v)
	}
	return v
}
