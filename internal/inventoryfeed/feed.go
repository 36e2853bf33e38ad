// Package inventoryfeed reads gzipped CSV stock feeds from suppliers or the
// warehouse system. Each row is "productId,action,quantity" where action is
// set, add or subtract. Feeds are applied through the bulk stock path.
package inventoryfeed

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"divyashree/internal/model"

	"github.com/google/uuid"
)

// Loader fetches and parses a named feed.
type Loader interface {
	Load(ctx context.Context, name string) (*Feed, error)
}

// Feed is a parsed stock feed.
type Feed struct {
	Name     string              `json:"name"`
	Updates  []model.StockUpdate `json:"-"`
	Rejected []Rejected          `json:"rejected"`
}

// Rejected is a feed row that could not be parsed.
type Rejected struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

const checkEvery = 10_000

// Parse reads a gzipped CSV feed from r. Malformed rows are collected in
// Rejected; only I/O and decompression failures abort the parse.
func Parse(ctx context.Context, name string, r io.Reader) (*Feed, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", name, err)
	}
	defer gz.Close()

	reader := csv.NewReader(gz)
	reader.Comment = '#'
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	feed := &Feed{Name: name}
	for row := 0; ; row++ {
		if row%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				feed.Rejected = append(feed.Rejected, Rejected{Line: perr.Line, Error: perr.Err.Error()})
				continue
			}
			return nil, fmt.Errorf("error reading feed %s: %w", name, err)
		}

		if row == 0 && strings.EqualFold(strings.TrimSpace(record[0]), "productId") {
			continue
		}

		update, err := parseRecord(record)
		if err != nil {
			line, _ := reader.FieldPos(0)
			feed.Rejected = append(feed.Rejected, Rejected{Line: line, Error: err.Error()})
			continue
		}
		feed.Updates = append(feed.Updates, update)
	}

	return feed, nil
}

func parseRecord(record []string) (model.StockUpdate, error) {
	id, err := uuid.Parse(strings.TrimSpace(record[0]))
	if err != nil {
		return model.StockUpdate{}, fmt.Errorf("invalid product id %q", record[0])
	}

	action := model.StockAction(strings.ToLower(strings.TrimSpace(record[1])))
	if !action.Valid() {
		return model.StockUpdate{}, fmt.Errorf("invalid action %q", record[1])
	}

	qty, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil || qty < 0 {
		return model.StockUpdate{}, fmt.Errorf("invalid quantity %q", record[2])
	}

	return model.StockUpdate{ProductID: id, Action: action, Quantity: qty}, nil
}
