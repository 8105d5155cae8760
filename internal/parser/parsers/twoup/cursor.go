package twoup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bangersure/twoupfeed/internal/pkg/models"
)

const (
	defaultWindowHours = 48
	defaultPageSize    = 50
	defaultStartPage   = 1
)

// RunStats are the counters of one completed cursor run.
type RunStats struct {
	Windows    int `json:"windows"`
	Pages      int `json:"pages"`
	Fixtures   int `json:"fixtures"`
	Duplicates int `json:"duplicates"`
}

// Cursor walks the unbounded upcoming-fixture catalog through a sliding
// time window and a page number. The API never reports a total fixture
// count, so termination is empirical: a window that yields no new
// fixtures ends the run. The dedup set persists across windows within
// one run only.
type Cursor struct {
	client      *Client
	windowWidth time.Duration
	pageSize    int
	startPage   int

	seen    map[string]struct{}
	results []models.FixtureRecord
	stats   RunStats
}

func NewCursor(client *Client, windowHours, pageSize, startPage int) *Cursor {
	if windowHours <= 0 {
		windowHours = defaultWindowHours
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if startPage < 1 {
		startPage = defaultStartPage
	}
	return &Cursor{
		client:      client,
		windowWidth: time.Duration(windowHours) * time.Hour,
		pageSize:    pageSize,
		startPage:   startPage,
	}
}

// Run walks windows starting from now until one returns nothing new.
// Any page failure aborts the whole run; transport-level transient
// retries already happened inside the client.
func (c *Cursor) Run(ctx context.Context) ([]models.FixtureRecord, error) {
	c.seen = make(map[string]struct{})
	c.results = nil
	c.stats = RunStats{}

	width := c.windowWidth.Milliseconds()
	startMS := time.Now().UTC().UnixMilli()
	endMS := startMS + width

	for {
		c.stats.Windows++
		slog.Info("2up: window start",
			"window", c.stats.Windows,
			"from", time.UnixMilli(startMS).UTC().Format(time.RFC3339),
			"to", time.UnixMilli(endMS).UTC().Format(time.RFC3339))

		gotNew, err := c.walkWindow(ctx, startMS, endMS)
		if err != nil {
			return nil, err
		}
		if !gotNew {
			slog.Info("2up: window yielded nothing new, run complete",
				"windows", c.stats.Windows, "fixtures", len(c.results), "duplicates", c.stats.Duplicates)
			c.stats.Fixtures = len(c.results)
			return c.results, nil
		}

		startMS = endMS + 1
		endMS = startMS + width
	}
}

// Stats reports the counters of the last Run.
func (c *Cursor) Stats() RunStats {
	return c.stats
}

func (c *Cursor) walkWindow(ctx context.Context, startMS, endMS int64) (bool, error) {
	gotNew := false
	page := c.startPage
	for {
		if err := ctx.Err(); err != nil {
			return gotNew, err
		}

		data, err := c.client.ListEvents(ctx, startMS, endMS, page, c.pageSize)
		if err != nil {
			return gotNew, fmt.Errorf("list events page %d: %w", page, err)
		}
		c.stats.Pages++
		slog.Info("2up: page fetched", "page", page, "items", len(data.Items), "total_pages", data.TotalPages)

		if len(data.Items) == 0 {
			return gotNew, nil
		}

		now := time.Now().UTC()
		for i := range data.Items {
			ev := &data.Items[i]
			eventID := string(ev.EventID)
			if eventID != "" {
				if _, dup := c.seen[eventID]; dup {
					c.stats.Duplicates++
					continue
				}
			}
			fixture := EventToFixture(ev, now)
			c.results = append(c.results, *fixture)
			if eventID != "" {
				c.seen[eventID] = struct{}{}
			}
			gotNew = true
		}

		pageNow := data.Page
		if pageNow == 0 {
			pageNow = page
		}
		totalPages := data.TotalPages
		if totalPages == 0 {
			totalPages = 1
		}
		if pageNow >= totalPages {
			return gotNew, nil
		}
		page++
	}
}
