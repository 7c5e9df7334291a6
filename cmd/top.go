package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	"github.com/urfave/cli/v2"
	"github.com/webitel/screens-rating/internal/domain/model"
)

func topCmd() *cli.Command {
	return &cli.Command{
		Name:  "top",
		Usage: "Live view of hub cells and delivery counters",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8090/debug/stats", Usage: "Stats endpoint of a running server"},
			&cli.DurationFlag{Name: "interval", Value: time.Second, Usage: "Refresh interval"},
		},
		Action: func(c *cli.Context) error {
			return runTop(c.Context, c.String("url"), c.Duration("interval"))
		},
	}
}

func fetchStats(ctx context.Context, client *http.Client, url string) (*model.HubStats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stats: unexpected status %d", resp.StatusCode)
	}
	stats := new(model.HubStats)
	if err := json.NewDecoder(resp.Body).Decode(stats); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return stats, nil
}

// cellRows renders at most limit cells, header first.
func cellRows(stats *model.HubStats, limit int) [][]string {
	rows := [][]string{{"IDENTITY", "SUBSCRIBERS", "PENDING"}}
	for i, cs := range stats.Cells {
		if i == limit {
			break
		}
		rows = append(rows, []string{cs.Identity.String(), fmt.Sprint(cs.Subscribers), fmt.Sprint(cs.Pending)})
	}
	return rows
}

func summary(stats *model.HubStats) string {
	return fmt.Sprintf("cells: %d  subscribers: %d\ndelivered: %d  dropped: %d  unrouted: %d\nuptime: %s",
		stats.TotalCells, stats.TotalSubscribers,
		stats.Delivered, stats.Dropped, stats.Unrouted,
		stats.Uptime.Truncate(time.Second))
}

func runTop(ctx context.Context, url string, interval time.Duration) error {
	if err := ui.Init(); err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	defer ui.Close()

	header := widgets.NewParagraph()
	header.Title = " " + ServiceName + " "
	header.SetRect(0, 0, 80, 5)

	table := widgets.NewTable()
	table.Title = " cells "
	table.RowSeparator = false
	table.SetRect(0, 5, 80, 30)

	delivered := widgets.NewSparkline()
	delivered.LineColor = ui.ColorGreen
	line := widgets.NewSparklineGroup(delivered)
	line.Title = " delivered/s "
	line.SetRect(0, 30, 80, 36)

	client := &http.Client{Timeout: interval}
	var last uint64

	refresh := func() {
		stats, err := fetchStats(ctx, client, url)
		if err != nil {
			header.Text = err.Error()
			ui.Render(header)
			return
		}
		if last != 0 && stats.Delivered >= last {
			delivered.Data = append(delivered.Data, float64(stats.Delivered-last))
			if len(delivered.Data) > 78 {
				delivered.Data = delivered.Data[1:]
			}
		}
		last = stats.Delivered

		header.Text = summary(stats)
		table.Rows = cellRows(stats, 23)
		ui.Render(header, table, line)
	}
	refresh()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	events := ui.PollEvents()
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-events:
			if e.ID == "q" || e.ID == "<C-c>" {
				return nil
			}
		case <-ticker.C:
			refresh()
		}
	}
}
