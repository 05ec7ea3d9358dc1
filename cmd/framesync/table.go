package main

import (
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/bft-labs/framesync"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(title string, headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if title != "" {
		tw.SetTitle(title)
	}

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// renderSummary formats a replay summary as a per-channel table.
func renderSummary(s framesync.ReplaySummary, session string) string {
	title := "matched " + u(s.Stats.Matched) + " pairs in " + s.Elapsed.Round(time.Millisecond).String()
	if session != "" {
		title += " (journal session " + session + ")"
	}

	headers := []string{"Channel", "Read", "Ingested", "Stale", "Late", "Overflow", "Shutdown", "Capacity Alerts"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight}

	rows := make([][]string, 0, 2)
	for i, name := range []string{"primary", "secondary"} {
		cs := s.Stats.Primary
		if i == 1 {
			cs = s.Stats.Secondary
		}
		rows = append(rows, []string{
			name,
			strconv.Itoa(s.Read[i]),
			u(cs.Ingested),
			u(cs.DroppedStale),
			u(cs.DroppedLate),
			u(cs.DroppedOverflow),
			u(cs.DroppedShutdown),
			u(cs.CapacityBreaches),
		})
	}
	return renderTable(title, headers, rows, aligns)
}

func u(v uint64) string {
	return strconv.FormatUint(v, 10)
}
