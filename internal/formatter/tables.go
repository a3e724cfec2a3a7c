package formatter

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/mtx/internal/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

const overviewWidth = 60

// IsTerminal reports whether w is an interactive terminal. Tables are only drawn for
// terminals; pipes get plain tab separated lines.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// TitleCase capitalizes each word of s.
func TitleCase(s string) string {
	return cases.Title(language.Und).String(s)
}

// PageTable renders one catalog page.
func PageTable(page models.Page) string {
	headers := []string{"#", "ID", "Kind", "Title", "Year", "Rating", "Overview"}
	rows := make([][]string, 0, len(page.Results))
	for i, item := range page.Results {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.FormatInt(item.ID, 10),
			string(item.Kind()),
			item.DisplayTitle(),
			item.Year(),
			strconv.FormatFloat(item.VoteAverage, 'f', 1, 64),
			truncate(item.Overview, overviewWidth),
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft, alignRight})
}

// EntriesTable renders list entries.
func EntriesTable(entries []models.ListEntry) string {
	headers := []string{"#", "TMDB ID", "Kind", "List", "Title", "Year", "Genre"}
	rows := make([][]string, 0, len(entries))
	for i, entry := range entries {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.FormatInt(entry.TmdbID, 10),
			string(entry.Kind),
			TitleCase(string(entry.List)),
			entry.Media.Title,
			entry.Media.Year(),
			entry.Media.Genre,
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignRight, alignRight})
}

// ActivityTable renders the mutation history, newest first as given.
func ActivityTable(activities []*models.Activity) string {
	headers := []string{"#", "When", "User", "Op", "List", "Kind", "TMDB ID", "Title", "Result"}
	rows := make([][]string, 0, len(activities))
	for _, a := range activities {
		result := "ok"
		if !a.OK() {
			result = truncate(a.ErrorText(), 40)
		}
		rows = append(rows, []string{
			strconv.Itoa(a.Sequence()),
			a.CreatedAt().Local().Format("2006-01-02 15:04"),
			a.Username(),
			TitleCase(string(a.Op())),
			TitleCase(string(a.List())),
			string(a.Kind()),
			strconv.FormatInt(a.TmdbID(), 10),
			a.Title(),
			result,
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight})
}

// PlainLines renders rows as tab separated lines, for pipes.
func PlainLines(rows [][]string) string {
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteByte('\n')
	}
	return b.String()
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
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

func truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}
