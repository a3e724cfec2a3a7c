// package formatter renders list exports (CSV, Markdown, plain text, JSON) and CLI tables
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/shared"
)

// Format is an output format for list exports.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
	FormatTable    Format = "table"
)

// ParseFormat accepts a format name or common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "table":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want json, csv, markdown, txt or table)", shared.ErrInvalidFlag, s)
	}
}

// Extension is the file extension used when writing the format.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	case FormatText, FormatTable:
		return ".txt"
	default:
		return ".json"
	}
}

// Render converts export to bytes in format.
func Render(export *models.ListExport, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export)
	case FormatText:
		return ExportToText(export)
	case FormatTable:
		return []byte(EntriesTable(export.Entries) + "\n"), nil
	default:
		return shared.MarshalJSON(export, true)
	}
}

// ExportToCSV converts a ListExport to CSV format with columns: TMDB ID, Kind, Title, Year, Genre, Image
func ExportToCSV(export *models.ListExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"TMDB ID", "Kind", "Title", "Year", "Genre", "Image"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, entry := range export.Entries {
		record := []string{
			strconv.FormatInt(entry.TmdbID, 10),
			string(entry.Kind),
			entry.Media.Title,
			entry.Media.Year(),
			entry.Media.Genre,
			entry.Media.ImageURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a ListExport to a Markdown document with poster links
func ExportToMarkdown(export *models.ListExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", export.Title()))
	buf.WriteString(fmt.Sprintf("**User**: %s\n", export.Username))
	buf.WriteString(fmt.Sprintf("**Entries**: %d\n", len(export.Entries)))
	if !export.ExportedAt.IsZero() {
		buf.WriteString(fmt.Sprintf("**Exported**: %s\n", export.ExportedAt.Format("2006-01-02 15:04")))
	}
	buf.WriteString("\n")

	for i, entry := range export.Entries {
		buf.WriteString(fmt.Sprintf("%d. %s%s\n", i+1, entry.Media.Title, yearSuffix(entry.Media.Year())))
		if entry.Media.ImageURL != "" {
			buf.WriteString(fmt.Sprintf("   ![%s](%s)\n", entry.Media.Title, entry.Media.ImageURL))
		}
		if entry.Media.Description != "" {
			buf.WriteString(fmt.Sprintf("   > %s\n", entry.Media.Description))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a ListExport to plain text format
func ExportToText(export *models.ListExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("List: %s\n", export.Title()))
	buf.WriteString(fmt.Sprintf("User: %s\n", export.Username))
	buf.WriteString(fmt.Sprintf("Entries: %d\n\n", len(export.Entries)))

	for i, entry := range export.Entries {
		buf.WriteString(fmt.Sprintf("%d. %s%s [%d]\n", i+1, entry.Media.Title, yearSuffix(entry.Media.Year()), entry.TmdbID))
	}

	return buf.Bytes(), nil
}

// WriteExport writes export into dir as {list}_{kind}{ext} and returns the file path.
func WriteExport(export *models.ListExport, format Format, dir string) (string, error) {
	data, err := Render(export, format)
	if err != nil {
		return "", fmt.Errorf("failed to render %s export: %w", format, err)
	}

	path := filepath.Join(dir, export.Name()+format.Extension())
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// WriteManifest writes the export manifest as indented JSON.
func WriteManifest(manifest *models.ExportManifest, path string) error {
	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func yearSuffix(year string) string {
	if year == "" {
		return ""
	}
	return " (" + year + ")"
}
