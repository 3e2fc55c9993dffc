// package formatter renders search results and job history as CSV, Markdown, JSON or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/ytaudio/internal/models"
)

// Output formats accepted by [Render].
const (
	FormatText     = "text"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

var (
	indexStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	artistStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	durationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	urlStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).Italic(true)
)

// FormatDuration renders d as m:ss, or h:mm:ss from one hour up.
func FormatDuration(d time.Duration) string {
	total := int(d / time.Second)
	if total < 0 {
		total = 0
	}
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ToCSV converts a QueryResult to CSV format with columns: Position, ID, Title, Artist, Duration, DurationSeconds, URL, Thumbnail
func ToCSV(result models.QueryResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Title", "Artist", "Duration", "DurationSeconds", "URL", "Thumbnail"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range result.Tracks() {
		record := []string{
			strconv.Itoa(i + 1),
			track.ID(),
			track.Title(),
			track.ArtistName(),
			FormatDuration(track.Duration()),
			strconv.Itoa(int(track.Duration() / time.Second)),
			track.URL().String(),
			track.ThumbnailURL().String(),
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

// ToMarkdown converts a QueryResult to a Markdown document headed by the query
func ToMarkdown(query string, result models.QueryResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Results for %q\n\n", query))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", result.Len()))

	if result.Len() == 0 {
		return buf.Bytes(), nil
	}

	buf.WriteString("## Tracks\n\n")
	for i, track := range result.Tracks() {
		buf.WriteString(fmt.Sprintf("%d. %s - [%s](%s) [%s]\n",
			i+1, track.ArtistName(), track.Title(), track.URL(), FormatDuration(track.Duration())))
	}

	return buf.Bytes(), nil
}

// ToText converts a QueryResult to numbered plain text, colored with lipgloss when styled is true
func ToText(result models.QueryResult, styled bool) ([]byte, error) {
	var buf bytes.Buffer

	paint := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	for i, track := range result.Tracks() {
		buf.WriteString(fmt.Sprintf("%s %s - %s [%s]\n",
			paint(indexStyle, fmt.Sprintf("%2d.", i+1)),
			paint(artistStyle, track.ArtistName()),
			paint(titleStyle, track.Title()),
			paint(durationStyle, FormatDuration(track.Duration())),
		))
		buf.WriteString(fmt.Sprintf("    %s\n", paint(urlStyle, track.URL().String())))
	}

	return buf.Bytes(), nil
}

// Render dispatches to the formatter for format. JSON is always indented.
func Render(format, query string, result models.QueryResult, styled bool) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ToCSV(result)
	case FormatMarkdown:
		return ToMarkdown(query, result)
	case FormatJSON:
		return json.MarshalIndent(result, "", "  ")
	case FormatText, "":
		return ToText(result, styled)
	default:
		return nil, fmt.Errorf("unknown format %q (want text, csv, markdown or json)", format)
	}
}

// DownloadsToText renders job history one line per job, newest first as given
func DownloadsToText(downloads []*models.DownloadRecord) []byte {
	var buf bytes.Buffer
	for _, d := range downloads {
		line := fmt.Sprintf("#%-4d %-9s %-8s %s -> %s", d.Sequence(), d.Status(), d.Mode(), d.TrackURL(), d.Output())
		if d.ErrorMessage() != "" {
			line += fmt.Sprintf(" (%s)", d.ErrorMessage())
		}
		buf.WriteString(line + "\n")
	}
	return buf.Bytes()
}

// SearchesToText renders search history one line per query
func SearchesToText(searches []*models.SearchRecord) []byte {
	var buf bytes.Buffer
	for _, s := range searches {
		buf.WriteString(fmt.Sprintf("#%-4d %s  %q (%d results)\n",
			s.Sequence(), s.CreatedAt().Local().Format("2006-01-02 15:04"), s.Query(), s.Results().Len()))
	}
	return buf.Bytes()
}

// WriteExport renders result in format and writes it to path.
func WriteExport(path, format, query string, result models.QueryResult) error {
	data, err := Render(format, query, result, false)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}
