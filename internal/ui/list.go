package ui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/ytaudio/internal/formatter"
	"github.com/desertthunder/ytaudio/internal/models"
)

var _ list.Item = trackItem{}

var unsafeNameChars = regexp.MustCompile(`[^\p{L}\p{N} ._()-]+`)

// trackItem wraps [models.TrackRecord] to implement [list.Item].
type trackItem struct {
	track models.TrackRecord
}

func (i trackItem) FilterValue() string { return i.track.Title() + " " + i.track.ArtistName() }
func (i trackItem) Title() string       { return i.track.Title() }
func (i trackItem) Description() string {
	return fmt.Sprintf("%s • %s", i.track.ArtistName(), formatter.FormatDuration(i.track.Duration()))
}

func trackItems(result models.QueryResult) []list.Item {
	items := make([]list.Item, result.Len())
	for i, track := range result.Tracks() {
		items[i] = trackItem{track: track}
	}
	return items
}

// OutputName derives a file base name "Artist - Title" for a track, keeping
// letters, digits, spaces and ._()- only. Falls back to the track id.
func OutputName(track models.TrackRecord) string {
	name := unsafeNameChars.ReplaceAllString(track.ArtistName()+" - "+track.Title(), "")
	name = strings.Join(strings.Fields(name), " ")
	name = strings.Trim(name, " .-")
	if name == "" {
		return track.ID()
	}
	return name
}
