package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style // view headings
	ok    lipgloss.Style // finished jobs
	err   lipgloss.Style // failed searches and jobs
	warn  lipgloss.Style // empty results
	help  lipgloss.Style // secondary text
}

// NewPalette builds a [Palette] from hex colors in title, ok, err, warn, help order.
func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(fg)) }
func NewBold(fg string) lipgloss.Style  { return NewStyle(fg).Bold(true) }
func NewEm(fg string) lipgloss.Style    { return NewStyle(fg).Italic(true) }
