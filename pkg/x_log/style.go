// file:cas/pkg/x_log/style.go
package x_log

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

//---------------------
// IBM Carbon Colors
//---------------------

const (
	ColorTeal40    = "#3ddbd9"
	ColorBlue60    = "#4589ff"
	ColorBlue40    = "#78a9ff"
	ColorBlue70    = "#0043ce"
	ColorBlueBase  = "#0f62fe"
	ColorRed60     = "#da1e28"
	ColorRedStrong = "#ff0000"
	ColorOrange40  = "#ff832b"
	ColorGray60    = "#8d8d8d"
	ColorGray10    = "#f4f4f4"
	ColorGray90    = "#262626"
)

//---------------------
// Styles
//---------------------

// Level is a zerolog level used as a style key.
type Level = zerolog.Level

const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
	FatalLevel = zerolog.FatalLevel
)

// Styles defines all formatting styles used for structured output
type Styles struct {
	Out               io.Writer                 // output target
	NoColor           bool                      // plain text, e.g. when Out is not a terminal
	Timestamp         lipgloss.Style            // style for timestamps
	Levels            map[Level]lipgloss.Style  // level-to-style mapping
	Keys              map[string]lipgloss.Style // custom field keys
	Values            map[string]lipgloss.Style // custom field values
	DefaultKeyStyle   lipgloss.Style            // fallback for unknown keys
	DefaultValueStyle lipgloss.Style            // fallback for unknown values
}

//---------------------
// Themes
//---------------------

// DefaultStylesByName returns a theme by name ("dark", "light")
func DefaultStylesByName(name string) *Styles {
	switch strings.ToLower(name) {
	case "light":
		return DefaultStylesLight()
	default:
		return DefaultStylesDark()
	}
}

//---------------------
// Console Writer
//---------------------

// ConsoleWriterWithStyles builds a zerolog.ConsoleWriter with styles
func ConsoleWriterWithStyles(styles *Styles) zerolog.ConsoleWriter {
	if styles.NoColor {
		return zerolog.ConsoleWriter{Out: styles.Out, NoColor: true, TimeFormat: "01-02 15:04:05"}
	}
	return zerolog.ConsoleWriter{
		Out:        styles.Out,
		TimeFormat: "01-02 15:04:05",

		FormatLevel: func(i any) string {
			lvl := strings.ToLower(fmt.Sprint(i))
			var color string

			switch lvl {
			case "debug":
				color = ColorTeal40
			case "info":
				color = ColorBlue60
			case "warn":
				color = ColorOrange40
			case "error":
				color = ColorRed60
			case "fatal":
				color = ColorRedStrong
			default:
				color = ColorGray60
			}

			return lipgloss.NewStyle().
				Foreground(lipgloss.Color("#ffffff")).
				Background(lipgloss.Color(color)).
				Padding(0, 1).
				Render(strings.ToUpper(lvl[:3]))
		},

		FormatTimestamp: func(i any) string {
			return styles.Timestamp.Render(fmt.Sprintf("[%s]", i))
		},

		FormatFieldName: func(i any) string {
			key := fmt.Sprint(i)
			style, ok := styles.Keys[key]
			if !ok {
				style = styles.DefaultKeyStyle
			}
			eqStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray60))
			return style.Render(key) + eqStyle.Render("=")
		},

		FormatMessage: func(i any) string {
			return lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorGray10)).
				Render(fmt.Sprint(i))
		},
	}
}

func DefaultStylesDark() *Styles {
	return &Styles{
		Timestamp: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorGray60)),

		DefaultKeyStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorBlue40)),

		DefaultValueStyle: lipgloss.NewStyle(),

		Levels: map[Level]lipgloss.Style{
			InfoLevel:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlue60)),
			WarnLevel:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorOrange40)),
			ErrorLevel: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed60)),
			FatalLevel: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRedStrong)),
		},

		Keys: map[string]lipgloss.Style{
			"module":  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlue40)),
			"path":    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorTeal40)),
			"did":     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorTeal40)),
			"subject": lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlue40)),
			"req_id":  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray60)),
			"err":     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed60)),
		},

		Values: map[string]lipgloss.Style{
			"path":   lipgloss.NewStyle().Italic(true),
			"err":    lipgloss.NewStyle().Bold(true),
			"module": lipgloss.NewStyle(),
		},
	}
}

func DefaultStylesLight() *Styles {
	return &Styles{
		Timestamp: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorGray60)),

		DefaultKeyStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorBlueBase)),

		DefaultValueStyle: lipgloss.NewStyle(),

		Levels: map[Level]lipgloss.Style{
			InfoLevel:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlue70)),
			WarnLevel:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorOrange40)),
			ErrorLevel: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed60)),
			FatalLevel: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRedStrong)),
		},

		Keys: map[string]lipgloss.Style{
			"module":  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlueBase)),
			"path":    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorTeal40)),
			"did":     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorTeal40)),
			"subject": lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlueBase)),
			"req_id":  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray60)),
			"err":     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed60)),
		},

		Values: map[string]lipgloss.Style{
			"path":   lipgloss.NewStyle().Italic(true),
			"err":    lipgloss.NewStyle().Bold(true),
			"module": lipgloss.NewStyle(),
		},
	}
}
