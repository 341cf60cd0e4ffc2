// file:cas/pkg/x_log/logs.go
package x_log

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Tail returns the last n lines of a log file.
func Tail(filename string, n int) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	return lines, scanner.Err()
}

// PrintLines writes each line behind a styled prefix.
func PrintLines(w io.Writer, lines []string, prefix string) {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray60))
	for _, line := range lines {
		fmt.Fprintln(w, style.Render(prefix), line)
	}
}
