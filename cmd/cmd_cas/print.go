package cmd_cas

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rskv-p/cas/pkg/x_cas"
	"github.com/rskv-p/cas/pkg/x_log"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(x_log.ColorBlue60)).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(x_log.ColorTeal40))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(x_log.ColorRed60))
)

// Table renders headers and rows with the shared border and colors.
func Table(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(x_log.ColorGray60))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

func itoa(n int) string { return strconv.Itoa(n) }

func printIndexStats(w io.Writer, st x_cas.IndexStats) {
	k := st.Kinds()
	rows := [][]string{
		{"keys", itoa(st.Keys)},
		{"aux keys", itoa(st.AuxKeys)},
		{"size (bytes)", itoa(st.SizeBytes)},
		{"nodes", itoa(st.Nodes)},
		{"path nodes", itoa(st.PathNodes)},
		{"value nodes", itoa(st.ValueNodes)},
		{"leaves", itoa(st.Leaves)},
		{"node4/16/48/256", fmt.Sprintf("%d/%d/%d/%d", k.N4, k.N16, k.N48, k.N256)},
		{"max depth", itoa(st.MaxDepth)},
		{"steps pp/pv/vp/vv", fmt.Sprintf("%d/%d/%d/%d", st.PP, st.PV, st.VP, st.VV)},
		{"alternation", fmt.Sprintf("%.3f", st.AlternationRatio())},
	}
	fmt.Fprintln(w, Table([]string{"index", "value"}, rows))
}

func printDepths(w io.Writer, st x_cas.IndexStats) {
	depths := make([]int, 0, len(st.Depths))
	for d := range st.Depths {
		depths = append(depths, d)
	}
	slices.Sort(depths)
	rows := make([][]string, 0, len(depths))
	for _, d := range depths {
		rows = append(rows, []string{itoa(d), itoa(st.Depths[d])})
	}
	fmt.Fprintln(w, Table([]string{"depth", "leaves"}, rows))
}

func printQueryStats(w io.Writer, st x_cas.QueryStats) {
	rows := [][]string{
		{"matches", itoa(st.Matches)},
		{"path nodes read", itoa(st.ReadPathNodes)},
		{"value nodes read", itoa(st.ReadValueNodes)},
		{"leaves read", itoa(st.ReadLeaves)},
		{"runtime", st.Runtime.String()},
		{"runtime main", st.RuntimeMain.String()},
		{"runtime aux", st.RuntimeAux.String()},
	}
	fmt.Fprintln(w, Table([]string{"query", "value"}, rows))
}

func printTiming(w io.Writer, what string, keys int, took time.Duration) {
	fmt.Fprintf(w, "%s %s keys in %s\n", what, okStyle.Render(itoa(keys)), took)
}
