package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/pkg/chart"
	"github.com/matzehuels/orgchart/pkg/orgtree"
	"github.com/matzehuels/orgchart/pkg/pipeline"
)

var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	listHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	listNoticeStyle = lipgloss.NewStyle().Foreground(colorBlue)
	listErrorStyle  = lipgloss.NewStyle().Foreground(colorRed)
)

// exploreCommand creates the explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var collapseAll bool
	var output string

	cmd := &cobra.Command{
		Use:   "explore [file|url]",
		Short: "Navigate and fold the chart in the terminal",
		Long: `Explore mounts the chart and lists its visible nodes. Folding a node runs the
same layout pass as the viewer; "s" writes the current state as SVG.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			tree, err := c.loadTree(cmd.Context(), cfg, args[0])
			if err != nil {
				return err
			}
			opts := cfg.pipelineOptions()
			opts.CollapseAll = collapseAll
			opts.Logger = log.New(io.Discard)
			ch, err := pipeline.Draw(tree, opts, nil)
			if err != nil {
				return err
			}
			if output == "" {
				output = basePath("", args[0]) + ".svg"
			}

			m := NewChartModel(cmd.Context(), ch, opts, output)
			final, err := tea.NewProgram(m, tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return err
			}
			if fm, ok := final.(ChartModel); ok && fm.Saved != "" {
				printFile(fm.Saved)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&collapseAll, "collapse-all", false, "start with every node below the root collapsed")
	cmd.Flags().StringVarP(&output, "output", "o", "", "SVG written by the save key (default <input>.svg)")
	return cmd
}

// =============================================================================
// ChartModel - Interactive chart explorer
// =============================================================================

// ChartModel is the bubbletea model of the explore command. Every command
// runs on the chart and is settled at once, so the list always shows the
// final state.
type ChartModel struct {
	ctx    context.Context
	chart  *chart.Chart
	opts   pipeline.Options
	output string

	Rows   []*orgtree.Node
	Cursor int
	Offset int
	Height int

	Notice string
	Err    error
	Saved  string
}

// savedMsg reports the result of a save.
type savedMsg struct {
	path string
	err  error
}

// NewChartModel creates an explorer over c. output is the SVG path used by
// the save key.
func NewChartModel(ctx context.Context, c *chart.Chart, opts pipeline.Options, output string) ChartModel {
	m := ChartModel{ctx: ctx, chart: c, opts: opts, output: output, Height: 15}
	m.refresh(nil)
	return m
}

func (m ChartModel) Init() tea.Cmd {
	return nil
}

func (m ChartModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "enter", " ":
			m.toggle()
		case "i":
			m.click()
		case "e":
			m.run(m.chart.ExpandAllNodes)
		case "c":
			m.run(m.chart.CollapseAllNodes)
		case "s":
			return m, m.save()
		}
	case savedMsg:
		m.Err = msg.err
		if msg.err == nil {
			m.Saved = msg.path
			m.Notice = "saved " + msg.path
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
		m.scroll()
	}
	return m, nil
}

// Current returns the node under the cursor.
func (m ChartModel) Current() *orgtree.Node {
	if m.Cursor < 0 || m.Cursor >= len(m.Rows) {
		return nil
	}
	return m.Rows[m.Cursor]
}

func (m *ChartModel) move(d int) {
	next := m.Cursor + d
	if next < 0 || next >= len(m.Rows) {
		return
	}
	m.Cursor = next
	m.scroll()
}

func (m *ChartModel) scroll() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m *ChartModel) toggle() {
	n := m.Current()
	if n == nil {
		return
	}
	st, err := m.chart.PressButton(n.Role, n.Key)
	m.Err = err
	if err == nil {
		m.Notice = fmt.Sprintf("%s %s", n.Entity.Label(), st)
	}
	m.refresh(n)
}

func (m *ChartModel) click() {
	n := m.Current()
	if n == nil {
		return
	}
	m.Err = m.chart.Click(chart.Event{Type: "click", Source: "terminal"}, n.Role, n.Key)
	if m.Err == nil {
		m.Notice = m.chart.LastNotice()
	}
}

func (m *ChartModel) run(cmd func() error) {
	cur := m.Current()
	m.Err = cmd()
	m.Notice = ""
	m.refresh(cur)
}

// refresh settles the chart and rebuilds the rows, keeping the cursor on
// keep when it is still visible.
func (m *ChartModel) refresh(keep *orgtree.Node) {
	m.chart.Settle()
	h := m.chart.Hierarchy()
	m.Rows = h.Visible()
	m.Cursor = 0
	if keep != nil {
		for i, n := range m.Rows {
			if n.Key == keep.Key && n.Role == keep.Role {
				m.Cursor = i
				break
			}
		}
	}
	m.scroll()
}

func (m ChartModel) save() tea.Cmd {
	ctx, c, opts, path := m.ctx, m.chart, m.opts, m.output
	opts.Formats = []string{pipeline.FormatSVG}
	return func() tea.Msg {
		artifacts, err := pipeline.RenderChart(ctx, c, opts)
		if err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{path: path, err: writeFile(path, artifacts[pipeline.FormatSVG])}
	}
}

func (m ChartModel) View() string {
	var b strings.Builder

	root := m.chart.Model().Root()
	b.WriteString(StyleTitle.Render(root.Label()))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ fold  i info  e expand all  c collapse all  s save  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Rows) {
		end = len(m.Rows)
	}

	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		n := m.Rows[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, nodeLabel(n), n.Role.String(), n.Entity.OwnershipPercent, nodeState(n)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Entity", "Side", "Share", "State").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return listHeaderStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Rows) {
				return lipgloss.NewStyle()
			}
			n := m.Rows[idx]
			base := lipgloss.NewStyle()
			switch {
			case idx == m.Cursor:
				base = base.Foreground(colorCyan).Bold(true)
			case n.Role == orgtree.Ancestor:
				base = base.Foreground(colorBlue)
			case !n.ShowToggle():
				base = base.Foreground(colorGray)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))
	b.WriteString("\n")

	switch {
	case m.Err != nil:
		b.WriteString(listErrorStyle.Render(m.Err.Error()))
	case m.Notice != "":
		b.WriteString(listNoticeStyle.Render(m.Notice))
	}
	return b.String()
}

// nodeLabel indents the entity name by depth and prefixes the fold glyph.
func nodeLabel(n *orgtree.Node) string {
	glyph := " "
	if n.ShowToggle() {
		glyph = n.ToggleGlyph()
	}
	label := n.Entity.Label()
	if n.ShowAnnex() {
		label += " (" + n.Entity.Annex.Name + ")"
	}
	return strings.Repeat("  ", n.Depth) + glyph + " " + label
}

func nodeState(n *orgtree.Node) string {
	if !n.HasChildren() {
		return "leaf"
	}
	if n.IsRoot() {
		return "root"
	}
	return n.State().String()
}
