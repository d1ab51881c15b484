// Package form is a terminal form for converting one sheet at a time. It
// asks for the input path, grid and target size, keeps the target height at
// half the width while the ratio is locked, and reports the saved path or
// the error of each run.
package form

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kiesman99/isotile/pkg/tile"
)

// Field identifies one input of the form.
type Field int

const (
	FieldPath Field = iota
	FieldCols
	FieldRows
	FieldWidth
	FieldHeight
	fieldCount
)

var labels = [fieldCount]string{
	FieldPath:   "Input Image",
	FieldCols:   "Grid Columns",
	FieldRows:   "Grid Rows",
	FieldWidth:  "Target Width",
	FieldHeight: "Target Height",
}

// ConvertFunc performs one conversion and returns the written path.
type ConvertFunc func(inputPath string, p tile.Params) (string, error)

// Values seeds the form.
type Values struct {
	Path, Cols, Rows, Width, Height string
	Locked                          bool
}

// DefaultValues are the values the form starts with when nothing is configured.
var DefaultValues = Values{Cols: "1", Rows: "1", Width: "256", Height: "128", Locked: true}

var (
	colorCyan  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorRed   = lipgloss.Color("167")
	colorDim   = lipgloss.Color("240")

	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleLabel   = lipgloss.NewStyle().Width(15).Align(lipgloss.Right)
	styleFocused = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)
)

// resultMsg carries the outcome of a conversion back into Update.
type resultMsg struct {
	path string
	err  error
}

// Model is the bubbletea model of the form.
type Model struct {
	values  [fieldCount]string
	focus   Field
	locked  bool
	convert ConvertFunc

	busy   bool
	status string
	failed bool
}

// New creates a form that runs convert on submit.
func New(convert ConvertFunc, v Values) Model {
	m := Model{convert: convert, locked: v.Locked, focus: FieldPath}
	m.values[FieldPath] = v.Path
	m.values[FieldCols] = v.Cols
	m.values[FieldRows] = v.Rows
	m.values[FieldWidth] = v.Width
	m.values[FieldHeight] = v.Height
	if m.locked {
		m.syncHeight()
	}
	return m
}

// Value returns the current text of f.
func (m Model) Value(f Field) string { return m.values[f] }

// Focus returns the focused field.
func (m Model) Focus() Field { return m.focus }

// Locked reports whether the height follows the width.
func (m Model) Locked() bool { return m.locked }

// Status returns the last status line and whether it reports a failure.
func (m Model) Status() (string, bool) { return m.status, m.failed }

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		m.busy = false
		if msg.err != nil {
			m.status, m.failed = msg.err.Error(), true
		} else {
			m.status, m.failed = "Image saved as: "+msg.path, false
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "down":
			m.move(1)
		case "shift+tab", "up":
			m.move(-1)
		case "ctrl+l":
			m.toggleLock()
		case "ctrl+s":
			return m.submit()
		case "enter":
			if m.focus == m.lastFocusable() {
				return m.submit()
			}
			m.move(1)
		case "backspace":
			m.backspace()
		default:
			switch msg.Type {
			case tea.KeyRunes:
				m.insert(string(msg.Runes))
			case tea.KeySpace:
				m.insert(" ")
			}
		}
	}
	return m, nil
}

func (m *Model) move(delta int) {
	next := m.focus
	for {
		next = Field((int(next) + delta + int(fieldCount)) % int(fieldCount))
		if !(next == FieldHeight && m.locked) {
			break
		}
	}
	m.focus = next
}

func (m Model) lastFocusable() Field {
	if m.locked {
		return FieldWidth
	}
	return FieldHeight
}

func (m *Model) toggleLock() {
	m.locked = !m.locked
	if m.locked {
		if m.focus == FieldHeight {
			m.focus = FieldWidth
		}
		m.syncHeight()
	}
}

// syncHeight applies the locked ratio to the height field. An empty width
// clears the height; an unparsable width leaves it alone.
func (m *Model) syncHeight() {
	width := m.values[FieldWidth]
	if width == "" {
		m.values[FieldHeight] = ""
		return
	}
	w, err := strconv.Atoi(width)
	if err != nil {
		return
	}
	m.values[FieldHeight] = strconv.Itoa(tile.HeightForWidth(w))
}

func (m *Model) insert(s string) {
	value := m.values[m.focus] + s
	if m.focus != FieldPath && !tile.IsDigits(value) {
		return
	}
	m.values[m.focus] = value
	m.edited()
}

func (m *Model) backspace() {
	value := []rune(m.values[m.focus])
	if len(value) == 0 {
		return
	}
	m.values[m.focus] = string(value[:len(value)-1])
	m.edited()
}

func (m *Model) edited() {
	if m.focus == FieldWidth && m.locked {
		m.syncHeight()
	}
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	params, err := tile.ParseParams(
		m.values[FieldCols], m.values[FieldRows],
		m.values[FieldWidth], m.values[FieldHeight],
		m.locked)
	if err != nil {
		m.status, m.failed = err.Error(), true
		return m, nil
	}

	m.busy = true
	m.status, m.failed = "Converting...", false

	path, convert := strings.TrimSpace(m.values[FieldPath]), m.convert
	return m, func() tea.Msg {
		out, err := convert(path, params)
		return resultMsg{path: out, err: err}
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("Isometric Tile Converter"))
	b.WriteString("\n\n")

	for f := Field(0); f < fieldCount; f++ {
		value := m.values[f]
		label := styleLabel.Render(labels[f] + ":")

		switch {
		case f == m.focus:
			value = styleFocused.Render("▸ " + value + "█")
		case f == FieldHeight && m.locked:
			value = styleDim.Render("  " + value)
		default:
			value = "  " + value
		}

		b.WriteString(label + " " + value)
		if f == FieldHeight {
			if m.locked {
				b.WriteString(styleDim.Render("   🔒 locked 2:1"))
			} else {
				b.WriteString(styleDim.Render("   🔓 unlocked"))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.status != "" {
		if m.failed {
			b.WriteString(styleError.Render("✗ " + m.status))
		} else {
			b.WriteString(styleSuccess.Render(m.status))
		}
		b.WriteString("\n\n")
	}

	b.WriteString(styleDim.Render("tab/↑/↓ move  ctrl+l lock ratio  ctrl+s convert  esc quit"))
	b.WriteString("\n")
	return b.String()
}
