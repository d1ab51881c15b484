package form

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiesman99/isotile/pkg/tile"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+l":
		return tea.KeyMsg{Type: tea.KeyCtrlL}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m Model, keys ...string) (Model, tea.Cmd) {
	var cmd tea.Cmd
	var next tea.Model = m
	for _, k := range keys {
		next, cmd = next.Update(key(k))
	}
	return next.(Model), cmd
}

func noConvert(string, tile.Params) (string, error) {
	return "", errors.New("unexpected conversion")
}

func TestNew_Defaults(t *testing.T) {
	m := New(noConvert, DefaultValues)

	assert.Equal(t, FieldPath, m.Focus())
	assert.True(t, m.Locked())
	assert.Equal(t, "1", m.Value(FieldCols))
	assert.Equal(t, "256", m.Value(FieldWidth))
	assert.Equal(t, "128", m.Value(FieldHeight))
}

func TestLockedFocusSkipsHeight(t *testing.T) {
	m := New(noConvert, DefaultValues)

	m, _ = send(m, "tab", "tab", "tab")
	assert.Equal(t, FieldWidth, m.Focus())

	m, _ = send(m, "tab")
	assert.Equal(t, FieldPath, m.Focus(), "height is skipped while locked")

	m, _ = send(m, "shift+tab")
	assert.Equal(t, FieldWidth, m.Focus())

	m, _ = send(m, "ctrl+l", "tab")
	assert.False(t, m.Locked())
	assert.Equal(t, FieldHeight, m.Focus())
}

func TestLockedWidthDrivesHeight(t *testing.T) {
	m := New(noConvert, DefaultValues)
	m, _ = send(m, "tab", "tab", "tab")

	m, _ = send(m, "backspace", "backspace", "backspace")
	assert.Equal(t, "", m.Value(FieldWidth))
	assert.Equal(t, "", m.Value(FieldHeight), "empty width clears height")

	m, _ = send(m, "9", "7")
	assert.Equal(t, "97", m.Value(FieldWidth))
	assert.Equal(t, "48", m.Value(FieldHeight))
}

func TestUnlockedHeightIsIndependent(t *testing.T) {
	m := New(noConvert, DefaultValues)
	m, _ = send(m, "ctrl+l", "tab", "tab", "tab", "5")
	assert.Equal(t, "2565", m.Value(FieldWidth))
	assert.Equal(t, "128", m.Value(FieldHeight))

	// relocking recomputes
	m, _ = send(m, "ctrl+l")
	assert.Equal(t, "1282", m.Value(FieldHeight))
}

func TestNumericFieldsRejectNonDigits(t *testing.T) {
	m := New(noConvert, DefaultValues)
	m, _ = send(m, "tab", "x", "-", " ", "2")
	assert.Equal(t, "12", m.Value(FieldCols))

	m, _ = send(m, "shift+tab", "a", " ", "b")
	assert.Equal(t, "a b", m.Value(FieldPath), "the path accepts any text")
}

func TestSubmit_Success(t *testing.T) {
	var gotPath string
	var gotParams tile.Params
	convert := func(path string, p tile.Params) (string, error) {
		gotPath, gotParams = path, p
		return "sheet_iso.png", nil
	}

	m := New(convert, Values{Path: "sheet.png", Cols: "2", Rows: "2", Width: "128", Locked: true})
	m, cmd := send(m, "ctrl+s")
	require.NotNil(t, cmd)
	status, failed := m.Status()
	assert.Equal(t, "Converting...", status)
	assert.False(t, failed)

	next, _ := m.Update(cmd())
	m = next.(Model)

	assert.Equal(t, "sheet.png", gotPath)
	assert.Equal(t, tile.Params{Grid: tile.Grid{Cols: 2, Rows: 2}, Target: tile.Size{Width: 128, Height: 64}, LockRatio: true}, gotParams)

	status, failed = m.Status()
	assert.Equal(t, "Image saved as: sheet_iso.png", status)
	assert.False(t, failed)
	assert.Contains(t, m.View(), "Image saved as: sheet_iso.png")
}

func TestSubmit_EnterOnLastField(t *testing.T) {
	called := false
	convert := func(string, tile.Params) (string, error) {
		called = true
		return "out.png", nil
	}

	m := New(convert, DefaultValues)
	m, cmd := send(m, "enter", "enter", "enter")
	assert.Nil(t, cmd)
	assert.Equal(t, FieldWidth, m.Focus())

	_, cmd = send(m, "enter")
	require.NotNil(t, cmd)
	cmd()
	assert.True(t, called)
}

func TestSubmit_InvalidParamsSkipConversion(t *testing.T) {
	m := New(noConvert, Values{Path: "sheet.png", Cols: "", Rows: "1", Width: "8", Height: "8"})

	m, cmd := send(m, "ctrl+s")
	assert.Nil(t, cmd)

	status, failed := m.Status()
	assert.True(t, failed)
	assert.Contains(t, status, "must be integers")
}

func TestSubmit_ConversionError(t *testing.T) {
	convert := func(string, tile.Params) (string, error) {
		return "", tile.NewError(tile.ErrCodeInvalidPath, "invalid input file path")
	}

	m := New(convert, DefaultValues)
	m, cmd := send(m, "ctrl+s")
	require.NotNil(t, cmd)

	next, _ := m.Update(cmd())
	m = next.(Model)

	status, failed := m.Status()
	assert.True(t, failed)
	assert.Equal(t, "invalid input file path", status)
}

func TestQuit(t *testing.T) {
	_, cmd := send(New(noConvert, DefaultValues), "esc")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
