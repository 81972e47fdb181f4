package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/jclass/classfile"
	"github.com/wippyai/jclass/cpool"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	memberStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	descStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSections modelState = iota
	stateListing
	statePoolLookup
)

type sectionInfo struct {
	name  string
	lines []string
}

type interactiveModel struct {
	err      error
	filename string

	sections []sectionInfo
	poolSize int
	pool     *cpool.Pool

	selected int
	state    modelState
	lookup   textinput.Model
	lookedUp string
}

func newInteractiveModel(filename string) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "pool index"
	ti.Prompt = "#"
	ti.Width = 8
	return &interactiveModel{
		filename: filename,
		state:    stateSections,
		lookup:   ti,
	}
}

type loadedMsg struct {
	err      error
	sections []sectionInfo
	poolSize int
	pool     *cpool.Pool
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadClass
}

func (m *interactiveModel) loadClass() tea.Msg {
	data, err := os.ReadFile(m.filename)
	if err != nil {
		return loadedMsg{err: err}
	}
	class, err := classfile.NewClass(data)
	if err != nil {
		return loadedMsg{err: err}
	}
	pool, err := class.Pool()
	if err != nil {
		return loadedMsg{err: err}
	}

	overview, err := overviewLines(class)
	if err != nil {
		return loadedMsg{err: err}
	}
	fields, err := fieldLines(class, pool)
	if err != nil {
		return loadedMsg{err: err}
	}
	methods, err := methodLines(class, pool)
	if err != nil {
		return loadedMsg{err: err}
	}
	attrs, err := attributeLines(class, pool)
	if err != nil {
		return loadedMsg{err: err}
	}

	return loadedMsg{
		sections: []sectionInfo{
			{name: "Overview", lines: overview},
			{name: "Fields", lines: fields},
			{name: "Methods", lines: methods},
			{name: "Attributes", lines: attrs},
		},
		poolSize: pool.Slots(),
		pool:     pool,
	}
}

func overviewLines(class *classfile.Class) ([]string, error) {
	v := class.Version()
	name, err := class.ThisClassName()
	if err != nil {
		return nil, err
	}
	lines := []string{
		fmt.Sprintf("Version: %d.%d", v.Major, v.Minor),
		"This: " + memberStyle.Render(name.String()),
	}
	superName, err := class.SuperClassName()
	if err != nil {
		return nil, err
	}
	if superName != nil {
		lines = append(lines, "Super: "+memberStyle.Render(superName.String()))
	}

	pool, err := class.Pool()
	if err != nil {
		return nil, err
	}
	ifaces, err := class.Interfaces()
	if err != nil {
		return nil, err
	}
	it := ifaces.Iter()
	for it.Next() {
		iface, err := pool.ResolveClass(it.Value())
		if err != nil {
			return nil, err
		}
		lines = append(lines, "Implements: "+memberStyle.Render(iface.Name.String()))
	}
	return lines, it.Err()
}

func fieldLines(class *classfile.Class, pool *cpool.Pool) ([]string, error) {
	fields, err := class.Fields()
	if err != nil {
		return nil, err
	}
	var lines []string
	it := fields.Iter()
	for it.Next() {
		field := it.Value()
		name, err := pool.Retrieve(field.Name)
		if err != nil {
			return nil, err
		}
		desc, err := pool.Retrieve(field.Descriptor)
		if err != nil {
			return nil, err
		}
		lines = append(lines, memberStyle.Render(name.String())+" "+descStyle.Render(desc.String()))
	}
	return lines, it.Err()
}

func methodLines(class *classfile.Class, pool *cpool.Pool) ([]string, error) {
	methods, err := class.Methods()
	if err != nil {
		return nil, err
	}
	var lines []string
	it := methods.Iter()
	for it.Next() {
		method := it.Value()
		name, err := pool.Retrieve(method.Name)
		if err != nil {
			return nil, err
		}
		desc, err := pool.Retrieve(method.Descriptor)
		if err != nil {
			return nil, err
		}
		line := memberStyle.Render(name.String()) + descStyle.Render(desc.String())

		attrs := method.Attributes().Iter()
		for attrs.Next() {
			attr := attrs.Value()
			content, err := attr.ReadContent(pool)
			if err != nil {
				continue
			}
			if code, ok := content.(classfile.Code); ok {
				line += helpStyle.Render(fmt.Sprintf("  %d bytes of code", len(code.RawCode())))
			}
		}
		lines = append(lines, line)
	}
	return lines, it.Err()
}

func attributeLines(class *classfile.Class, pool *cpool.Pool) ([]string, error) {
	attrs, err := class.Attributes()
	if err != nil {
		return nil, err
	}
	var lines []string
	it := attrs.Iter()
	for it.Next() {
		attr := it.Value()
		name, err := pool.Retrieve(attr.Name)
		if err != nil {
			return nil, err
		}
		lines = append(lines, name.String()+helpStyle.Render(fmt.Sprintf("  (%d bytes)", len(attr.Content()))))
	}
	return lines, it.Err()
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == statePoolLookup && msg.String() == "q" {
				break // let the input take the character
			}
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSections && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSections && m.selected < len(m.sections)-1 {
				m.selected++
			}

		case "p":
			if m.state == stateSections {
				m.state = statePoolLookup
				m.lookedUp = ""
				m.lookup.SetValue("")
				m.lookup.Focus()
				return m, textinput.Blink
			}

		case "enter":
			switch m.state {
			case stateSections:
				m.state = stateListing
			case statePoolLookup:
				m.lookedUp = m.lookupEntry()
			}

		case "esc":
			switch m.state {
			case stateListing:
				m.state = stateSections
			case statePoolLookup:
				m.state = stateSections
				m.lookup.Blur()
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.sections = msg.sections
		m.poolSize = msg.poolSize
		m.pool = msg.pool
	}

	if m.state == statePoolLookup {
		var cmd tea.Cmd
		m.lookup, cmd = m.lookup.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) lookupEntry() string {
	index, err := strconv.ParseUint(m.lookup.Value(), 10, 16)
	if err != nil {
		return errorStyle.Render("not a pool index")
	}
	entry, err := m.pool.GetAny(uint16(index))
	if err != nil {
		return errorStyle.Render(err.Error())
	}
	return entryString(m.pool, entry)
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if len(m.sections) == 0 {
		return "Loading class file..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Class Inspector"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateSections:
		for i, s := range m.sections {
			label := fmt.Sprintf("%s (%d)", s.name, len(s.lines))
			if s.name == "Overview" {
				label = s.name
			}
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + label))
			} else {
				b.WriteString("  " + label)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render(fmt.Sprintf("pool: %d slots", m.poolSize)))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter open • p pool lookup • q quit"))

	case stateListing:
		s := m.sections[m.selected]
		b.WriteString(s.name)
		b.WriteString("\n\n")
		if len(s.lines) == 0 {
			b.WriteString(helpStyle.Render("(empty)"))
			b.WriteString("\n")
		}
		for _, line := range s.lines {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("esc back • q quit"))

	case statePoolLookup:
		b.WriteString("Look up a constant pool entry:\n\n")
		b.WriteString(m.lookup.View())
		b.WriteString("\n\n")
		if m.lookedUp != "" {
			b.WriteString(m.lookedUp)
			b.WriteString("\n\n")
		}
		b.WriteString(helpStyle.Render("enter look up • esc back"))
	}

	return b.String()
}

func runInteractive(filename string) error {
	p := tea.NewProgram(newInteractiveModel(filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
