package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"svcman/internal/logger"
	"svcman/internal/services"
)

var (
	docStyle    = lipgloss.NewStyle().Margin(1, 2)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Backend is what the picker drives. Operations are resolved to a command
// here and run with the terminal handed over to the child process.
type Backend interface {
	List() ([]services.Record, error)
	CommandAt(index int, op services.Operation) (services.Command, error)
	RemoveAt(index int) (services.Record, error)
}

type item struct {
	index  int
	record services.Record
}

func (i item) Title() string {
	return fmt.Sprintf("%d: [%s] %s", i.index, i.record.Tag(), i.record.Name)
}

func (i item) Description() string {
	if i.record.Location == "" {
		return "system service"
	}
	return i.record.Location
}

func (i item) FilterValue() string { return i.record.Name }

type model struct {
	ctx     context.Context
	list    list.Model
	backend Backend
	changes <-chan struct{}
	log     logger.Logger

	status    string
	statusErr bool
	busy      bool
	loaded    bool
	err       error
}

type recordsMsg []services.Record

type commandMsg struct {
	name    string
	op      services.Operation
	command services.Command
}

type operationMsg struct {
	name string
	op   services.Operation
	err  error
}

type removedMsg struct {
	record services.Record
	err    error
}

type changedMsg struct{}

func newModel(ctx context.Context, backend Backend, changes <-chan struct{}, log logger.Logger) model {
	if log == nil {
		log = logger.Nop()
	}
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Registered services"
	return model{
		ctx:     ctx,
		list:    l,
		backend: backend,
		changes: changes,
		log:     log,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.waitForChange())
}

func (m model) load() tea.Cmd {
	return func() tea.Msg {
		records, err := m.backend.List()
		if err != nil {
			return err
		}
		return recordsMsg(records)
	}
}

func (m model) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	ch := m.changes
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func (m model) operate(it item, op services.Operation) tea.Cmd {
	return func() tea.Msg {
		c, err := m.backend.CommandAt(it.index, op)
		if err != nil {
			return operationMsg{name: it.record.Name, op: op, err: err}
		}
		return commandMsg{name: it.record.Name, op: op, command: c}
	}
}

// run suspends the program while the command owns the terminal, so sudo
// can prompt and compose can draw its progress.
func (m model) run(msg commandMsg) tea.Cmd {
	if msg.command.Dir != "" {
		if _, err := services.ValidateLocation(msg.command.Dir); err != nil {
			return func() tea.Msg {
				return operationMsg{name: msg.name, op: msg.op, err: err}
			}
		}
	}
	m.log.Info("running service operation",
		logger.String("service", msg.name),
		logger.String("operation", msg.op.String()),
		logger.String("command", msg.command.String()),
	)
	return tea.ExecProcess(msg.command.Cmd(m.ctx), finished(msg))
}

func finished(msg commandMsg) tea.ExecCallback {
	return func(err error) tea.Msg {
		return operationMsg{
			name: msg.name,
			op:   msg.op,
			err:  services.NewProcessError(msg.name, msg.command, err),
		}
	}
}

func (m model) remove(it item) tea.Cmd {
	return func() tea.Msg {
		rec, err := m.backend.RemoveAt(it.index)
		return removedMsg{record: rec, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "s", "r", "x":
			if m.busy {
				return m, nil
			}
			it, ok := m.list.SelectedItem().(item)
			if !ok {
				return m, nil
			}
			m.busy = true
			m.statusErr = false
			switch msg.String() {
			case "s":
				m.status = "stopping " + it.record.Name + "..."
				return m, m.operate(it, services.OpStop)
			case "r":
				m.status = "restarting " + it.record.Name + "..."
				return m, m.operate(it, services.OpRestart)
			default:
				m.status = "removing " + it.record.Name + "..."
				return m, m.remove(it)
			}
		}

	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-1)

	case error:
		m.err = msg
		return m, tea.Quit

	case recordsMsg:
		m.loaded = true
		items := make([]list.Item, 0, len(msg))
		for i, rec := range msg {
			items = append(items, item{index: i, record: rec})
		}
		return m, m.list.SetItems(items)

	case commandMsg:
		return m, m.run(msg)

	case changedMsg:
		return m, tea.Batch(m.load(), m.waitForChange())

	case operationMsg:
		m.busy = false
		if msg.err != nil {
			m.log.Error("operation failed", logger.String("name", msg.name), logger.Error(msg.err))
			m.status, m.statusErr = msg.err.Error(), true
			return m, nil
		}
		m.status, m.statusErr = fmt.Sprintf("%s: %s done", msg.name, msg.op), false
		return m, nil

	case removedMsg:
		m.busy = false
		if msg.err != nil {
			m.status, m.statusErr = msg.err.Error(), true
			return m, nil
		}
		m.status, m.statusErr = "removed "+msg.record.Name, false
		return m, m.load()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v", m.err)
	}
	if !m.loaded {
		return "Loading services..."
	}

	status := helpStyle.Render("s stop • r restart • x remove • q quit")
	if m.status != "" {
		if m.statusErr {
			status = errorStyle.Render(m.status)
		} else {
			status = statusStyle.Render(m.status)
		}
	}
	return docStyle.Render(m.list.View() + "\n" + status)
}

// Start runs the picker until the user quits. When registryPath is set the
// list reloads whenever the file changes on disk.
func Start(ctx context.Context, backend Backend, registryPath string, log logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}

	var changes <-chan struct{}
	if registryPath != "" {
		w, err := WatchFile(registryPath, log)
		if err != nil {
			log.Warn("live reload disabled", logger.String("path", registryPath), logger.Error(err))
		} else {
			defer w.Close()
			changes = w.C
		}
	}

	p := tea.NewProgram(newModel(ctx, backend, changes, log), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}
