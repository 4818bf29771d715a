// Package tui is a terminal client for the mood tracker API.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/charlesng35/moodtracker/pkg/client"
	"github.com/charlesng35/moodtracker/pkg/timeago"
)

const (
	historyLimit   = 8
	requestTimeout = 10 * time.Second
	clockInterval  = 30 * time.Second
)

// API is the subset of the HTTP client the TUI calls.
type API interface {
	BaseURL() string
	Moods(ctx context.Context) ([]client.MoodOption, error)
	CurrentMood(ctx context.Context) (*client.Mood, error)
	History(ctx context.Context, limit int) ([]client.Mood, error)
	SetMood(ctx context.Context, mood, emoji string) (*client.Mood, error)
	SendTestNotification(ctx context.Context) (*client.DeliveryResult, error)
}

var writeClipboard = clipboard.WriteAll

// Messages

type moodsLoadedMsg struct {
	options []client.MoodOption
	current *client.Mood
	history []client.Mood
	err     error
}

type moodSetMsg struct {
	mood *client.Mood
	err  error
}

type testSentMsg struct {
	result *client.DeliveryResult
	err    error
}

type copyResultMsg struct {
	err error
}

type tickMsg time.Time

// App is the root bubbletea model.
type App struct {
	api    API
	events <-chan tea.Msg

	options []client.MoodOption
	current *client.Mood
	history []client.Mood
	cursor  int

	loading bool
	live    bool
	status  string
	err     error
	now     func() time.Time

	width  int
	height int
}

// NewApp builds the model. events may be nil when no live feed is running.
func NewApp(api API, events <-chan tea.Msg) App {
	return App{
		api:     api,
		events:  events,
		loading: true,
		now:     time.Now,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.loadCmd(), waitForFeed(a.events), tickCmd())
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case moodsLoadedMsg:
		a.loading = false
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		a.err = nil
		a.options = msg.options
		a.current = msg.current
		a.history = msg.history
		if a.cursor >= len(a.options) {
			a.cursor = 0
		}
		return a, nil

	case moodSetMsg:
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		a.err = nil
		a.status = fmt.Sprintf("Mood set to %s %s", msg.mood.Emoji, msg.mood.Mood)
		a.applyMood(*msg.mood)
		return a, nil

	case testSentMsg:
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		a.err = nil
		total := msg.result.SuccessCount + msg.result.FailureCount
		a.status = fmt.Sprintf("Test notification sent to %d of %d subscriptions", msg.result.SuccessCount, total)
		return a, nil

	case copyResultMsg:
		if msg.err != nil {
			a.err = fmt.Errorf("copy failed: %w", msg.err)
			return a, nil
		}
		a.status = "Server URL copied"
		return a, nil

	case moodUpdatedMsg:
		a.live = true
		a.applyMood(msg.mood)
		return a, waitForFeed(a.events)

	case feedStatusMsg:
		a.live = msg.connected
		return a, waitForFeed(a.events)

	case tickMsg:
		return a, tickCmd()
	}

	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "left", "h", "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil
	case "right", "l", "down", "j":
		if a.cursor < len(a.options)-1 {
			a.cursor++
		}
		return a, nil
	case "enter", " ", "space":
		return a, a.setMoodCmd()
	case "r":
		a.loading = true
		a.status = ""
		return a, a.loadCmd()
	case "t":
		a.status = "Sending test notification..."
		return a, a.sendTestCmd()
	case "c":
		return a, copyCmd(a.api.BaseURL())
	}

	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		idx := int(key[0] - '1')
		if idx < len(a.options) {
			a.cursor = idx
			return a, a.setMoodCmd()
		}
	}
	return a, nil
}

// applyMood makes m the current mood and prepends it to the history unless it
// is already the newest entry.
func (a *App) applyMood(m client.Mood) {
	a.current = &m
	if len(a.history) > 0 && sameMood(a.history[0], m) {
		return
	}
	a.history = append([]client.Mood{m}, a.history...)
	if len(a.history) > historyLimit {
		a.history = a.history[:historyLimit]
	}
}

func sameMood(a, b client.Mood) bool {
	return a.Mood == b.Mood && a.Emoji == b.Emoji && a.Timestamp.Equal(b.Timestamp)
}

// Commands

func (a App) loadCmd() tea.Cmd {
	api := a.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		options, err := api.Moods(ctx)
		if err != nil {
			return moodsLoadedMsg{err: err}
		}
		current, err := api.CurrentMood(ctx)
		if err != nil {
			return moodsLoadedMsg{err: err}
		}
		history, err := api.History(ctx, historyLimit)
		if err != nil {
			return moodsLoadedMsg{err: err}
		}
		return moodsLoadedMsg{options: options, current: current, history: history}
	}
}

func (a App) setMoodCmd() tea.Cmd {
	if a.cursor < 0 || a.cursor >= len(a.options) {
		return nil
	}
	api := a.api
	option := a.options[a.cursor]
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		mood, err := api.SetMood(ctx, option.Mood, option.Emoji)
		return moodSetMsg{mood: mood, err: err}
	}
}

func (a App) sendTestCmd() tea.Cmd {
	api := a.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		result, err := api.SendTestNotification(ctx)
		return testSentMsg{result: result, err: err}
	}
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return copyResultMsg{err: writeClipboard(text)}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// View

func (a App) View() string {
	var b strings.Builder

	header := titleStyle.Render("Mood Tracker")
	if a.live {
		header += "  " + liveStyle.Render("● live")
	} else {
		header += "  " + offlineStyle.Render("○ offline")
	}
	b.WriteString(header + "\n")
	b.WriteString(dimStyle.Render(a.api.BaseURL()) + "\n\n")

	if a.loading && len(a.options) == 0 {
		b.WriteString(dimStyle.Render("Loading...") + "\n")
		return b.String()
	}

	b.WriteString(a.renderCurrent() + "\n\n")
	b.WriteString(a.renderOptions() + "\n\n")
	b.WriteString(a.renderHistory() + "\n")

	if a.err != nil {
		b.WriteString("\n" + errorStyle.Render("Error: "+a.err.Error()) + "\n")
	} else if a.status != "" {
		b.WriteString("\n" + dimStyle.Render(a.status) + "\n")
	}

	b.WriteString("\n" + renderHelp())
	return b.String()
}

func (a App) renderCurrent() string {
	if a.current == nil {
		return currentStyle.Render("No mood set yet")
	}
	label := fmt.Sprintf("%s  %s", a.current.Emoji, a.current.Mood)
	ago := dimStyle.Render(timeago.Format(a.current.Timestamp, a.now()))
	return currentStyle.Render(label + "\n" + ago)
}

func (a App) renderOptions() string {
	cells := make([]string, 0, len(a.options))
	for i, opt := range a.options {
		label := fmt.Sprintf("%d %s %s", i+1, opt.Emoji, opt.Mood)
		if i == a.cursor {
			cells = append(cells, selectedStyle.Render(label))
		} else {
			cells = append(cells, normalStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (a App) renderHistory() string {
	if len(a.history) == 0 {
		return dimStyle.Render("No history yet")
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("History") + "\n")
	now := a.now()
	for _, m := range a.history {
		fmt.Fprintf(&b, "  %s %-9s %s\n", m.Emoji, m.Mood, dimStyle.Render(timeago.Format(m.Timestamp, now)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderHelp() string {
	bindings := []struct{ key, label string }{
		{"←/→", "select"},
		{"enter", "set"},
		{"1-9", "quick set"},
		{"t", "test push"},
		{"c", "copy url"},
		{"r", "refresh"},
		{"q", "quit"},
	}
	parts := make([]string, len(bindings))
	for i, kb := range bindings {
		parts[i] = helpKeyStyle.Render(kb.key) + " " + helpLabelStyle.Render(kb.label)
	}
	return strings.Join(parts, "  ")
}
