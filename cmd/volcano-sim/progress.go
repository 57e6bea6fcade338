package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"volcano-sdk/models"
	"volcano-sdk/services"
)

// waitForSimulation polls the job to completion, rendering an
// interactive progress view on a terminal and falling back to plain
// log lines otherwise.
func waitForSimulation(ctx context.Context, sims *services.SimulationService, job *models.Job, cfg services.PollConfig) (*models.Job, error) {
	if plain || !term.IsTerminal(int(os.Stdout.Fd())) {
		last := -1.0
		return sims.WaitForCompletion(ctx, job, cfg, func(j *models.Job) {
			if j.Progress != last {
				logrus.Infof("Simulation %s: %s %.0f%%", j.ID, j.State, j.Progress)
				last = j.Progress
			}
		})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	final, err := tea.NewProgram(newPollModel(ctx, cancel, sims, job, cfg)).Run()
	if err != nil {
		return nil, err
	}
	m := final.(pollModel)
	if m.quitting {
		return nil, fmt.Errorf("polling interrupted")
	}
	return m.job, m.err
}

type pollUpdate struct {
	state    models.JobState
	progress float64
}

type pollUpdateMsg struct {
	update *pollUpdate
	closed bool
}

type pollDoneMsg struct {
	job *models.Job
	err error
}

type pollModel struct {
	spinner  spinner.Model
	bar      progress.Model
	updates  chan pollUpdate
	poll     tea.Cmd
	cancel   context.CancelFunc
	id       string
	state    models.JobState
	percent  float64
	job      *models.Job
	err      error
	quitting bool
}

func newPollModel(ctx context.Context, cancel context.CancelFunc, sims *services.SimulationService, job *models.Job, cfg services.PollConfig) pollModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	updates := make(chan pollUpdate, 10)
	poll := func() tea.Msg {
		done, err := sims.WaitForCompletion(ctx, job, cfg, func(j *models.Job) {
			updates <- pollUpdate{state: j.State, progress: j.Progress}
		})
		close(updates)
		return pollDoneMsg{job: done, err: err}
	}

	return pollModel{
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient()),
		updates: updates,
		poll:    poll,
		cancel:  cancel,
		id:      job.ID,
		state:   job.State,
	}
}

func (m pollModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.poll, waitForPollUpdates(m.updates))
}

func waitForPollUpdates(updates <-chan pollUpdate) tea.Cmd {
	return func() tea.Msg {
		select {
		case update, ok := <-updates:
			if !ok {
				return pollUpdateMsg{closed: true}
			}
			return pollUpdateMsg{update: &update}
		case <-time.After(100 * time.Millisecond):
			return pollUpdateMsg{}
		}
	}
}

func (m pollModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - 8
		if m.bar.Width > 60 {
			m.bar.Width = 60
		}
		return m, nil

	case pollUpdateMsg:
		if msg.closed {
			// The poll command delivers the final result itself
			return m, nil
		}
		if msg.update != nil {
			m.state = msg.update.state
			m.percent = msg.update.progress / 100
		}
		return m, waitForPollUpdates(m.updates)

	case pollDoneMsg:
		m.job = msg.job
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m pollModel) View() string {
	if m.quitting || m.job != nil || m.err != nil {
		return ""
	}

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#CCCCCC")).
		MarginLeft(2)

	barStyle := lipgloss.NewStyle().
		MarginLeft(4).
		MarginBottom(1)

	label := fmt.Sprintf("%s Computing simulation %s (%s)", m.spinner.View(), m.id, m.state)
	return labelStyle.Render(label) + "\n" + barStyle.Render(m.bar.ViewAs(m.percent)) + "\n"
}
