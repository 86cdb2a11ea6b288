// Package ui hosts the full-screen terminal frontend.
package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskman/internal/api"
	"taskman/internal/session"
	"taskman/internal/tasks"
	"taskman/internal/ui/styles"
	"taskman/internal/ui/views"
)

type resumeDoneMsg struct {
	err error
}

type viewID int

const (
	viewLogin viewID = iota
	viewTasks
)

// App is the root model. It owns the session and switches between the
// login form and the task list depending on session state.
type App struct {
	sess  *session.Session
	store *tasks.Store

	current viewID
	login   *views.LoginView
	tasks   *views.TaskListView

	spinner  spinner.Model
	resuming bool

	width  int
	height int
}

// NewApp builds the root model. register is called by the login view's
// account-creation form.
func NewApp(sess *session.Session, store *tasks.Store, register views.RegisterFunc) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Current.Primary)

	return &App{
		sess:    sess,
		store:   store,
		current: viewLogin,
		login:   views.NewLoginView(sess, register),
		tasks:   views.NewTaskListView(sess, store),
		spinner: sp,
	}
}

// Init resumes a persisted session if one exists, otherwise shows the
// login form.
func (a *App) Init() tea.Cmd {
	if a.sess.IsLoading() {
		a.resuming = true
		return tea.Batch(a.spinner.Tick, a.resume)
	}
	return a.login.Init()
}

func (a *App) resume() tea.Msg {
	return resumeDoneMsg{err: a.sess.Resume(context.Background())}
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.login.Update(msg)
		a.tasks.Update(msg)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

	case resumeDoneMsg:
		a.resuming = false
		if msg.err != nil {
			a.current = viewLogin
			if api.IsNetwork(msg.err) {
				a.login.SetNotice("could not reach the server, log in to retry")
			}
			return a, a.login.Init()
		}
		a.current = viewTasks
		return a, a.tasks.Init()

	case views.LoggedIn:
		a.current = viewTasks
		return a, a.tasks.Init()

	case views.LoggedOut:
		a.current = viewLogin
		a.login.SetNotice("logged out")
		return a, a.login.Init()

	case spinner.TickMsg:
		if a.resuming {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	if a.resuming {
		return a, nil
	}

	var cmd tea.Cmd
	switch a.current {
	case viewLogin:
		_, cmd = a.login.Update(msg)
	case viewTasks:
		_, cmd = a.tasks.Update(msg)
	}
	return a, cmd
}

// View renders the app
func (a *App) View() string {
	if a.resuming {
		return styles.CenterView(a.spinner.View()+" restoring session...", a.width, a.height)
	}
	switch a.current {
	case viewTasks:
		return a.tasks.View()
	default:
		return a.login.View()
	}
}
