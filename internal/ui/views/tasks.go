package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskman/internal/service"
	"taskman/internal/session"
	"taskman/internal/tasks"
	"taskman/internal/ui/keys"
	"taskman/internal/ui/styles"
)

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// LoggedOut signals that the user logged out.
type LoggedOut struct{}

type tasksLoadedMsg struct {
	err error
}

type mutationDoneMsg struct {
	err error
}

type saveDoneMsg struct {
	err error
}

// TaskListView shows the session's tasks.
type TaskListView struct {
	sess   *session.Session
	store  *tasks.Store
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	// UI state
	tasks     []service.Task
	cursor    int
	scrollY   int
	loading   bool
	statusErr string

	// Task creation/editing
	editing      bool
	editingNew   bool
	editID       int64
	editTitle    textinput.Model
	editDesc     textarea.Model
	editDone     bool
	editFocusIdx int // 0=title, 1=desc, 2=done, 3=save
	editErr      string

	// Delete confirmation
	confirmingDelete bool
	deleteTargetID   int64
	deleteTargetName string
}

// NewTaskListView creates the task list view.
func NewTaskListView(sess *session.Session, store *tasks.Store) *TaskListView {
	editTitle := textinput.New()
	editTitle.Placeholder = "Task title"
	editTitle.CharLimit = 200

	editDesc := textarea.New()
	editDesc.Placeholder = "Description"
	editDesc.CharLimit = 2000
	editDesc.SetWidth(50)
	editDesc.SetHeight(3)
	editDesc.ShowLineNumbers = false

	return &TaskListView{
		sess:      sess,
		store:     store,
		styles:    styles.NewStyles(),
		keys:      keys.DefaultKeyMap(),
		editTitle: editTitle,
		editDesc:  editDesc,
	}
}

// Init initializes the view
func (v *TaskListView) Init() tea.Cmd {
	v.loading = true
	return v.loadTasks
}

func (v *TaskListView) loadTasks() tea.Msg {
	return tasksLoadedMsg{err: v.store.Load(context.Background())}
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(v.width)
		v.editDesc.SetWidth(clamp(contentWidth-10, 20, 50))
		return v, nil

	case tasksLoadedMsg:
		v.loading = false
		if msg.err != nil {
			v.statusErr = msg.err.Error()
			return v, nil
		}
		v.statusErr = ""
		v.refresh()
		return v, nil

	case mutationDoneMsg:
		if msg.err != nil {
			v.statusErr = msg.err.Error()
			return v, nil
		}
		v.statusErr = ""
		v.refresh()
		return v, nil

	case saveDoneMsg:
		if msg.err != nil {
			// Stay in the form with the user's values intact.
			v.editErr = msg.err.Error()
			return v, nil
		}
		v.editing = false
		v.editErr = ""
		v.refresh()
		return v, nil

	case tea.KeyMsg:
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		if v.editing {
			return v.updateEditing(msg)
		}
		return v.updateNormal(msg)
	}

	return v, nil
}

// refresh re-reads the reconciled cache into the render slice.
func (v *TaskListView) refresh() {
	v.tasks = v.store.Tasks()
	if v.cursor >= len(v.tasks) {
		v.cursor = max(0, len(v.tasks)-1)
	}
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.tasks)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		v.startNewTask()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Edit):
		if len(v.tasks) > 0 {
			v.startEditTask(v.tasks[v.cursor])
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.Toggle):
		if len(v.tasks) > 0 {
			id := v.tasks[v.cursor].ID
			return v, func() tea.Msg {
				_, err := v.store.Toggle(context.Background(), id)
				return mutationDoneMsg{err: err}
			}
		}
		return v, nil

	case key.Matches(msg, v.keys.Delete):
		if len(v.tasks) > 0 {
			v.confirmingDelete = true
			v.deleteTargetID = v.tasks[v.cursor].ID
			v.deleteTargetName = v.tasks[v.cursor].Title
		}
		return v, nil

	case key.Matches(msg, v.keys.Reload):
		v.loading = true
		return v, v.loadTasks

	case key.Matches(msg, v.keys.Logout):
		v.sess.Logout()
		v.tasks = nil
		return v, func() tea.Msg { return LoggedOut{} }
	}

	return v, nil
}

func (v *TaskListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		id := v.deleteTargetID
		return v, func() tea.Msg {
			return mutationDoneMsg{err: v.store.Delete(context.Background(), id)}
		}
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

func (v *TaskListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		v.editErr = ""
		return v, nil

	case msg.String() == "ctrl+s":
		return v, v.saveTask()

	case key.Matches(msg, v.keys.Tab):
		v.editFocusIdx = (v.editFocusIdx + 1) % 4
		v.updateEditFocus()
		return v, nil

	case msg.String() == "shift+tab":
		v.editFocusIdx = (v.editFocusIdx + 3) % 4
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		// Enter on title moves to the description; enter on the done
		// checkbox toggles it; enter on save saves. In the textarea it
		// inserts a newline.
		switch v.editFocusIdx {
		case 0:
			v.editFocusIdx = 1
			v.updateEditFocus()
			return v, nil
		case 2:
			v.editDone = !v.editDone
			return v, nil
		case 3:
			return v, v.saveTask()
		}

	case msg.String() == " ":
		if v.editFocusIdx == 2 {
			v.editDone = !v.editDone
			return v, nil
		}
	}

	var cmd tea.Cmd
	switch v.editFocusIdx {
	case 0:
		v.editTitle, cmd = v.editTitle.Update(msg)
	case 1:
		v.editDesc, cmd = v.editDesc.Update(msg)
	}
	return v, cmd
}

func (v *TaskListView) startNewTask() {
	v.editing = true
	v.editingNew = true
	v.editID = 0
	v.editFocusIdx = 0
	v.editDone = false
	v.editErr = ""
	v.editTitle.Reset()
	v.editDesc.Reset()
	v.updateEditFocus()
}

func (v *TaskListView) startEditTask(task service.Task) {
	v.editing = true
	v.editingNew = false
	v.editID = task.ID
	v.editFocusIdx = 0
	v.editDone = task.IsCompleted
	v.editErr = ""
	v.editTitle.SetValue(task.Title)
	if task.Description != nil {
		v.editDesc.SetValue(*task.Description)
	} else {
		v.editDesc.Reset()
	}
	v.updateEditFocus()
}

func (v *TaskListView) updateEditFocus() {
	v.editTitle.Blur()
	v.editDesc.Blur()

	switch v.editFocusIdx {
	case 0:
		v.editTitle.Focus()
	case 1:
		v.editDesc.Focus()
	}
}

func (v *TaskListView) saveTask() tea.Cmd {
	title := strings.TrimSpace(v.editTitle.Value())
	if title == "" {
		v.editErr = "title required"
		return nil
	}

	desc := strings.TrimSpace(v.editDesc.Value())
	done := v.editDone

	if v.editingNew {
		newTask := service.NewTask{Title: title}
		if desc != "" {
			newTask.Description = &desc
		}
		if done {
			newTask.IsCompleted = &done
		}
		return func() tea.Msg {
			_, err := v.store.Create(context.Background(), newTask)
			return saveDoneMsg{err: err}
		}
	}

	id := v.editID
	patch := service.TaskPatch{
		Title:       &title,
		Description: &desc,
		IsCompleted: &done,
	}
	return func() tea.Msg {
		_, err := v.store.Update(context.Background(), id, patch)
		return saveDoneMsg{err: err}
	}
}

// View renders the view
func (v *TaskListView) View() string {
	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}
	if v.editing {
		return v.renderEditForm()
	}

	var b strings.Builder
	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(v.renderTaskList())
	b.WriteString("\n")
	b.WriteString(v.renderStatus())
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderHeader() string {
	s := v.styles
	title := s.Title.Render("taskman")
	who := ""
	if p := v.sess.Profile(); p != nil {
		who = s.TitleMuted.Render("  " + p.Username)
	}
	return title + who
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles

	if v.loading {
		return s.TitleMuted.Render("  loading tasks...")
	}
	if len(v.tasks) == 0 {
		return s.TitleMuted.Render("  no tasks — press n to create one")
	}

	visibleItems := v.visibleItems()
	var b strings.Builder
	for i := v.scrollY; i < len(v.tasks) && i < v.scrollY+visibleItems; i++ {
		task := v.tasks[i]
		box := "[ ]"
		if task.IsCompleted {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %s", box, firstLine(task.Title))

		style := s.ListItem
		if task.IsCompleted {
			style = s.ListDone
		}
		if i == v.cursor {
			style = s.ListSelected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func (v *TaskListView) renderStatus() string {
	if v.statusErr == "" {
		return ""
	}
	return v.styles.Error.Render(v.statusErr) + "\n"
}

func (v *TaskListView) renderHelp() string {
	s := v.styles
	parts := []string{
		s.HelpKey.Render("n") + s.HelpDesc.Render(" new"),
		s.HelpKey.Render("e") + s.HelpDesc.Render(" edit"),
		s.HelpKey.Render("space") + s.HelpDesc.Render(" toggle"),
		s.HelpKey.Render("x") + s.HelpDesc.Render(" delete"),
		s.HelpKey.Render("r") + s.HelpDesc.Render(" reload"),
		s.HelpKey.Render("ctrl+l") + s.HelpDesc.Render(" log out"),
		s.HelpKey.Render("q") + s.HelpDesc.Render(" quit"),
	}
	return s.Help.Render(strings.Join(parts, "  "))
}

func (v *TaskListView) renderEditForm() string {
	s := v.styles
	var b strings.Builder

	header := "Edit task"
	if v.editingNew {
		header = "New task"
	}
	b.WriteString(s.Title.Render(header))
	b.WriteString("\n\n")

	titleStyle := s.Input
	if v.editFocusIdx == 0 {
		titleStyle = s.InputFocused
	}
	b.WriteString(titleStyle.Render(v.editTitle.View()))
	b.WriteString("\n")

	descStyle := s.Input
	if v.editFocusIdx == 1 {
		descStyle = s.InputFocused
	}
	b.WriteString(descStyle.Render(v.editDesc.View()))
	b.WriteString("\n")

	box := "[ ] completed"
	if v.editDone {
		box = "[x] completed"
	}
	doneStyle := s.Button
	if v.editFocusIdx == 2 {
		doneStyle = s.ButtonFocused
	}
	b.WriteString(doneStyle.Render(box))
	b.WriteString("\n")

	saveStyle := s.Button
	if v.editFocusIdx == 3 {
		saveStyle = s.ButtonFocused
	}
	b.WriteString(saveStyle.Render("save"))
	b.WriteString("\n")

	if v.editErr != "" {
		b.WriteString(s.Error.Render(v.editErr))
		b.WriteString("\n")
	}

	b.WriteString(s.Help.Render("tab next field • ctrl+s save • esc cancel"))

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderDeleteConfirm() string {
	s := v.styles
	var b strings.Builder
	b.WriteString(s.Title.Render("Delete task?"))
	b.WriteString("\n\n")
	b.WriteString(s.ListItem.Render(firstLine(v.deleteTargetName)))
	b.WriteString("\n\n")
	b.WriteString(s.Help.Render("y delete • n cancel"))
	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) ensureVisible() {
	visibleItems := v.visibleItems()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visibleItems {
		v.scrollY = v.cursor - visibleItems + 1
	}
}

func (v *TaskListView) visibleItems() int {
	available := v.height - 8
	if available < 1 {
		available = 1
	}
	return available
}

// firstLine keeps titles on one display row.
func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	if strings.TrimSpace(s) == "" {
		return "(untitled)"
	}
	return s
}
