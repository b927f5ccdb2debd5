package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ecorewards/ecorewards/internal/authflow"
	"github.com/ecorewards/ecorewards/internal/utils"
)

// Strings
const (
	txtEmailPlaceholder    = "your@email.com"
	txtPasswordPlaceholder = "••••••••"
	txtOTPPlaceholder      = "123456"
	txtOTPInfo             = "Please check your inbox or junk folder."
	txtInvalidEmail        = "Invalid email"
	txtWait                = "Please wait for the current request to finish"
	txtResetInSignUp       = "Switch to sign in to reset your password"
	txtToSignUp            = "Don't have an account? 'Ctrl+T' to sign up."
	txtToSignIn            = "Already have an account? 'Ctrl+T' to sign in."
	txtForgot              = "Forgot password? 'Ctrl+F' to reset it."
	txtHelpCredentials     = "'Enter' to submit. 'Tab' to switch fields. 'Esc' to quit."
	txtHelpRecovery        = "'Enter' to submit. 'Esc' to go back. 'Ctrl+C' to quit."
)

var pendingText = map[string]string{
	"sign_in":         "Signing in...",
	"sign_up":         "Creating account...",
	"send_otp":        "Sending code...",
	"verify_otp":      "Verifying code...",
	"update_password": "Updating password...",
}

// Styles
var (
	focusedStyle     = green
	helpStyle        = gray
	errorTextStyle   = red
	errorHeaderStyle = red.Bold(true)
	infoStyle        = green
	spinnerStyle     = cyan
	placeholderStyle = gray
	titleStyle       = cyan.Bold(true)
	labelStyle       = lightGray
)

type LoginTUIOpts struct {
	Context    context.Context
	ServerURL  string
	ConfigPath string
	Note       string // optional note to display to the user
	Email      string // prefilled email
	Mode       authflow.Mode
	Flow       *authflow.Controller
	Events     *flowEvents
}

// loginModel renders an authflow.Controller. The controller owns the flow state; the model only
// holds the text inputs and copies State after every change.
type loginModel struct {
	opts *LoginTUIOpts

	emailInput       textinput.Model
	passwordInput    textinput.Model
	otpInput         textinput.Model
	newPasswordInput textinput.Model
	spinner          spinner.Model

	state        authflow.State
	focus        int    // index into inputs()
	pendingOp    string // op of the call in flight
	errorMessage string // submits rejected before reaching the provider
	done         bool
	width        int
}

// --- Messages ---
type callSettledMsg struct {
	op     string
	result authflow.Result
}

func newInput(placeholder string, limit int, secret bool) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Width = limit
	in.PromptStyle = focusedStyle
	in.TextStyle = focusedStyle
	in.PlaceholderStyle = placeholderStyle
	if secret {
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '•'
	}
	return in
}

func newLoginModel(opts *LoginTUIOpts) loginModel {
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	m := loginModel{
		opts:             opts,
		emailInput:       newInput(txtEmailPlaceholder, 64, false),
		passwordInput:    newInput(txtPasswordPlaceholder, 72, true),
		otpInput:         newInput(txtOTPPlaceholder, 10, false),
		newPasswordInput: newInput(txtPasswordPlaceholder, 72, true),
		spinner:          s,
	}

	// the flow is open on credential entry here, so these cannot fail
	_ = opts.Flow.SetMode(opts.Mode)
	if opts.Email != "" {
		m.emailInput.SetValue(opts.Email)
		_ = opts.Flow.SetEmail(opts.Email)
		m.focus = 1
	}

	m.refresh()
	m.focusInputs()
	return m
}

func (m loginModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m loginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case callSettledMsg:
		return m.handleSettled(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
	}

	return m, nil
}

func (m loginModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m.quit()

	case tea.KeyEsc:
		return m.handleEscapeKey()

	case tea.KeyEnter:
		if m.state.Pending {
			m.errorMessage = txtWait
			return m, nil
		}
		return m.submit()
	}

	// navigation is locked while a request is in flight
	if m.state.Pending {
		return m, nil
	}

	switch msg.Type {
	case tea.KeyTab, tea.KeyDown:
		m.focus = (m.focus + 1) % len(m.inputs())
		return m, m.focusInputs()

	case tea.KeyShiftTab, tea.KeyUp:
		n := len(m.inputs())
		m.focus = (m.focus + n - 1) % n
		return m, m.focusInputs()

	case tea.KeyCtrlT:
		if err := m.opts.Flow.ToggleMode(); err == nil {
			m.errorMessage = ""
			m.refresh()
		}
		return m, nil

	case tea.KeyCtrlF:
		if err := m.opts.Flow.OpenForgotPassword(); err != nil {
			if errors.Is(err, authflow.ErrForgotPasswordInSignUp) {
				m.errorMessage = txtResetInSignUp
			}
			return m, nil
		}
		m.errorMessage = ""
		return m.enterView()
	}

	// everything else is typing
	m.errorMessage = ""
	in := m.inputs()[m.focus]
	var cmd tea.Cmd
	*in, cmd = in.Update(msg)
	m.syncField()
	m.refresh()
	return m, cmd
}

// handleEscapeKey goes back one step, or quits from credential entry
func (m loginModel) handleEscapeKey() (tea.Model, tea.Cmd) {
	if !m.state.CanGoBack() {
		return m.quit()
	}
	if err := m.opts.Flow.GoBack(); err != nil {
		return m, nil
	}
	m.errorMessage = ""
	return m.enterView()
}

func (m loginModel) quit() (tea.Model, tea.Cmd) {
	m.opts.Flow.Close()
	m.refresh()
	return m, tea.Quit
}

// submit hands the current view's inputs to the controller and runs the admitted call
func (m loginModel) submit() (tea.Model, tea.Cmd) {
	f := m.opts.Flow
	email := strings.TrimSpace(m.emailInput.Value())

	var call *authflow.Call
	var err error

	switch m.state.View {
	case authflow.ViewCredentials:
		// enter on the email field moves on to the password first
		if m.focus == 0 && m.passwordInput.Value() == "" {
			m.focus = 1
			return m, m.focusInputs()
		}
		call, err = f.BeginCredentials(email, m.passwordInput.Value(), m.state.Mode)
	case authflow.ViewForgotEmail:
		call, err = f.BeginPasswordResetCode(email)
	case authflow.ViewForgotOTP:
		call, err = f.BeginVerifyResetCode(m.state.Email, m.otpInput.Value())
	case authflow.ViewResetPassword:
		call, err = f.BeginNewPassword(m.newPasswordInput.Value())
	}

	if err != nil {
		m.errorMessage = describeRejection(err)
		return m, nil
	}

	m.errorMessage = ""
	m.pendingOp = call.Op()
	m.refresh()
	m.focusInputs()

	ctx := m.opts.Context
	return m, func() tea.Msg {
		return callSettledMsg{op: call.Op(), result: call.Run(ctx)}
	}
}

func (m loginModel) handleSettled(msg callSettledMsg) (tea.Model, tea.Cmd) {
	if msg.op == m.pendingOp {
		m.pendingOp = ""
	}

	prev := m.state.View
	m.refresh()

	if msg.result == authflow.ResultSucceeded && m.opts.Events.Succeeded() {
		m.done = true
		return m, tea.Quit
	}

	if m.state.View != prev {
		return m.enterView()
	}
	return m, m.focusInputs()
}

// enterView resets the step inputs after a view change and focuses the first field
func (m loginModel) enterView() (tea.Model, tea.Cmd) {
	m.refresh()
	switch m.state.View {
	case authflow.ViewForgotOTP:
		m.otpInput.Reset()
	case authflow.ViewResetPassword:
		m.newPasswordInput.Reset()
	case authflow.ViewCredentials:
		m.otpInput.Reset()
		m.newPasswordInput.Reset()
	}
	m.focus = 0
	return m, m.focusInputs()
}

func (m *loginModel) refresh() {
	m.state = m.opts.Flow.State()
}

// inputs lists the fields of the active view in focus order
func (m *loginModel) inputs() []*textinput.Model {
	switch m.state.View {
	case authflow.ViewForgotEmail:
		return []*textinput.Model{&m.emailInput}
	case authflow.ViewForgotOTP:
		return []*textinput.Model{&m.otpInput}
	case authflow.ViewResetPassword:
		return []*textinput.Model{&m.newPasswordInput}
	}
	return []*textinput.Model{&m.emailInput, &m.passwordInput}
}

// focusInputs focuses the selected field of the active view, or none while a request is pending
func (m *loginModel) focusInputs() tea.Cmd {
	for _, in := range []*textinput.Model{&m.emailInput, &m.passwordInput, &m.otpInput, &m.newPasswordInput} {
		in.Blur()
	}

	inputs := m.inputs()
	if m.focus >= len(inputs) {
		m.focus = 0
	}
	if m.state.Pending {
		return nil
	}
	return inputs[m.focus].Focus()
}

// syncField pushes the edited field into the controller. Setters only fail outside their view,
// and the switch already matches the view, so their errors are ignored.
func (m *loginModel) syncField() {
	f := m.opts.Flow
	switch m.state.View {
	case authflow.ViewCredentials:
		_ = f.SetEmail(m.emailInput.Value())
		_ = f.SetPassword(m.passwordInput.Value())
	case authflow.ViewForgotEmail:
		_ = f.SetEmail(m.emailInput.Value())
	case authflow.ViewForgotOTP:
		_ = f.SetOTPCode(m.otpInput.Value())
	case authflow.ViewResetPassword:
		_ = f.SetNewPassword(m.newPasswordInput.Value())
	}
}

func describeRejection(err error) string {
	var fe *authflow.FieldError
	if errors.As(err, &fe) {
		if errors.Is(fe.Err, utils.ErrEmailInvalid) {
			return txtInvalidEmail
		}
		msg := fe.Field + " " + fe.Err.Error()
		return strings.ToUpper(msg[:1]) + msg[1:]
	}
	if errors.Is(err, authflow.ErrRequestPending) {
		return txtWait
	}
	return err.Error()
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(utils.EcoRewardsArt))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s%s\n", gray.Render("Server  "), green.Render(m.opts.ServerURL)))
	b.WriteString(fmt.Sprintf("%s%s\n", gray.Render("Config  "), green.Render(m.opts.ConfigPath)))
	if m.opts.Note != "" {
		b.WriteString(fmt.Sprintf("\n%s\n", yellow.Render(m.opts.Note)))
	}
	b.WriteString("\n")

	b.WriteString(titleStyle.Render(m.state.Title()))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.state.Subtitle()))
	b.WriteString("\n\n")

	switch m.state.View {
	case authflow.ViewCredentials:
		m.renderCredentialsView(&b)
	case authflow.ViewForgotEmail:
		m.renderField(&b, "Email", m.emailInput)
	case authflow.ViewForgotOTP:
		b.WriteString(helpStyle.Render(txtOTPInfo))
		b.WriteString("\n\n")
		m.renderField(&b, "Code", m.otpInput)
	case authflow.ViewResetPassword:
		m.renderField(&b, "New password", m.newPasswordInput)
	}

	b.WriteString("\n")
	b.WriteString(focusedStyle.Render("[ " + m.state.SubmitLabel() + " ]"))

	m.renderLoadingView(&b)
	m.renderErrorView(&b)
	m.renderInfoView(&b)
	m.renderHelpView(&b)
	b.WriteString("\n")
	return b.String()
}

func (m loginModel) renderCredentialsView(b *strings.Builder) {
	m.renderField(b, "Email", m.emailInput)
	m.renderField(b, "Password", m.passwordInput)
	b.WriteString("\n")
	if m.state.Mode == authflow.ModeSignUp {
		b.WriteString(helpStyle.Render(txtToSignIn))
	} else {
		b.WriteString(helpStyle.Render(txtToSignUp))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render(txtForgot))
	}
	b.WriteString("\n")
}

func (m loginModel) renderField(b *strings.Builder, label string, in textinput.Model) {
	b.WriteString(labelStyle.Render(label))
	b.WriteString("\n")
	b.WriteString(in.View())
	b.WriteString("\n")
}

func (m loginModel) renderLoadingView(b *strings.Builder) {
	if m.state.Pending {
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("%s %s", m.spinner.View(), pendingText[m.pendingOp]))
	}
}

func (m loginModel) renderErrorView(b *strings.Builder) {
	msg := m.errorMessage
	if msg == "" {
		msg = m.state.Error
	}
	if msg != "" {
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("%s %s", errorHeaderStyle.Render("ERROR:"), errorTextStyle.Render(msg)))
	}
}

func (m loginModel) renderInfoView(b *strings.Builder) {
	if m.state.Info != "" {
		b.WriteString("\n\n")
		b.WriteString(infoStyle.Render(m.state.Info))
	}
}

func (m loginModel) renderHelpView(b *strings.Builder) {
	b.WriteString("\n\n")
	if m.state.View == authflow.ViewCredentials {
		b.WriteString(helpStyle.Render(txtHelpCredentials))
	} else {
		b.WriteString(helpStyle.Render(txtHelpRecovery))
	}
}

// RunLoginTUI runs the full screen login flow. It returns nil once the controller reports success.
func RunLoginTUI(opts LoginTUIOpts) error {
	m := newLoginModel(&opts)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(opts.Context)).Run()
	outcome := loginOutcome(&opts, final)
	if err != nil {
		return fmt.Errorf("TUI encountered an error during execution: %w", err)
	}
	return outcome
}

// loginOutcome reports how the program ended. A flow that was neither completed nor closed by the
// user (the program was killed or its context cancelled) is closed here.
func loginOutcome(opts *LoginTUIOpts, final tea.Model) error {
	if fm, ok := final.(loginModel); ok && fm.done {
		return nil
	}
	if !opts.Events.Closed() {
		opts.Flow.Close()
	}
	return errLoginCancelled
}
