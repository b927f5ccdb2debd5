package authflow

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ecorewards/ecorewards/internal/utils"
)

const DefaultRequestTimeout = 30 * time.Second

const (
	noticeAccountCreated  = "Account created! Check your email for confirmation link."
	noticePasswordUpdated = "Password updated successfully!"
	infoCodeSent          = "OTP code sent to your email!"
	infoEmailVerified     = "Email verified! secure your account."
)

// Hooks are callbacks into the embedding UI. They run outside the controller lock, so they may
// call State.
type Hooks struct {
	OnNotice  func(msg string) // one-off confirmation, e.g. an alert
	OnSuccess func()           // sign in, sign up, or password reset completed
	OnClose   func()           // the flow was closed and reset
}

type Option func(*Controller)

func WithHooks(h Hooks) Option {
	return func(c *Controller) {
		c.hooks = h
	}
}

// WithTimeout bounds each provider call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.timeout = d
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// Controller drives credential entry and the OTP password recovery flow.
type Controller struct {
	provider AuthProvider
	hooks    Hooks
	timeout  time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	open     bool
	mode     Mode
	email    string
	password string
	step     step
	pending  bool
	inflight *Call // the admitted call that owns pending
	errMsg   string
	info     string
	epoch    uint64 // bumped whenever in-flight results must be dropped
}

// New returns a closed controller. Call Open before use.
func New(provider AuthProvider, opts ...Option) *Controller {
	c := &Controller{
		provider: provider,
		timeout:  DefaultRequestTimeout,
		logger:   slog.Default(),
		step:     credentialsStep{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "authflow")
	return c
}

func (c *Controller) Open() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
	c.logger.Debug("auth flow open")
}

// Close resets every field to its initial value, drops any in-flight result and fires OnClose.
func (c *Controller) Close() {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()

	c.logger.Debug("auth flow closed")
	c.fire(c.hooks.OnClose)
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		Open:     c.open,
		View:     c.step.view(),
		Mode:     c.mode,
		Email:    c.email,
		Password: c.password,
		Pending:  c.pending,
		Error:    c.errMsg,
		Info:     c.info,
	}
	switch st := c.step.(type) {
	case forgotOTPStep:
		s.OTPCode = st.code
	case resetPasswordStep:
		s.NewPassword = st.newPassword
	}
	return s
}

func (c *Controller) SetEmail(email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpenLocked(); err != nil {
		return err
	}
	switch c.step.(type) {
	case credentialsStep, forgotEmailStep:
		c.email = email
		return nil
	}
	return ErrWrongView
}

func (c *Controller) SetPassword(password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkViewLocked(ViewCredentials); err != nil {
		return err
	}
	c.password = password
	return nil
}

func (c *Controller) SetOTPCode(code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkViewLocked(ViewForgotOTP); err != nil {
		return err
	}
	c.step = forgotOTPStep{code: code}
	return nil
}

func (c *Controller) SetNewPassword(newPassword string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkViewLocked(ViewResetPassword); err != nil {
		return err
	}
	c.step = resetPasswordStep{newPassword: newPassword}
	return nil
}

func (c *Controller) SetMode(mode Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkViewLocked(ViewCredentials); err != nil {
		return err
	}
	c.mode = mode
	return nil
}

func (c *Controller) ToggleMode() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkViewLocked(ViewCredentials); err != nil {
		return err
	}
	if c.mode == ModeSignIn {
		c.mode = ModeSignUp
	} else {
		c.mode = ModeSignIn
	}
	return nil
}

// OpenForgotPassword moves from credential entry to the email step of password recovery.
func (c *Controller) OpenForgotPassword() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkViewLocked(ViewCredentials); err != nil {
		return err
	}
	if c.mode == ModeSignUp {
		return ErrForgotPasswordInSignUp
	}
	c.transitionLocked(forgotEmailStep{})
	c.errMsg = ""
	c.info = ""
	return nil
}

// GoBack returns to credential entry from any recovery step. Email and password survive;
// the step-local code or new password do not. The result of a request still in flight is
// dropped, but pending stays set until that request settles.
func (c *Controller) GoBack() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpenLocked(); err != nil {
		return err
	}
	if c.step.view() == ViewCredentials {
		return ErrWrongView
	}
	if c.pending {
		c.epoch++
	}
	c.transitionLocked(credentialsStep{})
	c.errMsg = ""
	c.info = ""
	return nil
}

// BeginCredentials admits a sign in or sign up request. The returned call must be Run: until it
// settles every other admission fails with ErrRequestPending, and only Close releases a call that
// is never run.
func (c *Controller) BeginCredentials(email, password string, mode Mode) (*Call, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := required("password", password); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.admitLocked(ViewCredentials); err != nil {
		return nil, err
	}
	c.email, c.password, c.mode = email, password, mode

	if mode == ModeSignUp {
		return c.newCallLocked("sign_up",
			func(ctx context.Context) error { return c.provider.SignUp(ctx, email, password) },
			func() []func() {
				return []func(){c.notice(noticeAccountCreated), c.hooks.OnSuccess}
			},
		), nil
	}

	return c.newCallLocked("sign_in",
		func(ctx context.Context) error { return c.provider.SignInWithPassword(ctx, email, password) },
		func() []func() {
			return []func(){c.hooks.OnSuccess}
		},
	), nil
}

// BeginPasswordResetCode admits a request to mail a one-time code to email.
func (c *Controller) BeginPasswordResetCode(email string) (*Call, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open && c.mode == ModeSignUp {
		return nil, ErrForgotPasswordInSignUp
	}
	if err := c.admitLocked(ViewForgotEmail); err != nil {
		return nil, err
	}
	c.email = email

	return c.newCallLocked("send_otp",
		func(ctx context.Context) error { return c.provider.SendOTP(ctx, email, false) },
		func() []func() {
			c.transitionLocked(forgotOTPStep{})
			c.info = infoCodeSent
			return nil
		},
	), nil
}

// BeginVerifyResetCode admits verification of the mailed code.
func (c *Controller) BeginVerifyResetCode(email, code string) (*Call, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if err := required("code", code); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.admitLocked(ViewForgotOTP); err != nil {
		return nil, err
	}
	c.email = email
	c.step = forgotOTPStep{code: code}

	return c.newCallLocked("verify_otp",
		func(ctx context.Context) error { return c.provider.VerifyOTP(ctx, email, code, OTPTypeEmail) },
		func() []func() {
			c.transitionLocked(resetPasswordStep{})
			c.info = infoEmailVerified
			return nil
		},
	), nil
}

// BeginNewPassword admits the final password update. On success the flow reports success and
// closes itself.
func (c *Controller) BeginNewPassword(newPassword string) (*Call, error) {
	if err := required("new password", newPassword); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.admitLocked(ViewResetPassword); err != nil {
		return nil, err
	}
	c.step = resetPasswordStep{newPassword: newPassword}

	return c.newCallLocked("update_password",
		func(ctx context.Context) error { return c.provider.UpdatePassword(ctx, newPassword) },
		func() []func() {
			c.resetLocked()
			return []func(){c.notice(noticePasswordUpdated), c.hooks.OnSuccess, c.hooks.OnClose}
		},
	), nil
}

// SubmitCredentials is BeginCredentials followed by Run.
func (c *Controller) SubmitCredentials(ctx context.Context, email, password string, mode Mode) (Result, error) {
	return run(ctx, func() (*Call, error) { return c.BeginCredentials(email, password, mode) })
}

// RequestPasswordResetCode is BeginPasswordResetCode followed by Run.
func (c *Controller) RequestPasswordResetCode(ctx context.Context, email string) (Result, error) {
	return run(ctx, func() (*Call, error) { return c.BeginPasswordResetCode(email) })
}

// VerifyResetCode is BeginVerifyResetCode followed by Run.
func (c *Controller) VerifyResetCode(ctx context.Context, email, code string) (Result, error) {
	return run(ctx, func() (*Call, error) { return c.BeginVerifyResetCode(email, code) })
}

// SubmitNewPassword is BeginNewPassword followed by Run.
func (c *Controller) SubmitNewPassword(ctx context.Context, newPassword string) (Result, error) {
	return run(ctx, func() (*Call, error) { return c.BeginNewPassword(newPassword) })
}

func run(ctx context.Context, begin func() (*Call, error)) (Result, error) {
	call, err := begin()
	if err != nil {
		return ResultRejected, err
	}
	return call.Run(ctx), nil
}

func (c *Controller) admitLocked(v View) error {
	if err := c.checkViewLocked(v); err != nil {
		return err
	}
	if c.pending {
		return ErrRequestPending
	}
	c.pending = true
	c.errMsg = ""
	return nil
}

func (c *Controller) checkOpenLocked() error {
	if !c.open {
		return ErrClosed
	}
	return nil
}

func (c *Controller) checkViewLocked(v View) error {
	if err := c.checkOpenLocked(); err != nil {
		return err
	}
	if c.step.view() != v {
		return ErrWrongView
	}
	return nil
}

func (c *Controller) transitionLocked(next step) {
	c.logger.Debug("auth flow transition", "from", c.step.view(), "to", next.view())
	c.step = next
}

func (c *Controller) resetLocked() {
	c.open = false
	c.mode = ModeSignIn
	c.email = ""
	c.password = ""
	c.step = credentialsStep{}
	c.pending = false
	c.inflight = nil
	c.errMsg = ""
	c.info = ""
	c.epoch++
}

func (c *Controller) notice(msg string) func() {
	if c.hooks.OnNotice == nil {
		return nil
	}
	return func() { c.hooks.OnNotice(msg) }
}

func (c *Controller) fire(hooks ...func()) {
	for _, h := range hooks {
		if h != nil {
			h()
		}
	}
}

func validateEmail(email string) error {
	if err := required("email", email); err != nil {
		return err
	}
	if err := utils.ValidateEmail(email); err != nil {
		return &FieldError{Field: "email", Err: err}
	}
	return nil
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &FieldError{Field: field, Err: errFieldRequired}
	}
	return nil
}
