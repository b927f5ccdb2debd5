package authflow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) SignUp(ctx context.Context, email, password string) error {
	args := m.Called(ctx, email, password)
	return args.Error(0)
}

func (m *MockProvider) SignInWithPassword(ctx context.Context, email, password string) error {
	args := m.Called(ctx, email, password)
	return args.Error(0)
}

func (m *MockProvider) SendOTP(ctx context.Context, email string, createUser bool) error {
	args := m.Called(ctx, email, createUser)
	return args.Error(0)
}

func (m *MockProvider) VerifyOTP(ctx context.Context, email, code, otpType string) error {
	args := m.Called(ctx, email, code, otpType)
	return args.Error(0)
}

func (m *MockProvider) UpdatePassword(ctx context.Context, newPassword string) error {
	args := m.Called(ctx, newPassword)
	return args.Error(0)
}

type hookRecorder struct {
	mu        sync.Mutex
	notices   []string
	successes int
	closes    int
}

func (r *hookRecorder) hooks() Hooks {
	return Hooks{
		OnNotice: func(msg string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.notices = append(r.notices, msg)
		},
		OnSuccess: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.successes++
		},
		OnClose: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.closes++
		},
	}
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *MockProvider, *hookRecorder) {
	t.Helper()
	p := &MockProvider{}
	rec := &hookRecorder{}
	c := New(p, append([]Option{WithHooks(rec.hooks())}, opts...)...)
	c.Open()
	t.Cleanup(func() { p.AssertExpectations(t) })
	return c, p, rec
}

func initialState() State {
	return State{View: ViewCredentials, Mode: ModeSignIn}
}

// walks a controller to ViewForgotOTP for email
func toForgotOTP(t *testing.T, c *Controller, p *MockProvider, email string) {
	t.Helper()
	require.NoError(t, c.OpenForgotPassword())
	p.On("SendOTP", mock.Anything, email, false).Return(nil).Once()
	res, err := c.RequestPasswordResetCode(t.Context(), email)
	require.NoError(t, err)
	require.Equal(t, ResultSucceeded, res)
}

func TestNew_StartsClosed(t *testing.T) {
	c := New(&MockProvider{})
	assert.Equal(t, initialState(), c.State())

	_, err := c.BeginCredentials("a@b.com", "pw", ModeSignIn)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, c.GoBack(), ErrClosed)
	assert.ErrorIs(t, c.SetEmail("a@b.com"), ErrClosed)
}

func TestSubmitCredentials_SignIn(t *testing.T) {
	c, p, rec := newTestController(t)
	p.On("SignInWithPassword", mock.Anything, "a@b.com", "hunter2").Return(nil).Once()

	res, err := c.SubmitCredentials(t.Context(), "a@b.com", "hunter2", ModeSignIn)
	require.NoError(t, err)
	assert.Equal(t, ResultSucceeded, res)

	s := c.State()
	assert.False(t, s.Pending)
	assert.Empty(t, s.Error)
	assert.Equal(t, ViewCredentials, s.View)
	assert.Equal(t, 1, rec.successes)
	assert.Empty(t, rec.notices)
}

func TestSubmitCredentials_SignUpNotice(t *testing.T) {
	c, p, rec := newTestController(t)
	p.On("SignUp", mock.Anything, "new@b.com", "pw123456").Return(nil).Once()

	res, err := c.SubmitCredentials(t.Context(), "new@b.com", "pw123456", ModeSignUp)
	require.NoError(t, err)
	assert.Equal(t, ResultSucceeded, res)
	assert.Equal(t, []string{noticeAccountCreated}, rec.notices)
	assert.Equal(t, 1, rec.successes)
	assert.Equal(t, ModeSignUp, c.State().Mode)
}

func TestSubmitCredentials_ProviderFailureKeepsFields(t *testing.T) {
	c, p, rec := newTestController(t)
	p.On("SignInWithPassword", mock.Anything, "a@b.com", "wrong").
		Return(errors.New("Invalid login credentials")).Once()

	res, err := c.SubmitCredentials(t.Context(), "a@b.com", "wrong", ModeSignIn)
	require.NoError(t, err)
	assert.Equal(t, ResultFailed, res)

	s := c.State()
	assert.Equal(t, ViewCredentials, s.View)
	assert.Equal(t, "Invalid login credentials", s.Error)
	assert.Equal(t, "a@b.com", s.Email)
	assert.Equal(t, "wrong", s.Password)
	assert.False(t, s.Pending)
	assert.Zero(t, rec.successes)
}

func TestSubmitCredentials_ClearsPreviousError(t *testing.T) {
	c, p, _ := newTestController(t)
	p.On("SignInWithPassword", mock.Anything, "a@b.com", "wrong").Return(errors.New("Invalid login credentials")).Once()
	p.On("SignInWithPassword", mock.Anything, "a@b.com", "right").Return(nil).Once()

	_, _ = c.SubmitCredentials(t.Context(), "a@b.com", "wrong", ModeSignIn)
	require.NotEmpty(t, c.State().Error)

	call, err := c.BeginCredentials("a@b.com", "right", ModeSignIn)
	require.NoError(t, err)
	assert.Empty(t, c.State().Error, "error cleared on admission")
	assert.Equal(t, ResultSucceeded, call.Run(t.Context()))
}

func TestSubmitCredentials_RequiredFields(t *testing.T) {
	c, _, _ := newTestController(t)
	before := c.State()

	var fe *FieldError
	_, err := c.SubmitCredentials(t.Context(), "", "pw", ModeSignIn)
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "email", fe.Field)

	_, err = c.SubmitCredentials(t.Context(), "not-an-email", "pw", ModeSignIn)
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "email", fe.Field)

	_, err = c.SubmitCredentials(t.Context(), "a@b.com", "   ", ModeSignIn)
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "password", fe.Field)

	assert.Equal(t, before, c.State(), "rejected submits leave state untouched")
}

func TestBegin_SingleFlight(t *testing.T) {
	c, p, _ := newTestController(t)
	release := make(chan struct{})
	p.On("SignInWithPassword", mock.Anything, "a@b.com", "pw").
		Run(func(mock.Arguments) { <-release }).
		Return(nil).Once()

	call, err := c.BeginCredentials("a@b.com", "pw", ModeSignIn)
	require.NoError(t, err)
	assert.True(t, c.State().Pending, "pending set synchronously on admission")

	done := make(chan Result)
	go func() { done <- call.Run(context.Background()) }()

	_, err = c.BeginCredentials("a@b.com", "pw", ModeSignIn)
	assert.ErrorIs(t, err, ErrRequestPending)
	assert.True(t, c.State().Pending)

	close(release)
	assert.Equal(t, ResultSucceeded, <-done)
	assert.False(t, c.State().Pending)
	p.AssertNumberOfCalls(t, "SignInWithPassword", 1)
}

func TestCall_RunOnce(t *testing.T) {
	c, p, _ := newTestController(t)
	p.On("SignInWithPassword", mock.Anything, "a@b.com", "pw").Return(nil).Once()

	call, err := c.BeginCredentials("a@b.com", "pw", ModeSignIn)
	require.NoError(t, err)
	assert.Equal(t, "sign_in", call.Op())
	assert.Equal(t, ResultSucceeded, call.Run(t.Context()))
	assert.Equal(t, ResultDiscarded, call.Run(t.Context()))
}

func TestCall_PanicReleasesPending(t *testing.T) {
	c, p, _ := newTestController(t)
	p.On("SignInWithPassword", mock.Anything, "a@b.com", "pw").
		Run(func(mock.Arguments) { panic("boom") }).
		Return(nil).Once()

	call, err := c.BeginCredentials("a@b.com", "pw", ModeSignIn)
	require.NoError(t, err)
	assert.Panics(t, func() { call.Run(t.Context()) })
	assert.False(t, c.State().Pending)
}

func TestOpenForgotPassword_SignUpGuard(t *testing.T) {
	c, _, _ := newTestController(t)
	require.NoError(t, c.ToggleMode())
	assert.Equal(t, ModeSignUp, c.State().Mode)

	assert.ErrorIs(t, c.OpenForgotPassword(), ErrForgotPasswordInSignUp)
	assert.Equal(t, ViewCredentials, c.State().View)

	require.NoError(t, c.SetMode(ModeSignIn))
	require.NoError(t, c.OpenForgotPassword())
	assert.Equal(t, ViewForgotEmail, c.State().View)
	assert.ErrorIs(t, c.ToggleMode(), ErrWrongView)
}

func TestRequestPasswordResetCode_Success(t *testing.T) {
	c, p, _ := newTestController(t)
	toForgotOTP(t, c, p, "a@b.com")

	s := c.State()
	assert.Equal(t, ViewForgotOTP, s.View)
	assert.Contains(t, s.Info, "OTP code sent")
	assert.Equal(t, "a@b.com", s.Email)
	assert.Equal(t, "Code sent to a@b.com", s.Subtitle())
	assert.False(t, s.Pending)
}

func TestRequestPasswordResetCode_Failure(t *testing.T) {
	c, p, _ := newTestController(t)
	require.NoError(t, c.SetEmail("x@y.com"))
	require.NoError(t, c.OpenForgotPassword())
	p.On("SendOTP", mock.Anything, "x@y.com", false).Return(errors.New("Email not found")).Once()

	res, err := c.RequestPasswordResetCode(t.Context(), c.State().Email)
	require.NoError(t, err)
	assert.Equal(t, ResultFailed, res)

	s := c.State()
	assert.Equal(t, ViewForgotEmail, s.View)
	assert.Equal(t, "Email not found", s.Error)
	assert.False(t, s.Pending)
}

func TestRequestPasswordResetCode_WrongView(t *testing.T) {
	c, _, _ := newTestController(t)
	_, err := c.RequestPasswordResetCode(t.Context(), "a@b.com")
	assert.ErrorIs(t, err, ErrWrongView)
	assert.False(t, c.State().Pending)
}

func TestVerifyResetCode_Failure(t *testing.T) {
	c, p, _ := newTestController(t)
	toForgotOTP(t, c, p, "a@b.com")
	p.On("VerifyOTP", mock.Anything, "a@b.com", "000000", OTPTypeEmail).
		Return(errors.New("Token has expired or is invalid")).Once()

	res, err := c.VerifyResetCode(t.Context(), "a@b.com", "000000")
	require.NoError(t, err)
	assert.Equal(t, ResultFailed, res)

	s := c.State()
	assert.Equal(t, ViewForgotOTP, s.View)
	assert.Equal(t, "Token has expired or is invalid", s.Error)
	assert.Equal(t, "a@b.com", s.Email)
	assert.Equal(t, "000000", s.OTPCode)
}

func TestStepFields_OnlyInTheirView(t *testing.T) {
	c, p, _ := newTestController(t)
	assert.ErrorIs(t, c.SetOTPCode("123"), ErrWrongView)
	assert.ErrorIs(t, c.SetNewPassword("pw"), ErrWrongView)

	toForgotOTP(t, c, p, "a@b.com")
	require.NoError(t, c.SetOTPCode("123456"))
	assert.Equal(t, "123456", c.State().OTPCode)
	assert.ErrorIs(t, c.SetEmail("other@b.com"), ErrWrongView)

	require.NoError(t, c.GoBack())
	s := c.State()
	assert.Equal(t, ViewCredentials, s.View)
	assert.Empty(t, s.OTPCode)
	assert.Equal(t, "a@b.com", s.Email, "email survives going back")
}

func TestGoBack(t *testing.T) {
	c, p, _ := newTestController(t)
	assert.ErrorIs(t, c.GoBack(), ErrWrongView)

	require.NoError(t, c.SetPassword("pw"))
	toForgotOTP(t, c, p, "a@b.com")
	p.On("VerifyOTP", mock.Anything, "a@b.com", "482913", OTPTypeEmail).Return(nil).Once()
	_, err := c.VerifyResetCode(t.Context(), "a@b.com", "482913")
	require.NoError(t, err)
	require.Equal(t, ViewResetPassword, c.State().View)

	p.On("UpdatePassword", mock.Anything, "short").Return(errors.New("Password should be at least 8 characters")).Once()
	_, err = c.SubmitNewPassword(t.Context(), "short")
	require.NoError(t, err)
	require.NotEmpty(t, c.State().Error)

	require.NoError(t, c.GoBack())
	s := c.State()
	assert.Equal(t, ViewCredentials, s.View)
	assert.Empty(t, s.Error)
	assert.Empty(t, s.NewPassword)
	assert.Equal(t, "pw", s.Password)
}

func TestGoBack_AbandonsInFlight(t *testing.T) {
	c, p, _ := newTestController(t)
	require.NoError(t, c.OpenForgotPassword())
	release := make(chan struct{})
	p.On("SendOTP", mock.Anything, "a@b.com", false).
		Run(func(mock.Arguments) { <-release }).
		Return(nil).Once()

	call, err := c.BeginPasswordResetCode("a@b.com")
	require.NoError(t, err)
	done := make(chan Result)
	go func() { done <- call.Run(context.Background()) }()

	require.NoError(t, c.GoBack())
	assert.Equal(t, ViewCredentials, c.State().View)
	assert.True(t, c.State().Pending, "pending until the abandoned request settles")

	close(release)
	assert.Equal(t, ResultDiscarded, <-done)
	s := c.State()
	assert.Equal(t, ViewCredentials, s.View)
	assert.False(t, s.Pending)
	assert.Empty(t, s.Info)
}

func TestGoBack_KeepsSingleFlight(t *testing.T) {
	c, p, _ := newTestController(t)
	require.NoError(t, c.OpenForgotPassword())

	var active atomic.Int32
	var overlapped atomic.Bool
	enter := func() {
		if active.Add(1) > 1 {
			overlapped.Store(true)
		}
	}
	release := make(chan struct{})
	p.On("SendOTP", mock.Anything, "a@b.com", false).
		Run(func(mock.Arguments) {
			enter()
			<-release
			active.Add(-1)
		}).
		Return(nil).Once()
	p.On("SignInWithPassword", mock.Anything, "a@b.com", "pw").
		Run(func(mock.Arguments) {
			enter()
			active.Add(-1)
		}).
		Return(nil).Once()

	call, err := c.BeginPasswordResetCode("a@b.com")
	require.NoError(t, err)
	done := make(chan Result)
	go func() { done <- call.Run(context.Background()) }()

	require.NoError(t, c.GoBack())
	_, err = c.BeginCredentials("a@b.com", "pw", ModeSignIn)
	assert.ErrorIs(t, err, ErrRequestPending)

	close(release)
	assert.Equal(t, ResultDiscarded, <-done)

	res, err := c.SubmitCredentials(t.Context(), "a@b.com", "pw", ModeSignIn)
	require.NoError(t, err)
	assert.Equal(t, ResultSucceeded, res)
	assert.False(t, overlapped.Load(), "provider calls overlapped")
}

func TestClose_ReleasesNeverRunCall(t *testing.T) {
	c, p, _ := newTestController(t)
	p.On("SignInWithPassword", mock.Anything, "a@b.com", "pw").Return(nil).Twice()

	stale, err := c.BeginCredentials("a@b.com", "pw", ModeSignIn)
	require.NoError(t, err)
	_, err = c.BeginCredentials("a@b.com", "pw", ModeSignIn)
	assert.ErrorIs(t, err, ErrRequestPending)

	c.Close()
	c.Open()
	fresh, err := c.BeginCredentials("a@b.com", "pw", ModeSignIn)
	require.NoError(t, err)

	// the stale call settles without touching the fresh one's pending flag
	assert.Equal(t, ResultDiscarded, stale.Run(t.Context()))
	assert.True(t, c.State().Pending)
	assert.Equal(t, ResultSucceeded, fresh.Run(t.Context()))
	assert.False(t, c.State().Pending)
}

func TestClose_ResetsEverything(t *testing.T) {
	c, p, rec := newTestController(t)
	require.NoError(t, c.ToggleMode())
	require.NoError(t, c.SetEmail("a@b.com"))
	require.NoError(t, c.SetPassword("pw"))
	require.NoError(t, c.SetMode(ModeSignIn))
	toForgotOTP(t, c, p, "a@b.com")
	require.NoError(t, c.SetOTPCode("111111"))

	c.Close()
	assert.Equal(t, initialState(), c.State())
	assert.Equal(t, 1, rec.closes)

	c.Close()
	assert.Equal(t, initialState(), c.State())
	assert.Equal(t, 2, rec.closes)

	c.Open()
	s := c.State()
	assert.True(t, s.Open)
	assert.Empty(t, s.Email)
	assert.Empty(t, s.Password)
	assert.Equal(t, ModeSignIn, s.Mode)
}

func TestClose_DiscardsLateResult(t *testing.T) {
	c, p, rec := newTestController(t)
	release := make(chan struct{})
	p.On("SignInWithPassword", mock.Anything, "a@b.com", "pw").
		Run(func(mock.Arguments) { <-release }).
		Return(errors.New("Invalid login credentials")).Once()

	call, err := c.BeginCredentials("a@b.com", "pw", ModeSignIn)
	require.NoError(t, err)

	done := make(chan Result)
	go func() { done <- call.Run(context.Background()) }()

	c.Close()
	close(release)
	assert.Equal(t, ResultDiscarded, <-done)
	assert.Equal(t, initialState(), c.State())
	assert.Zero(t, rec.successes)
}

func TestTimeout(t *testing.T) {
	c, p, _ := newTestController(t, WithTimeout(20*time.Millisecond))
	p.On("SignInWithPassword", mock.Anything, "a@b.com", "pw").
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			<-ctx.Done()
		}).
		Return(context.DeadlineExceeded).Once()

	res, err := c.SubmitCredentials(t.Context(), "a@b.com", "pw", ModeSignIn)
	require.NoError(t, err)
	assert.Equal(t, ResultFailed, res)

	s := c.State()
	assert.Equal(t, ErrRequestTimeout.Error(), s.Error)
	assert.False(t, s.Pending)
}

func TestProviderError_EmptyMessage(t *testing.T) {
	c, p, _ := newTestController(t)
	p.On("SignInWithPassword", mock.Anything, "a@b.com", "pw").Return(errors.New("")).Once()

	_, err := c.SubmitCredentials(t.Context(), "a@b.com", "pw", ModeSignIn)
	require.NoError(t, err)
	assert.Equal(t, genericFailureMessage, c.State().Error)
}

func TestFullResetFlow(t *testing.T) {
	c, p, rec := newTestController(t)
	require.NoError(t, c.SetEmail("a@b.com"))
	toForgotOTP(t, c, p, "a@b.com")

	p.On("VerifyOTP", mock.Anything, "a@b.com", "482913", OTPTypeEmail).Return(nil).Once()
	res, err := c.VerifyResetCode(t.Context(), "a@b.com", "482913")
	require.NoError(t, err)
	require.Equal(t, ResultSucceeded, res)

	s := c.State()
	assert.Equal(t, ViewResetPassword, s.View)
	assert.Equal(t, infoEmailVerified, s.Info)
	assert.Empty(t, s.OTPCode)

	p.On("UpdatePassword", mock.Anything, "n3w-s3cret!").Return(nil).Once()
	res, err = c.SubmitNewPassword(t.Context(), "n3w-s3cret!")
	require.NoError(t, err)
	assert.Equal(t, ResultSucceeded, res)

	assert.Equal(t, initialState(), c.State())
	assert.Equal(t, 1, rec.successes)
	assert.Equal(t, 1, rec.closes)
	assert.Equal(t, []string{noticePasswordUpdated}, rec.notices)
}

func TestStateLabels(t *testing.T) {
	tests := []struct {
		state     State
		title     string
		label     string
		canGoBack bool
	}{
		{State{View: ViewCredentials, Mode: ModeSignIn}, "Welcome Back", "Sign In", false},
		{State{View: ViewCredentials, Mode: ModeSignUp}, "Create Account", "Create Account", false},
		{State{View: ViewForgotEmail}, "Reset Password", "Send OTP Code", true},
		{State{View: ViewForgotOTP}, "Enter OTP", "Verify Code", true},
		{State{View: ViewResetPassword}, "New Password", "Update Password", true},
	}

	for _, tt := range tests {
		t.Run(tt.state.View.String(), func(t *testing.T) {
			assert.Equal(t, tt.title, tt.state.Title())
			assert.Equal(t, tt.label, tt.state.SubmitLabel())
			assert.Equal(t, tt.canGoBack, tt.state.CanGoBack())
			assert.NotEmpty(t, tt.state.Subtitle())
		})
	}
}
