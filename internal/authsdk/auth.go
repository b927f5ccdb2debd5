package authsdk

import (
	"context"
	"time"
)

// SignUp registers a new account. When the server requires email confirmation no session is
// returned and the client stays signed out.
func (c *Client) SignUp(ctx context.Context, email, password string) error {
	var resp Session
	var apiErr APIError

	res, err := c.http.R().
		SetContext(ctx).
		SetBody(&SignUpRequest{Email: email, Password: password}).
		SetSuccessResult(&resp).
		SetErrorResult(&apiErr).
		Post(pathSignUp)

	if err := handleAPIError(res, err, &apiErr, "sign up"); err != nil {
		return err
	}

	if resp.Valid() {
		c.SetSession(&resp)
	}
	return nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) error {
	var resp Session
	var apiErr APIError

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("grant_type", grantPassword).
		SetBody(&PasswordGrantRequest{Email: email, Password: password}).
		SetSuccessResult(&resp).
		SetErrorResult(&apiErr).
		Post(pathToken)

	if err := handleAPIError(res, err, &apiErr, "sign in"); err != nil {
		return err
	}

	c.SetSession(&resp)
	return nil
}

// SendOTP mails a one-time code to email. createUser=false makes the server reject unknown emails.
func (c *Client) SendOTP(ctx context.Context, email string, createUser bool) error {
	var apiErr APIError

	res, err := c.http.R().
		SetContext(ctx).
		SetBody(&OTPRequest{Email: email, CreateUser: createUser}).
		SetErrorResult(&apiErr).
		Post(pathOTP)

	return handleAPIError(res, err, &apiErr, "send otp")
}

// VerifyOTP exchanges a mailed code for a session
func (c *Client) VerifyOTP(ctx context.Context, email, code, otpType string) error {
	var resp Session
	var apiErr APIError

	res, err := c.http.R().
		SetContext(ctx).
		SetBody(&VerifyRequest{Type: otpType, Email: email, Token: code}).
		SetSuccessResult(&resp).
		SetErrorResult(&apiErr).
		Post(pathVerify)

	if err := handleAPIError(res, err, &apiErr, "verify otp"); err != nil {
		return err
	}

	c.SetSession(&resp)
	return nil
}

// UpdatePassword changes the password of the signed in user
func (c *Client) UpdatePassword(ctx context.Context, newPassword string) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	var user User
	var apiErr APIError

	res, err := c.http.R().
		SetContext(ctx).
		SetBearerAuthToken(token).
		SetBody(&UpdateUserRequest{Password: newPassword}).
		SetSuccessResult(&user).
		SetErrorResult(&apiErr).
		Put(pathUser)

	if err := handleAPIError(res, err, &apiErr, "update password"); err != nil {
		return err
	}

	c.setUser(&user)
	return nil
}

// GetUser fetches the signed in user
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var user User
	var apiErr APIError

	res, err := c.http.R().
		SetContext(ctx).
		SetBearerAuthToken(token).
		SetSuccessResult(&user).
		SetErrorResult(&apiErr).
		Get(pathUser)

	if err := handleAPIError(res, err, &apiErr, "get user"); err != nil {
		return nil, err
	}

	c.setUser(&user)
	return &user, nil
}

// RefreshSession trades the refresh token for a new session
func (c *Client) RefreshSession(ctx context.Context) error {
	s := c.Session()
	if s == nil || s.RefreshToken == "" {
		return ErrNoRefreshToken
	}

	var resp Session
	var apiErr APIError

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("grant_type", grantRefreshToken).
		SetBody(&RefreshGrantRequest{RefreshToken: s.RefreshToken}).
		SetSuccessResult(&resp).
		SetErrorResult(&apiErr).
		Post(pathToken)

	if err := handleAPIError(res, err, &apiErr, "refresh session"); err != nil {
		return err
	}

	c.SetSession(&resp)
	return nil
}

// SignOut revokes the refresh token on the server. The local session is cleared even if the
// server call fails.
func (c *Client) SignOut(ctx context.Context) error {
	s := c.Session()
	if !s.Valid() {
		return ErrNoSession
	}
	defer c.SetSession(nil)

	var apiErr APIError

	res, err := c.http.R().
		SetContext(ctx).
		SetBearerAuthToken(s.AccessToken).
		SetErrorResult(&apiErr).
		Post(pathLogout)

	return handleAPIError(res, err, &apiErr, "sign out")
}

// accessToken returns a usable access token, refreshing the session first if it has expired
func (c *Client) accessToken(ctx context.Context) (string, error) {
	s := c.Session()
	if s == nil {
		return "", ErrNoSession
	}

	if !s.Valid() || s.Expired(time.Now()) {
		if s.RefreshToken == "" {
			return "", ErrNoSession
		}
		if err := c.RefreshSession(ctx); err != nil {
			return "", err
		}
		s = c.Session()
	}

	return s.AccessToken, nil
}

func (c *Client) setUser(u *User) {
	s := c.Session()
	if s == nil {
		return
	}
	s.User = u
	c.SetSession(s)
}
