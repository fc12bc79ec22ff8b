//go:build acceptance

package app_test

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/prperemyshlev/auth-core/internal/dto"
)

func (s *Suite) postJSON(path string, body any) *http.Response {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)

	resp, err := http.Post(s.BaseURL+path, "application/json", bytes.NewReader(payload))
	s.Require().NoError(err)
	return resp
}

func (s *Suite) decode(resp *http.Response, v any) {
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(v))
}

func (s *Suite) signup(username, email, password string) {
	resp := s.postJSON("/api/v1/auth/signup", dto.SignupRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

func (s *Suite) login(email, password string) dto.SessionResponse {
	resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{Email: email, Password: password})
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var session dto.SessionResponse
	s.decode(resp, &session)
	return session
}

func (s *Suite) TestHealthEndpoint() {
	resp, err := http.Get(s.BaseURL + "/health")
	s.Require().NoError(err)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	s.Equal(http.StatusOK, resp.StatusCode)
	s.decode(resp, &body)
	s.Equal("pass", body.Status)
	s.Equal("pass", body.Checks["postgres"])
	s.Equal("pass", body.Checks["redis"])
}

func (s *Suite) TestSignup_Success() {
	resp := s.postJSON("/api/v1/auth/signup", dto.SignupRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret1",
	})
	s.Equal(http.StatusCreated, resp.StatusCode)

	var body dto.SuccessResponse
	s.decode(resp, &body)
	s.Equal("Account created! Please check your email to verify your account.", body.Message)
	s.NotEmpty(s.Mail.verificationToken("alice@example.com"))
}

func (s *Suite) TestSignup_DuplicateEmail() {
	s.signup("alice", "alice@example.com", "secret1")

	resp := s.postJSON("/api/v1/auth/signup", dto.SignupRequest{
		Username: "alice2",
		Email:    "Alice@Example.com",
		Password: "secret1",
	})
	s.Equal(http.StatusConflict, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.decode(resp, &errResp)
	s.Equal("User already exists", errResp.Message)
}

func (s *Suite) TestSignup_InvalidFields() {
	resp := s.postJSON("/api/v1/auth/signup", dto.SignupRequest{
		Username: "al",
		Email:    "not-an-email",
		Password: "123",
	})
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.decode(resp, &errResp)
	s.Equal("Invalid fields", errResp.Message)
	s.NotNil(errResp.Details)
}

func (s *Suite) TestVerifyEmail_Flow() {
	s.signup("alice", "alice@example.com", "secret1")
	token := s.Mail.verificationToken("alice@example.com")
	s.Require().NotEmpty(token)

	resp, err := http.Get(s.BaseURL + "/verify-email?token=" + token)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	var ok dto.SuccessResponse
	s.decode(resp, &ok)
	s.Equal("Email verified successfully!", ok.Message)

	// a link works only once
	resp = s.postJSON("/api/v1/auth/verify-email", dto.TokenRequest{Token: token})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	var errResp dto.ErrorResponse
	s.decode(resp, &errResp)
	s.Equal("Invalid or expired token", errResp.Message)

	resp = s.postJSON("/api/v1/auth/resend-verification", dto.EmailRequest{Email: "alice@example.com"})
	s.Equal(http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func (s *Suite) TestResendVerification_IssuesNewToken() {
	s.signup("alice", "alice@example.com", "secret1")
	first := s.Mail.verificationToken("alice@example.com")

	resp := s.postJSON("/api/v1/auth/resend-verification", dto.EmailRequest{Email: "alice@example.com"})
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	second := s.Mail.verificationToken("alice@example.com")
	s.NotEqual(first, second)

	// both outstanding links remain valid
	resp = s.postJSON("/api/v1/auth/verify-email", dto.TokenRequest{Token: first})
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.postJSON("/api/v1/auth/resend-verification", dto.EmailRequest{Email: "nobody@example.com"})
	s.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func (s *Suite) TestPasswordReset_Flow() {
	s.signup("alice", "alice@example.com", "secret1")

	resp := s.postJSON("/api/v1/auth/forgot-password", dto.EmailRequest{Email: "alice@example.com"})
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	token := s.Mail.resetToken("alice@example.com")
	s.Require().NotEmpty(token)

	resp = s.postJSON("/api/v1/auth/reset-password", dto.ResetPasswordRequest{Token: token, Password: "newpass1"})
	s.Equal(http.StatusOK, resp.StatusCode)
	var ok dto.SuccessResponse
	s.decode(resp, &ok)
	s.Equal("Password reset successfully!", ok.Message)

	resp = s.postJSON("/api/v1/auth/reset-password", dto.ResetPasswordRequest{Token: token, Password: "another1"})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = s.postJSON("/api/v1/auth/login", dto.LoginRequest{Email: "alice@example.com", Password: "secret1"})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	s.login("alice@example.com", "newpass1")
}

func (s *Suite) TestForgotPassword_UnknownEmailLooksTheSame() {
	resp := s.postJSON("/api/v1/auth/forgot-password", dto.EmailRequest{Email: "nobody@example.com"})
	s.Equal(http.StatusOK, resp.StatusCode)

	var body dto.SuccessResponse
	s.decode(resp, &body)
	s.Equal("If an account exists with that email, we've sent a reset link.", body.Message)
	s.Empty(s.Mail.resetToken("nobody@example.com"))
}

func (s *Suite) TestLogin_SessionGrantsAccess() {
	s.signup("alice", "alice@example.com", "secret1")
	session := s.login("alice@example.com", "secret1")

	s.NotEmpty(session.AccessToken)
	s.Equal("Bearer", session.TokenType)
	s.Equal("alice@example.com", session.User.Email)

	req, err := http.NewRequest(http.MethodGet, s.BaseURL+"/api/v1/auth/me", nil)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)

	var me dto.UserResponse
	s.decode(resp, &me)
	s.Equal(session.User.ID, me.ID)
	s.Equal("local", me.Provider)
	s.False(me.EmailVerified)
}

func (s *Suite) TestLogin_WrongPassword() {
	s.signup("alice", "alice@example.com", "secret1")

	resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{Email: "alice@example.com", Password: "wrong-pass"})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.decode(resp, &errResp)
	s.Equal("Invalid email or password", errResp.Message)
}

func (s *Suite) TestHome_RedirectsWithoutSession() {
	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Get(s.BaseURL + "/home")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusFound, resp.StatusCode)
	s.Equal("/login", resp.Header.Get("Location"))
}

func (s *Suite) TestOAuthStart_UnknownProvider() {
	resp, err := http.Get(s.BaseURL + "/api/v1/oauth/gitlab/start")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusNotFound, resp.StatusCode)
}
