package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/giftauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

const (
	MsgInvalidBody       = "Invalid request body"
	MsgRegistered        = "User registered successfully"
	MsgLoggedOut         = "Logged out successfully"
	MsgForgotPassword    = "If an account with that email exists, a password reset link has been sent."
	MsgPasswordResetDone = "Password has been reset successfully."
)

type registerRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
}

type registerResponse struct {
	UserID                string `json:"userId"`
	Email                 string `json:"email"`
	VerificationInitiated bool   `json:"verificationInitiated"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	LastLogin time.Time `json:"lastLogin"`
}

type loginResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         userResponse `json:"user"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// resetPasswordRequest accepts the new password under either key;
// newPassword wins when both are sent.
type resetPasswordRequest struct {
	Token       string  `json:"token"`
	NewPassword *string `json:"newPassword"`
	Password    *string `json:"password"`
}

func (r resetPasswordRequest) password() string {
	if r.NewPassword != nil {
		return *r.NewPassword
	}
	if r.Password != nil {
		return *r.Password
	}
	return ""
}

// bind decodes the JSON body into dst, answering 400 (or 413 when the body
// overran a size guard) on failure.
func (s *Server) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(c, http.StatusRequestEntityTooLarge, MsgBodyTooLarge)
			return false
		}
		s.fail(c, http.StatusBadRequest, MsgInvalidBody)
		return false
	}
	return true
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if !s.bind(c, &req) {
		return
	}

	res, err := s.auth.Register(c.Request.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	writeMessage(c, http.StatusCreated, MsgRegistered, registerResponse{
		UserID:                res.UserID,
		Email:                 res.Email,
		VerificationInitiated: res.VerificationInitiated,
	})
}

func (s *Server) login(c *gin.Context) {
	var req credentialsRequest
	if !s.bind(c, &req) {
		return
	}

	res, err := s.auth.Login(c.Request.Context(), services.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IP:        clientIP(c),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, loginResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		User: userResponse{
			ID:        res.User.ID,
			Email:     res.User.Email,
			Name:      res.User.Name,
			Role:      res.User.Role,
			Status:    res.User.Status,
			LastLogin: res.User.LastLogin,
		},
	})
}

func (s *Server) refresh(c *gin.Context) {
	var req refreshRequest
	if !s.bind(c, &req) {
		return
	}

	pair, err := s.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(c, err)
		return
	}

	writeData(c, http.StatusOK, tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *Server) logout(c *gin.Context) {
	var req refreshRequest
	if !s.bind(c, &req) {
		return
	}

	if err := s.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		s.writeError(c, err)
		return
	}

	writeMessage(c, http.StatusOK, MsgLoggedOut, nil)
}

func (s *Server) forgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if !s.bind(c, &req) {
		return
	}

	if err := s.auth.ForgotPassword(c.Request.Context(), req.Email, clientIP(c)); err != nil {
		s.writeError(c, err)
		return
	}

	writeMessage(c, http.StatusOK, MsgForgotPassword, nil)
}

func (s *Server) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !s.bind(c, &req) {
		return
	}

	if err := s.auth.ResetPassword(c.Request.Context(), req.Token, req.password()); err != nil {
		s.writeError(c, err)
		return
	}

	writeMessage(c, http.StatusOK, MsgPasswordResetDone, nil)
}
