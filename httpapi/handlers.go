package httpapi

import (
	"net/http"

	"github.com/meridianlegal/identity"
)

type sessionResponse struct {
	User   identity.Account   `json:"user"`
	Tokens identity.TokenPair `json:"tokens"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	acct, tokens, err := s.engine.Register(r.Context(), identity.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, sessionResponse{User: acct, Tokens: tokens})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	acct, tokens, err := s.engine.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponse{User: acct, Tokens: tokens})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	access, err := s.engine.ReissueAccess(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"accessToken": access})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	claim, ok := s.claim(r)
	if !ok {
		s.writeError(w, r, identity.ErrUnauthenticated)
		return
	}

	acct, err := s.engine.Profile(r.Context(), claim.AccountID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]identity.Account{"user": acct})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	claim, ok := s.claim(r)
	if !ok {
		s.writeError(w, r, identity.ErrUnauthenticated)
		return
	}

	var req updateProfileRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	acct, err := s.engine.UpdateProfile(r.Context(), claim.AccountID, identity.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]identity.Account{"user": acct})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	claim, ok := s.claim(r)
	if !ok {
		s.writeError(w, r, identity.ErrUnauthenticated)
		return
	}

	var req changePasswordRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.engine.ChangePassword(r.Context(), claim.AccountID, req.CurrentPassword, req.NewPassword); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "password changed, please log in again"})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.engine.RequestPasswordReset(r.Context(), req.Email); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{
		Message: "if the email is registered, a reset link has been sent",
	})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.engine.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "password reset, please log in"})
}

func (s *Server) handleChangeEmail(w http.ResponseWriter, r *http.Request) {
	claim, ok := s.claim(r)
	if !ok {
		s.writeError(w, r, identity.ErrUnauthenticated)
		return
	}

	var req changeEmailRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.engine.InitiateEmailChange(r.Context(), claim.AccountID, req.NewEmail, req.CurrentPassword); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{
		Message: "verification mail sent to the new address",
	})
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	claim, ok := s.claim(r)
	if !ok {
		s.writeError(w, r, identity.ErrUnauthenticated)
		return
	}

	var req verifyEmailRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.engine.VerifyEmailChange(r.Context(), claim.AccountID, req.Token); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "email updated"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claim, ok := s.claim(r)
	if !ok {
		s.writeError(w, r, identity.ErrUnauthenticated)
		return
	}

	if err := s.engine.Logout(r.Context(), claim); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

func (s *Server) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	claim, ok := s.claim(r)
	if !ok {
		s.writeError(w, r, identity.ErrUnauthenticated)
		return
	}

	n, err := s.engine.LogoutAll(r.Context(), claim)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"sessionsRevoked": n})
}
