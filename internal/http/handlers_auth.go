package http

import (
	"context"
	"net/http"

	"orcamento/internal/identity"
	appLog "orcamento/internal/log"
)

const resetSentMessage = "E-mail de recuperação enviado! Verifique sua caixa de entrada."

type authMode string

const (
	modeLogin  authMode = "login"
	modeSignup authMode = "signup"
	modeReset  authMode = "reset"
)

// authPage is the data of the sign-in, sign-up and reset screens.
type authPage struct {
	Mode    authMode
	Email   string
	Error   string
	Message string
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.handleAuth(w, r, modeLogin, s.identity.SignIn)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	s.handleAuth(w, r, modeSignup, s.identity.SignUp)
}

// handleAuth serves the sign-in and sign-up screens. Both start a session
// on success.
func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request, mode authMode, authenticate func(ctx context.Context, email, password string) (identity.Session, error)) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		if _, ok := s.currentUser(r); ok {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		s.render(w, r, http.StatusOK, "auth", authPage{Mode: mode})
	case http.MethodPost:
		if errResp := ParseFormOrFail(r); errResp != nil {
			errResp.Write(w)
			return
		}
		email := sanitizeInput(r.PostForm.Get("email"))
		password := r.PostForm.Get("password")

		op := appLog.OpSignIn
		if mode == modeSignup {
			op = appLog.OpSignUp
		}

		sess, err := authenticate(r.Context(), email, password)
		if err != nil {
			s.logger.WarnContext(r.Context(), "Authentication failed",
				appLog.FieldOperation, op,
				appLog.FieldError, err)
			s.render(w, r, http.StatusUnauthorized, "auth", authPage{
				Mode:  mode,
				Email: email,
				Error: identity.Message(err),
			})
			return
		}

		s.startSession(w, r, sess)
		s.logger.InfoContext(r.Context(), "Session started",
			appLog.FieldOperation, op,
			appLog.FieldUID, sess.User.UID)
		redirect(w, r, "/")
	default:
		RequireMethod(r, http.MethodGet, http.MethodPost).Write(w)
	}
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, sess identity.Session) {
	id := s.sessions.create(sess)
	setSessionCookie(w, r, id, s.sessions.ttl)
	s.notifier.Publish(identity.Event{Kind: identity.SignedIn, User: sess.User})
}

// handleReset requests a password reset e-mail.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		s.render(w, r, http.StatusOK, "auth", authPage{Mode: modeReset})
	case http.MethodPost:
		if errResp := ParseFormOrFail(r); errResp != nil {
			errResp.Write(w)
			return
		}
		email := sanitizeInput(r.PostForm.Get("email"))
		if err := s.identity.SendPasswordReset(r.Context(), email); err != nil {
			s.logger.WarnContext(r.Context(), "Password reset failed",
				appLog.FieldOperation, appLog.OpReset,
				appLog.FieldError, err)
			s.render(w, r, http.StatusUnprocessableEntity, "auth", authPage{
				Mode:  modeReset,
				Email: email,
				Error: identity.Message(err),
			})
			return
		}
		s.render(w, r, http.StatusOK, "auth", authPage{
			Mode:    modeReset,
			Email:   email,
			Message: resetSentMessage,
		})
	default:
		RequireMethod(r, http.MethodGet, http.MethodPost).Write(w)
	}
}

// handleLogout ends the cookie session and forgets the user's quote.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}
	id := sessionID(r)
	if sess, ok := s.sessions.get(id); ok {
		s.sessions.delete(id)
		s.notifier.Publish(identity.Event{Kind: identity.SignedOut, User: sess.User})
	}
	clearSessionCookie(w, r)
	redirect(w, r, "/login")
}
