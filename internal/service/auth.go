package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Skotchmaster/blog/internal/events"
	pkg_hash "github.com/Skotchmaster/blog/internal/hash"
	"github.com/Skotchmaster/blog/internal/logging"
	"github.com/Skotchmaster/blog/internal/models"
	"github.com/Skotchmaster/blog/internal/repo"
	"github.com/Skotchmaster/blog/internal/tokens"
)

const TokenTypeBearer = "bearer"

var checkPassword = pkg_hash.CheckPassword

// dummyHash is compared against when the username is unknown, so both
// login failures cost one bcrypt comparison.
var dummyHash = sync.OnceValue(func() string {
	h, err := pkg_hash.HashPassword("no-such-user-placeholder")
	if err != nil {
		panic(err)
	}
	return h
})

type AuthService struct {
	Users  repo.UserRepo
	Tokens *tokens.Service
	Events events.Publisher
}

type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register", "username", username)

	if username == "" || email == "" || password == "" {
		return nil, newError(ErrValidation, "username, email and password are required")
	}

	taken, err := s.Users.ExistsByUsername(ctx, username)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "username lookup failed", "error", err)
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		l.Warn("register_error", "status", 400, "reason", "username taken")
		return nil, newError(ErrConflict, "Username already registered")
	}

	taken, err = s.Users.ExistsByEmail(ctx, email)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "email lookup failed", "error", err)
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		l.Warn("register_error", "status", 400, "reason", "email taken")
		return nil, newError(ErrConflict, "Email already registered")
	}

	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		l.Warn("register_error", "status", 422, "reason", "cannot hash the password", "error", err)
		return nil, newError(ErrValidation, "password cannot be hashed")
	}

	user, err := s.Users.CreateUser(ctx, username, email, pwHash)
	if err != nil {
		// lost a race against a concurrent registration
		if errors.Is(err, repo.ErrDuplicate) {
			l.Warn("register_error", "status", 400, "reason", "unique constraint", "error", err)
			return nil, newError(ErrConflict, "Username or email already registered")
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, fmt.Errorf("create user: %w", err)
	}

	l.Info("register_successful", "user_id", user.ID)
	publish(ctx, s.Events, events.TopicUsers, strconv.FormatUint(uint64(user.ID), 10), events.Event{
		Type:     events.UserRegistered,
		UserID:   user.ID,
		Username: user.Username,
	})
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	if username == "" || password == "" {
		return nil, newError(ErrValidation, "username and password are required")
	}

	user, err := s.Users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			checkPassword(dummyHash(), password)
			l.Warn("login_failed", "status", 401, "reason", "unknown user")
			return nil, newError(ErrUnauthorized, "Incorrect username or password")
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !checkPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "bad password")
		return nil, newError(ErrUnauthorized, "Incorrect username or password")
	}
	if !user.IsActive {
		l.Warn("login_failed", "status", 401, "reason", "inactive user")
		return nil, newError(ErrUnauthorized, "Incorrect username or password")
	}

	token, exp, err := s.Tokens.Issue(user.Username, 0)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, fmt.Errorf("issue token: %w", err)
	}

	publish(ctx, s.Events, events.TopicUsers, strconv.FormatUint(uint64(user.ID), 10), events.Event{
		Type:     events.UserLoggedIn,
		UserID:   user.ID,
		Username: user.Username,
	})

	return &LoginResult{
		AccessToken: token,
		TokenType:   TokenTypeBearer,
		ExpiresAt:   exp,
	}, nil
}

// Authenticate resolves a bearer token to its user. Unknown and inactive
// users are both rejected.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	username, err := s.Tokens.Verify(token)
	if err != nil {
		logging.FromContext(ctx).Debug("token_rejected", "error", err)
		return nil, newError(ErrUnauthorized, "Could not validate credentials")
	}

	user, err := s.Users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, newError(ErrUnauthorized, "Could not validate credentials")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive {
		logging.FromContext(ctx).Debug("token_rejected", "reason", "inactive user", "user_id", user.ID)
		return nil, newError(ErrUnauthorized, "Could not validate credentials")
	}
	return user, nil
}
