package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"subtrack/internal/auth"
	"subtrack/internal/core"
	"subtrack/internal/log"
	"subtrack/internal/storage"
)

const (
	minPasswordLength = 8
	maxUsernameLength = 150
)

type RegisterInput struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Session is what a successful register or login hands back.
type Session struct {
	User        core.User
	AccessToken string
	ExpiresAt   time.Time
}

type UserService struct {
	users  storage.UserStore
	tokens *auth.TokenIssuer
	now    func() time.Time
	logger *log.Logger
}

func NewUserService(users storage.UserStore, tokens *auth.TokenIssuer, now func() time.Time) *UserService {
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users:  users,
		tokens: tokens,
		now:    now,
		logger: log.WithComponent(log.ComponentAuth),
	}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	in.Username = strings.TrimSpace(in.Username)

	errs := core.FieldErrors{}
	switch {
	case in.Username == "":
		errs.Add("username", "username cannot be empty")
	case utf8.RuneCountInString(in.Username) > maxUsernameLength:
		errs.Add("username", "username too long (max 150 characters)")
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		errs.Add("password", "password must be at least 8 characters")
	}
	if err := errs.Err(); err != nil {
		return Session{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return Session{}, err
	}

	user, err := s.users.CreateUser(ctx, core.User{
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		IsActive:     true,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return Session{}, err
	}

	s.logger.InfoContext(ctx, "User registered",
		log.FieldUserID, user.ID,
		log.FieldUsername, user.Username,
		log.FieldOperation, log.OpRegister)
	return s.session(user)
}

// Login never reveals whether the username or the password was wrong.
func (s *UserService) Login(ctx context.Context, username, password string) (Session, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, core.ErrNotFound) {
		return Session{}, auth.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if !user.IsActive {
		return Session{}, auth.ErrInvalidCredentials
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		s.logger.WarnContext(ctx, "Login failed",
			log.FieldUsername, user.Username,
			log.FieldOperation, log.OpLogin)
		return Session{}, err
	}
	return s.session(user)
}

func (s *UserService) Get(ctx context.Context, id int64) (core.User, error) {
	return s.users.GetUserByID(ctx, id)
}

func (s *UserService) session(user core.User) (Session, error) {
	token, expires, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, AccessToken: token, ExpiresAt: expires}, nil
}
