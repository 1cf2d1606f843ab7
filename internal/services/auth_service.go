package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"freshmart/internal/domain"
	"freshmart/internal/repos"
	"freshmart/internal/validate"
)

var ErrBadCreds = fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)

type AuthService struct {
	Store    *repos.Store
	Secret   []byte
	TokenTTL time.Duration
	Now      func() time.Time
}

func NewAuthService(store *repos.Store, secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &AuthService{Store: store, Secret: []byte(secret), TokenTTL: ttl, Now: time.Now}
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

type Registration struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,password"`
}

type PasswordChange struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,password"`
}

type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Claims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the caller behind a verified token.
type Principal struct {
	User      *domain.User
	SessionID string
}

func (s *AuthService) Register(ctx context.Context, in Registration) (*domain.User, error) {
	email, ok := validate.Email(in.Email)
	if !ok {
		return nil, domain.Invalid("invalid email")
	}
	if !validate.Password(in.Password) {
		return nil, domain.Invalid("password must be at least 12 characters with upper, lower, digit and symbol")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{ID: uuid.NewString(), Email: email, Hash: string(hash), Role: domain.RoleUser}
	if err := s.Store.Users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
		return nil, err
	}
	return u, nil
}

// Login checks the password and opens a server-side session whose id is the
// token's jti.
func (s *AuthService) Login(ctx context.Context, in Credentials) (*Token, *domain.User, error) {
	u, err := s.Store.Users.ByEmail(ctx, in.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, ErrBadCreds
	}
	if err != nil {
		return nil, nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(in.Password)) != nil {
		return nil, nil, ErrBadCreds
	}

	now := s.Now().UTC()
	exp := now.Add(s.TokenTTL)
	sid := uuid.NewString()
	if err := s.Store.Sessions.Create(ctx, sid, u.ID, exp); err != nil {
		return nil, nil, err
	}
	claims := Claims{
		UserID: u.ID,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        sid,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return nil, nil, err
	}
	return &Token{Token: signed, ExpiresAt: exp}, u, nil
}

// Authenticate verifies a bearer token and its session. Any failure is
// reported as domain.ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.Secret, nil
	}, jwt.WithTimeFunc(s.Now))
	if err != nil || claims.ID == "" {
		return nil, domain.ErrUnauthorized
	}

	sess, err := s.Store.Sessions.Get(ctx, claims.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if sess.RevokedAt != nil || !sess.ExpiresAt.After(s.Now()) || sess.UserID != claims.UserID {
		return nil, domain.ErrUnauthorized
	}
	u, err := s.Store.Users.ByID(ctx, sess.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if err := s.Store.Sessions.Touch(ctx, sess.ID); err != nil {
		return nil, err
	}
	return &Principal{User: u, SessionID: sess.ID}, nil
}

// Logout revokes the session and empties the user's cart.
func (s *AuthService) Logout(ctx context.Context, p *Principal) error {
	return s.Store.InTx(ctx, func(tx *repos.Tx) error {
		if err := tx.Sessions.Revoke(ctx, p.SessionID); err != nil {
			return err
		}
		_, err := tx.Carts.Clear(ctx, p.User.ID)
		return err
	})
}

// ChangePassword replaces the hash and revokes every other session of the user.
func (s *AuthService) ChangePassword(ctx context.Context, p *Principal, in PasswordChange) error {
	if bcrypt.CompareHashAndPassword([]byte(p.User.Hash), []byte(in.CurrentPassword)) != nil {
		return domain.Invalid("current password is incorrect")
	}
	if !validate.Password(in.NewPassword) {
		return domain.Invalid("password must be at least 12 characters with upper, lower, digit and symbol")
	}
	if in.NewPassword == in.CurrentPassword {
		return domain.Invalid("new password must differ from the current one")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.Store.InTx(ctx, func(tx *repos.Tx) error {
		if err := tx.Users.UpdatePassword(ctx, p.User.ID, string(hash)); err != nil {
			return err
		}
		return tx.Sessions.RevokeOthers(ctx, p.User.ID, p.SessionID)
	})
}
