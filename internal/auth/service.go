package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"quiz-arena/internal/domain"
)

const issuer = "quiz-arena"

// CredentialStore keeps bcrypt hashes keyed by player name.
type CredentialStore interface {
	// CreateCredential fails with domain.ErrPlayerExists when the name is taken.
	CreateCredential(ctx context.Context, player string, hash []byte) error
	// CredentialHash fails with domain.ErrInvalidCredentials for unknown players.
	CredentialHash(ctx context.Context, player string) ([]byte, error)
}

// Claims identify a participant by name.
type Claims struct {
	jwt.RegisteredClaims
}

// Service registers players and issues participant tokens.
type Service struct {
	store  CredentialStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	cost   int
}

func NewService(store CredentialStore, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		cost:   bcrypt.DefaultCost,
	}
}

// Register stores a new player and returns a token for it.
func (s *Service) Register(ctx context.Context, player, password string) (string, error) {
	player = strings.TrimSpace(player)
	if player == "" || password == "" {
		return "", fmt.Errorf("%w: name and password are required", domain.ErrInvalidCredentials)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.CreateCredential(ctx, player, hash); err != nil {
		return "", err
	}
	return s.IssueToken(player)
}

// Login checks the password and returns a fresh token.
func (s *Service) Login(ctx context.Context, player, password string) (string, error) {
	player = strings.TrimSpace(player)
	hash, err := s.store.CredentialHash(ctx, player)
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return "", domain.ErrInvalidCredentials
	}
	return s.IssueToken(player)
}

// IssueToken signs an HS256 token whose subject is the player name.
func (s *Service) IssueToken(player string) (string, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   player,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken validates a token and returns the player name it was issued to.
func (s *Service) ParseToken(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidCredentials, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", domain.ErrInvalidCredentials)
	}
	return claims.Subject, nil
}
