package auth

import (
	"sync"
	"time"
)

// Service authenticates the single workspace operator. Credentials come
// from configuration; refresh tokens are held in memory, so a restart
// revokes every session.
type Service struct {
	username     string
	passwordHash string
	jwt          *JWTManager
	passwords    *PasswordManager

	mu       sync.Mutex
	sessions map[string]time.Time // hashed refresh token -> expiry
}

// NewService creates the auth service for the workspace operator
func NewService(username, passwordHash string, jwt *JWTManager, passwords *PasswordManager) *Service {
	return &Service{
		username:     username,
		passwordHash: passwordHash,
		jwt:          jwt,
		passwords:    passwords,
		sessions:     make(map[string]time.Time),
	}
}

// Login verifies operator credentials and issues a token pair
func (s *Service) Login(req LoginRequest) (*TokenPair, error) {
	if req.Username != s.username || !s.passwords.VerifyPassword(req.Password, s.passwordHash) {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.jwt.GenerateTokenPair(OperatorClaims{
		Username:  s.username,
		Workspace: "default",
	})
	if err != nil {
		return nil, err
	}

	s.storeSession(pair.RefreshToken)
	return pair, nil
}

// Refresh exchanges a valid refresh token for a new token pair.
// The old refresh token is revoked (rotation).
func (s *Service) Refresh(req RefreshRequest) (*TokenPair, error) {
	hashed := HashRefreshToken(req.RefreshToken)

	s.mu.Lock()
	expiry, ok := s.sessions[hashed]
	if ok {
		delete(s.sessions, hashed)
	}
	s.mu.Unlock()

	if !ok {
		return nil, ErrSessionRevoked
	}
	if time.Now().After(expiry) {
		return nil, ErrTokenExpired
	}

	pair, err := s.jwt.GenerateTokenPair(OperatorClaims{
		Username:  s.username,
		Workspace: "default",
	})
	if err != nil {
		return nil, err
	}

	s.storeSession(pair.RefreshToken)
	return pair, nil
}

// Logout revokes a refresh token
func (s *Service) Logout(refreshToken string) {
	hashed := HashRefreshToken(refreshToken)
	s.mu.Lock()
	delete(s.sessions, hashed)
	s.mu.Unlock()
}

// JWTManager returns the underlying JWT manager
func (s *Service) JWTManager() *JWTManager {
	return s.jwt
}

// ValidateAccessToken delegates to the JWT manager
func (s *Service) ValidateAccessToken(token string) (*OperatorClaims, error) {
	return s.jwt.ValidateAccessToken(token)
}

func (s *Service) storeSession(refreshToken string) {
	hashed := HashRefreshToken(refreshToken)
	s.mu.Lock()
	s.sessions[hashed] = time.Now().Add(s.jwt.GetRefreshTokenDuration())
	s.mu.Unlock()
}
