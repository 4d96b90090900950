package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"helpkart/internal/caching"
	"helpkart/internal/common"
	"helpkart/internal/models"
	"helpkart/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionIssuer     = "helpkart"
	minPasswordLength = 6
	tokenTypeBearer   = "Bearer"
)

// AuthService manages center accounts and their sessions
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*models.Center, error)
	Authenticate(ctx context.Context, email, password string) (*models.SessionToken, error)
	ChangePassword(ctx context.Context, centerID uuid.UUID, newPassword string) error
	ChangePasswordWithCurrent(ctx context.Context, centerID uuid.UUID, currentPassword, newPassword string) error

	GetProfile(ctx context.Context, centerID uuid.UUID) (*models.Center, error)
	UpdateProfile(ctx context.Context, callerID, targetID uuid.UUID, patch *models.CenterProfilePatch) (*models.Center, error)
	DeleteAccount(ctx context.Context, callerID, targetID uuid.UUID) error

	// Session lifecycle
	IssueSession(center *models.Center) (*models.SessionToken, error)
	ResumeSession(ctx context.Context, credential string) (*models.Session, error)
	Logout(ctx context.Context, session *models.Session) error
}

// RegisterRequest is the payload for creating a center account
type RegisterRequest struct {
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	Phone     string  `json:"phone"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SessionClaims is the signed form of a models.Session
type SessionClaims struct {
	CenterID   string `json:"center_id"`
	Email      string `json:"email"`
	CenterName string `json:"center_name"`
	jwt.RegisteredClaims
}

// AuthOptions tunes login throttling
type AuthOptions struct {
	MaxLoginAttempts int
	LoginWindow      time.Duration
}

type authService struct {
	centerRepo repositories.CenterRepository
	txnRepo    repositories.TransactionRepository
	cache      caching.CacheService
	jwtSecret  []byte
	options    AuthOptions
	logger     *zap.Logger
}

func NewAuthService(centerRepo repositories.CenterRepository, txnRepo repositories.TransactionRepository, cache caching.CacheService, jwtSecret string, options AuthOptions, logger *zap.Logger) AuthService {
	if options.MaxLoginAttempts <= 0 {
		options.MaxLoginAttempts = 5
	}
	if options.LoginWindow <= 0 {
		options.LoginWindow = 15 * time.Minute
	}
	return &authService{
		centerRepo: centerRepo,
		txnRepo:    txnRepo,
		cache:      cache,
		jwtSecret:  []byte(jwtSecret),
		options:    options,
		logger:     logger,
	}
}

// dummyHash is compared against when the email is unknown so both failure
// paths cost one bcrypt comparison.
var dummyHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("helpkart-placeholder"), bcrypt.DefaultCost)
	return hash
})

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", common.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*models.Center, error) {
	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return nil, err
	}
	email, err := common.ValidateEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if err := common.ValidateCoordinates(req.Latitude, req.Longitude); err != nil {
		return nil, err
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	if _, err := s.centerRepo.GetByEmail(ctx, email); err == nil {
		return nil, common.ErrDuplicateEmail
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	center := &models.Center{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(req.Phone),
		Address:      strings.TrimSpace(req.Address),
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Status:       models.CenterStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.centerRepo.Create(ctx, center); err != nil {
		return nil, err
	}

	s.logger.Info("center registered", zap.String("center_id", center.ID.String()))
	return center, nil
}

func (s *authService) Authenticate(ctx context.Context, email, password string) (*models.SessionToken, error) {
	email = common.NormalizeEmail(email)
	throttleKey := "login:" + email

	limited, err := s.cache.IsRateLimited(ctx, throttleKey, s.options.MaxLoginAttempts)
	if err != nil {
		s.logger.Warn("login throttle check failed", zap.Error(err))
	} else if limited {
		return nil, common.ErrTooManyAttempts
	}

	center, err := s.centerRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		s.recordFailedLogin(ctx, throttleKey)
		return nil, common.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(center.PasswordHash), []byte(password)); err != nil {
		s.recordFailedLogin(ctx, throttleKey)
		return nil, common.ErrInvalidCredentials
	}

	if err := s.cache.ResetRateLimit(ctx, throttleKey); err != nil {
		s.logger.Warn("failed to reset login throttle", zap.Error(err))
	}
	return s.IssueSession(center)
}

func (s *authService) recordFailedLogin(ctx context.Context, key string) {
	if err := s.cache.IncrementRateLimit(ctx, key, s.options.LoginWindow); err != nil {
		s.logger.Warn("failed to record login failure", zap.Error(err))
	}
}

func (s *authService) ChangePassword(ctx context.Context, centerID uuid.UUID, newPassword string) error {
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.centerRepo.UpdatePassword(ctx, centerID, hash)
}

func (s *authService) ChangePasswordWithCurrent(ctx context.Context, centerID uuid.UUID, currentPassword, newPassword string) error {
	center, err := s.centerRepo.GetByID(ctx, centerID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(center.PasswordHash), []byte(currentPassword)); err != nil {
		return common.ErrInvalidCredentials
	}
	return s.ChangePassword(ctx, centerID, newPassword)
}

func (s *authService) GetProfile(ctx context.Context, centerID uuid.UUID) (*models.Center, error) {
	return s.centerRepo.GetByID(ctx, centerID)
}

func (s *authService) UpdateProfile(ctx context.Context, callerID, targetID uuid.UUID, patch *models.CenterProfilePatch) (*models.Center, error) {
	if callerID != targetID {
		return nil, fmt.Errorf("cannot edit another center's profile: %w", common.ErrForbidden)
	}
	center, err := s.centerRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if err := common.ValidateRequiredString(*patch.Name, "name"); err != nil {
			return nil, err
		}
		center.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Phone != nil {
		center.Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.Address != nil {
		center.Address = strings.TrimSpace(*patch.Address)
	}
	if patch.Latitude != nil {
		center.Latitude = *patch.Latitude
	}
	if patch.Longitude != nil {
		center.Longitude = *patch.Longitude
	}
	if err := common.ValidateCoordinates(center.Latitude, center.Longitude); err != nil {
		return nil, err
	}
	if patch.Status != nil {
		if !models.IsValidCenterStatus(*patch.Status) {
			return nil, common.NewValidationError("status", "must be active, inactive or maintenance")
		}
		center.Status = *patch.Status
	}
	center.UpdatedAt = time.Now().UTC()

	if err := s.centerRepo.Update(ctx, center); err != nil {
		return nil, err
	}
	return center, nil
}

// DeleteAccount removes the center with its inventory and requests. Pending
// transactions involving it are rejected; settled history is kept.
func (s *authService) DeleteAccount(ctx context.Context, callerID, targetID uuid.UUID) error {
	if callerID != targetID {
		return fmt.Errorf("cannot delete another center: %w", common.ErrForbidden)
	}

	affected := []uuid.UUID{targetID}
	txns, err := s.txnRepo.ListForCenter(ctx, targetID)
	if err != nil {
		return err
	}
	for _, txn := range txns {
		if txn.Status == models.TransactionStatusPending {
			affected = append(affected, txn.Counterparty(targetID))
		}
	}

	if err := s.centerRepo.Delete(ctx, targetID); err != nil {
		return err
	}

	invalidateDashboards(ctx, s.cache, s.logger, affected...)
	s.logger.Info("center account deleted",
		zap.String("center_id", targetID.String()),
		zap.Int("pending_rejected", len(affected)-1),
	)
	return nil
}

func (s *authService) IssueSession(center *models.Center) (*models.SessionToken, error) {
	now := time.Now().UTC().Truncate(time.Second)
	session := &models.Session{
		CenterID:   center.ID,
		Email:      center.Email,
		CenterName: center.Name,
		TokenID:    uuid.NewString(),
		IssuedAt:   now,
		ExpiresAt:  now.Add(models.SessionTTL),
	}

	claims := SessionClaims{
		CenterID:   session.CenterID.String(),
		Email:      session.Email,
		CenterName: session.CenterName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   session.CenterID.String(),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			ID:        session.TokenID,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session: %w", err)
	}

	return &models.SessionToken{
		Token:     token,
		TokenType: tokenTypeBearer,
		ExpiresAt: session.ExpiresAt,
		Session:   session,
	}, nil
}

// ResumeSession rebuilds a session from its credential. Expired, revoked or
// tampered credentials and credentials of deleted centers are rejected.
func (s *authService) ResumeSession(ctx context.Context, credential string) (*models.Session, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(credential, claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(sessionIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidCredentials, err)
	}

	centerID, err := uuid.Parse(claims.CenterID)
	if err != nil || claims.ID == "" {
		return nil, fmt.Errorf("%w: malformed session", common.ErrInvalidCredentials)
	}

	revoked, err := s.cache.IsSessionRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Warn("session revocation check failed", zap.Error(err))
	} else if revoked {
		return nil, fmt.Errorf("%w: session ended", common.ErrInvalidCredentials)
	}

	center, err := s.centerRepo.GetByID(ctx, centerID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: center no longer exists", common.ErrInvalidCredentials)
		}
		return nil, err
	}

	session := &models.Session{
		CenterID:   center.ID,
		Email:      center.Email,
		CenterName: center.Name,
		TokenID:    claims.ID,
		ExpiresAt:  claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	return session, nil
}

func (s *authService) Logout(ctx context.Context, session *models.Session) error {
	return s.cache.RevokeSession(ctx, session.TokenID, time.Until(session.ExpiresAt))
}
