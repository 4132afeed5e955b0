package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/medconnect/booking-api/internal/model"
	"github.com/medconnect/booking-api/internal/repository"
	apperrors "github.com/medconnect/booking-api/pkg/errors"
	"github.com/medconnect/booking-api/pkg/security"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// Claims is the verified identity attached to every authenticated request.
type Claims struct {
	UserID int64      `json:"id"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	users  repository.UserRepository
	hasher security.PasswordHasher
	secret []byte
	expiry time.Duration
}

func NewService(users repository.UserRepository, hasher security.PasswordHasher, secret string, expiry time.Duration) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		secret: []byte(secret),
		expiry: expiry,
	}
}

// Register creates a user with the given role. Doctors must carry a license.
func (s *Service) Register(ctx context.Context, req *model.RegisterUserRequest, role model.Role) (*model.User, error) {
	exists, err := s.users.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, apperrors.Conflict("user with this email already exists")
	}

	if role == model.RoleDoctor && req.MedicalLicense == "" {
		return nil, apperrors.BadRequest("medical_license is required for doctors", nil)
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return nil, apperrors.BadRequest("date_of_birth must be YYYY-MM-DD", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.BadRequest("invalid password", err)
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		DateOfBirth:  dob,
	}
	if req.MedicalLicense != "" {
		user.MedicalLicense = &req.MedicalLicense
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*model.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.Unauthorized(ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, apperrors.Unauthorized(ErrInvalidCredentials)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		Role:        user.Role,
		UserID:      user.ID,
	}, nil
}

func (s *Service) generateToken(user *model.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ValidateToken parses and verifies a bearer token.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.Unauthorized(errors.New("invalid token"))
	}
	return claims, nil
}
