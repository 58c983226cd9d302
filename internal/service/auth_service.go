package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"abfit/coach-api/internal/domain"
	"abfit/coach-api/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserAlreadyExists    = errors.New("user with this email already exists")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid email or password")
	ErrUnknownStudentEmail  = errors.New("no student registered with this email")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
)

const jwtIssuer = "abfit-coach-api"

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	// StudentLogin signs in a roster entry by its known email; there is no password.
	StudentLogin(ctx context.Context, email string) (token string, student *domain.Student, err error)
	GetJWTSecret() string
}

type authService struct {
	userRepo      repository.UserRepository
	studentRepo   repository.StudentRepository
	jwtSecret     string
	jwtExpiration time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	studentRepo repository.StudentRepository,
	jwtSecret string,
	jwtExpiration time.Duration,
) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty")
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour
	}
	return &authService{
		userRepo:      userRepo,
		studentRepo:   studentRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

// Register creates a trainer account.
func (s *authService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	// Fast path for the common case; the unique index still catches races below.
	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         domain.RoleTrainer,
	}
	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		// unique index lost the race with a concurrent registration
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	user.ID = userID

	log.Infof("trainer registered: %s", userID.Hex())
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (token string, user *domain.User, err error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, ErrInvalidInput
	}

	user, err = s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		// don't reveal whether the email exists
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrAuthenticationFailed
		}
		return "", nil, err
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	token, err = s.generateJWT(user.ID.Hex(), user.Role)
	if err != nil {
		log.Errorf("sign trainer token: %s", err)
		return "", nil, ErrTokenGeneration
	}

	// never hand the hash back to the handler
	user.PasswordHash = ""
	return token, user, nil
}

func (s *authService) StudentLogin(ctx context.Context, email string) (token string, student *domain.Student, err error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", nil, ErrInvalidInput
	}

	student, err = s.studentRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrUnknownStudentEmail
		}
		return "", nil, err
	}

	token, err = s.generateJWT(student.ID.Hex(), domain.RoleStudent)
	if err != nil {
		log.Errorf("sign student token: %s", err)
		return "", nil, ErrTokenGeneration
	}
	return token, student, nil
}

// Claims is the JWT payload shared with the auth middleware.
type Claims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

func (s *authService) generateJWT(subjectID string, role domain.Role) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: subjectID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    jwtIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// GetJWTSecret returns the JWT secret for middleware authentication
func (s *authService) GetJWTSecret() string {
	return s.jwtSecret
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
