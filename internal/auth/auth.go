package auth

import (
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/stocksaga/stocksaga-api/internal/config"
	"github.com/stocksaga/stocksaga-api/pkg/response"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotVerified        = errors.New("email not verified")
	ErrInvalidOTP         = errors.New("invalid or expired OTP")
	ErrInvalidPIN         = errors.New("invalid trading PIN")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

var pinPattern = regexp.MustCompile(`^\d{4}$`)

// SignupRequest carries the account registration payload.
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	PIN      string `json:"pin" binding:"required"`
}

// LoginRequest carries the login payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents the session token handed to the client on login.
type TokenResponse struct {
	Token      string    `json:"token"`
	Expiration time.Time `json:"expiration"`
}

// Claims represents the JWT claims structure
type Claims struct {
	jwt.RegisteredClaims
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
}

// Service handles account registration, verification and session tokens.
type Service struct {
	db              *Database
	jwtSecret       []byte
	tokenExpiry     time.Duration
	otpExpiry       time.Duration
	startingBalance float64
}

func NewService(gormDB *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:              NewDatabase(gormDB),
		jwtSecret:       []byte(cfg.JWTSecret),
		tokenExpiry:     cfg.TokenExpiry,
		otpExpiry:       cfg.OTPExpiry,
		startingBalance: cfg.StartingBalance,
	}
}

// Signup creates an unverified account and issues a one-time code. Email
// delivery is simulated: the code is written to the log.
func (s *Service) Signup(req SignupRequest) error {
	if !pinPattern.MatchString(req.PIN) {
		return errors.New("trading PIN must be exactly 4 digits")
	}

	existing, err := s.db.GetUserByEmail(req.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrEmailTaken
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	pinHash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	otp := fmt.Sprintf("%06d", rand.Intn(1000000))
	user := &User{
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		PINHash:      string(pinHash),
		Balance:      s.startingBalance,
		OTPCode:      otp,
		OTPExpiresAt: time.Now().Add(s.otpExpiry),
	}
	if err := s.db.CreateUser(user); err != nil {
		return err
	}

	log.Info().
		Str("email", user.Email).
		Str("otp", otp).
		Msg("verification OTP issued (simulated email delivery)")

	return nil
}

// VerifyOTP marks an account verified when the pending code matches and has
// not expired.
func (s *Service) VerifyOTP(email, code string) error {
	user, err := s.db.GetUserByEmail(email)
	if err != nil {
		return err
	}
	if user == nil || user.OTPCode == "" || user.OTPCode != code {
		return ErrInvalidOTP
	}
	if time.Now().After(user.OTPExpiresAt) {
		return ErrInvalidOTP
	}

	user.Verified = true
	user.OTPCode = ""
	return s.db.UpdateUser(user)
}

// PendingOTP returns the unexpired verification code for an account. Used by
// the simulation and tests; real deployments deliver the code by email.
func (s *Service) PendingOTP(email string) (string, error) {
	user, err := s.db.GetUserByEmail(email)
	if err != nil {
		return "", err
	}
	if user == nil || user.OTPCode == "" {
		return "", ErrInvalidOTP
	}
	return user.OTPCode, nil
}

// Login checks the credentials and returns a signed session token.
func (s *Service) Login(req LoginRequest) (*TokenResponse, error) {
	user, err := s.db.GetUserByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Verified {
		return nil, ErrNotVerified
	}

	expiration := time.Now().Add(s.tokenExpiry)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
		UserID: user.ID,
		Email:  user.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, ErrTokenGeneration
	}

	return &TokenResponse{Token: tokenString, Expiration: expiration}, nil
}

// ValidateToken validates a session token and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// VerifyPIN checks the trading PIN for an account. This is the secondary
// credential required before a trade is accepted.
func (s *Service) VerifyPIN(userID uint, pin string) error {
	user, err := s.db.GetUserByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidPIN
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PINHash), []byte(pin)); err != nil {
		return ErrInvalidPIN
	}
	return nil
}

// Balance returns the current cash balance for an account.
func (s *Service) Balance(userID uint) (float64, error) {
	user, err := s.db.GetUserByID(userID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, gorm.ErrRecordNotFound
	}
	return user.Balance, nil
}

// GetUserID extracts the account ID from JWT claims set by the middleware.
// Returns zero if the claim is missing or malformed.
func GetUserID(claims interface{}) uint {
	if jwtClaims, ok := claims.(jwt.MapClaims); ok {
		if id, ok := jwtClaims["user_id"].(float64); ok {
			return uint(id)
		}
	}
	return 0
}

// GinHandlers contains HTTP handlers for authentication endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// SignupHandler handles POST requests to register a new account.
func (h *GinHandlers) SignupHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SignupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		if err := h.service.Signup(req); err != nil {
			if errors.Is(err, ErrEmailTaken) {
				response.Conflict(c, err.Error())
				return
			}
			response.BadRequest(c, err.Error())
			return
		}

		response.Success(c, gin.H{"message": "OTP sent to email"})
	}
}

// VerifyOTPHandler handles POST requests to verify a pending account.
func (h *GinHandlers) VerifyOTPHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required"`
			OTP   string `json:"otp" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		if err := h.service.VerifyOTP(req.Email, req.OTP); err != nil {
			response.Unauthorized(c, err.Error())
			return
		}

		response.Success(c, gin.H{"message": "Email verified"})
	}
}

// LoginHandler handles POST requests to exchange credentials for a session
// token.
func (h *GinHandlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		token, err := h.service.Login(req)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrNotVerified) {
				response.Unauthorized(c, err.Error())
				return
			}
			response.InternalError(c, "Login failed")
			return
		}

		response.Success(c, token)
	}
}

// VerifyPINHandler handles POST requests to check the trading PIN before a
// trade is submitted. Requires a valid session token.
func (h *GinHandlers) VerifyPINHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, exists := c.Get("claims")
		if !exists {
			response.Unauthorized(c, "Missing authentication claims")
			return
		}
		userID := GetUserID(claims)
		if userID == 0 {
			response.Unauthorized(c, "Invalid user ID in token")
			return
		}

		var req struct {
			PIN string `json:"pin" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		if err := h.service.VerifyPIN(userID, req.PIN); err != nil {
			response.Unauthorized(c, ErrInvalidPIN.Error())
			return
		}

		response.Success(c, gin.H{"message": "PIN verified"})
	}
}
