package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pizza-service/apperrors"
	"pizza-service/authz"
	"pizza-service/models"
	"pizza-service/session"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ctxUserKey    = "user"
	ctxTokenIDKey = "tokenID"
)

type Claims struct {
	UserID uint          `json:"id"`
	Name   string        `json:"name"`
	Email  string        `json:"email"`
	Roles  []models.Role `json:"roles"`
	jwt.RegisteredClaims
}

// Authenticator issues and validates bearer tokens. A token authenticates
// only while its id is present in the session store.
type Authenticator struct {
	secret   []byte
	ttl      time.Duration
	sessions session.Store
	db       *gorm.DB
}

func NewAuthenticator(secret []byte, ttl time.Duration, sessions session.Store, db *gorm.DB) *Authenticator {
	return &Authenticator{secret: secret, ttl: ttl, sessions: sessions, db: db}
}

// IssueToken creates a signed JWT for a given user and marks it active
func (a *Authenticator) IssueToken(ctx context.Context, user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Roles:  user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			Subject:  fmt.Sprint(user.ID),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	var expiresAt *time.Time
	if a.ttl > 0 {
		exp := now.Add(a.ttl)
		expiresAt = &exp
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	if err := a.sessions.Add(ctx, claims.ID, user.ID, expiresAt); err != nil {
		return "", err
	}
	return signed, nil
}

// Authenticate validates the token and loads the current state of its user.
// Every failure is reported as the same Unauthenticated error.
func (a *Authenticator) Authenticate(ctx context.Context, tokenStr string) (*models.User, string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, "", apperrors.Unauthenticated(err)
	}
	if claims.ID == "" {
		return nil, "", apperrors.Unauthenticated(errors.New("token has no id"))
	}

	active, err := a.sessions.Active(ctx, claims.ID)
	if err != nil {
		return nil, "", apperrors.Internal("session lookup failed", err)
	}
	if !active {
		return nil, "", apperrors.Unauthenticated(errors.New("session not active"))
	}

	var user models.User
	if err := a.db.WithContext(ctx).Preload("Roles").First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperrors.Unauthenticated(errors.New("user no longer exists"))
		}
		return nil, "", apperrors.Internal("user lookup failed", err)
	}
	return &user, claims.ID, nil
}

// Revoke invalidates a single token by id
func (a *Authenticator) Revoke(ctx context.Context, tokenID string) error {
	return a.sessions.Revoke(ctx, tokenID)
}

// RevokeUser invalidates every token issued to the user
func (a *Authenticator) RevokeUser(ctx context.Context, userID uint) error {
	return a.sessions.RevokeUser(ctx, userID)
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return tokenStr, tokenStr != ""
}

// AuthRequired rejects requests without a valid, active bearer token
func (a *Authenticator) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			RespondError(c, apperrors.Unauthenticated(errors.New("missing bearer token")))
			c.Abort()
			return
		}
		user, tokenID, err := a.Authenticate(c.Request.Context(), tokenStr)
		if err != nil {
			RespondError(c, err)
			c.Abort()
			return
		}
		c.Set(ctxUserKey, user)
		c.Set(ctxTokenIDKey, tokenID)
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and lets
// anonymous requests through otherwise
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr, ok := bearerToken(c); ok {
			if user, tokenID, err := a.Authenticate(c.Request.Context(), tokenStr); err == nil {
				c.Set(ctxUserKey, user)
				c.Set(ctxTokenIDKey, tokenID)
			}
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated caller, or nil
func CurrentUser(c *gin.Context) *models.User {
	val, ok := c.Get(ctxUserKey)
	if !ok {
		return nil
	}
	user, _ := val.(*models.User)
	return user
}

// TokenID returns the id of the token the caller authenticated with
func TokenID(c *gin.Context) string {
	return c.GetString(ctxTokenIDKey)
}

// Identity converts the caller into the authorization guard's view
func Identity(c *gin.Context) *authz.Identity {
	user := CurrentUser(c)
	if user == nil {
		return nil
	}
	return &authz.Identity{UserID: user.ID, Roles: user.Roles}
}
