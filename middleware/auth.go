package middleware

import (
	"net/http"
	"strings"
	"time"

	"feastfleet/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Claims struct {
	UserID   string          `json:"user_id"`
	Email    string          `json:"email"`
	UserType models.UserType `json:"user_type"`
	jwt.RegisteredClaims
}

// Tokens issues and checks the signed tokens that identify a caller.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret []byte, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{secret: secret, ttl: ttl, now: time.Now}
}

// GenerateToken creates a signed JWT for a given user
func (t *Tokens) GenerateToken(user models.User) (string, error) {
	now := t.now()
	claims := Claims{
		UserID:   user.ID,
		Email:    user.Email,
		UserType: user.UserType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *Tokens) parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return nil, err
	}
	return claims, nil
}

// AuthRequired validates the JWT and injects claims into context
func (t *Tokens) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required (Bearer <token>)"})
			c.Abort()
			return
		}
		claims, err := t.parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil || claims.UserID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}
		c.Set("userID", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("userType", string(claims.UserType))
		if _, ok := c.Get(loggerKey); ok {
			c.Set(loggerKey, Logger(c).WithField("user_id", claims.UserID))
		}
		c.Next()
	}
}

// UserTypeRequired enforces that caller has one of the allowed account types
func UserTypeRequired(types ...models.UserType) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get("userType")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"error": "User type not found in context"})
			c.Abort()
			return
		}
		caller := models.UserType(v.(string))
		for _, t := range types {
			if caller == t {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Access denied. Required user type(s): " + typesString(types),
		})
		c.Abort()
	}
}

func typesString(types []models.UserType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// GetUserID extracts caller user ID from context
func GetUserID(c *gin.Context) string {
	return c.GetString("userID")
}

// GetUserType extracts caller account type from context
func GetUserType(c *gin.Context) models.UserType {
	return models.UserType(c.GetString("userType"))
}
