package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/garyjia/travel-expense/internal/domain/entity"
)

const actorKey = "actor"

// AuthConfig holds the bearer token settings
type AuthConfig struct {
	Secret string
	Issuer string
}

// Claims carries the caller identity. The subject is the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var validRoles = map[string]bool{
	entity.RoleEmployee:   true,
	entity.RoleManager:    true,
	entity.RoleAccounting: true,
	entity.RoleAdmin:      true,
}

// IssueToken signs an HS256 token for actor, valid for ttl
func IssueToken(cfg AuthConfig, actor entity.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}

// ParseToken validates a token and returns the actor it names
func ParseToken(cfg AuthConfig, tokenString string) (entity.Actor, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return entity.Actor{}, err
	}
	if !token.Valid {
		return entity.Actor{}, errors.New("invalid token")
	}

	if claims.Subject == "" {
		return entity.Actor{}, errors.New("token has no subject")
	}
	role := claims.Role
	if role == "" {
		role = entity.RoleEmployee
	}
	if !validRoles[role] {
		return entity.Actor{}, fmt.Errorf("unknown role %q", role)
	}

	return entity.Actor{ID: claims.Subject, Role: role}, nil
}

// authMiddleware resolves the bearer token into an explicit entity.Actor
func authMiddleware(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Code:    "unauthorized",
				Error:   "missing or invalid Authorization header",
			})
			return
		}

		actor, err := ParseToken(cfg, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Code:    "unauthorized",
				Error:   "invalid token",
			})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// actorFrom returns the identity set by authMiddleware
func actorFrom(c *gin.Context) entity.Actor {
	actor, _ := c.MustGet(actorKey).(entity.Actor)
	return actor
}
