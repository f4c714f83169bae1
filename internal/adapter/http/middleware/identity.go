package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/ddebuut/storefront-api/configs"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by the identity middleware.
const (
	CtxUserID   = "userID"
	CtxUserName = "userName"
	CtxIsAdmin  = "isAdmin"
)

// Identity resolves the caller from a Bearer token issued by the auth
// service. Token issuance is not this service's business; we only consume.
type Identity struct {
	cfg configs.Config
}

func NewIdentity(cfg configs.Config) *Identity {
	return &Identity{cfg: cfg}
}

// Require rejects requests without a valid token.
func (i *Identity) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !i.resolve(c) {
			unauth(c, "invalid_token", "missing or invalid bearer token")
			return
		}
		c.Next()
	}
}

// Optional resolves the caller when a token is present and lets anonymous
// requests through (guest checkout).
func (i *Identity) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			// present but invalid is still rejected: a caller sending a
			// token expects to act as that identity
			if !i.resolve(c) {
				unauth(c, "invalid_token", "invalid bearer token")
				return
			}
		}
		c.Next()
	}
}

// RequireAdmin gates the administrative surface.
func (i *Identity) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !i.resolve(c) {
			unauth(c, "invalid_token", "missing or invalid bearer token")
			return
		}
		if !c.GetBool(CtxIsAdmin) {
			forbidden(c, "insufficient_scope", "admin access required")
			return
		}
		c.Next()
	}
}

func (i *Identity) resolve(c *gin.Context) bool {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return false
	}
	raw := strings.TrimPrefix(auth, "Bearer ")

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(i.cfg.Security.JWTSecret), nil
	}, jwt.WithLeeway(30*time.Second)) // small clock skew

	if err != nil || !token.Valid {
		return false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}
	if claims["iss"] != i.cfg.Security.Issuer || claims["aud"] != i.cfg.Security.Audience {
		return false
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return false
	}

	c.Set(CtxUserID, userID)
	if name, _ := claims["name"].(string); name != "" {
		c.Set(CtxUserName, name)
	}
	if admin, _ := claims["is_admin"].(bool); admin {
		c.Set(CtxIsAdmin, true)
	}
	return true
}

func unauth(c *gin.Context, code, desc string) {
	c.Header("WWW-Authenticate", `Bearer error="`+code+`", error_description="`+desc+`"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": code, "error_description": desc})
}

func forbidden(c *gin.Context, code, desc string) {
	c.Header("WWW-Authenticate", `Bearer error="`+code+`", error_description="`+desc+`"`)
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": code, "error_description": desc})
}
