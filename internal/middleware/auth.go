package middleware

import (
	"net/http"
	"strings"

	"tesoreria/internal/apierror"
	"tesoreria/internal/permiso"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ClaimsKey   = "claims"
	TenantIDKey = "tenant_id"
)

// JWTClaims are the custom claims embedded in every access token. Tokens are
// issued by the identity service; this module only verifies them.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	Rol      string `json:"rol"`
	jwt.RegisteredClaims
}

// Tenant returns the parsed tenant id, or uuid.Nil when the claim is missing or malformed.
func (c *JWTClaims) Tenant() uuid.UUID {
	id, err := uuid.Parse(c.TenantID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// Usuario returns the parsed user id, or uuid.Nil.
func (c *JWTClaims) Usuario() uuid.UUID {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// JWTAuth validates the Bearer token on every protected route. A token without
// a tenant is rejected here so no handler ever runs tenant-less.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token invalido o expirado"))
			return
		}
		if claims.Tenant() == uuid.Nil || claims.Usuario() == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token sin tenant o usuario"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(TenantIDKey, claims.TenantID)
		c.Next()
	}
}

// RequirePermiso rejects requests whose role does not grant p.
func RequirePermiso(p permiso.Permiso) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || !permiso.DeRol(claims.Rol).Tiene(p) {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Permisos insuficientes"))
			return
		}
		c.Next()
	}
}

// GetClaims is a helper to retrieve typed claims from the Gin context.
func GetClaims(c *gin.Context) *JWTClaims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*JWTClaims)
	return claims
}
