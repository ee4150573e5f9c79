package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Tipos de token emitidos por /token/.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// ErrWrongTokenType se devuelve cuando se presenta un refresh donde se espera un access (o viceversa).
var ErrWrongTokenType = errors.New("jwt: tipo de token incorrecto")

// Claims incluye los claims estándar JWT más los campos propios de la aplicación.
// Schema ata el token al namespace donde se emitió: un token de "acme" no sirve en "globex".
type Claims struct {
	jwt.RegisteredClaims
	UserID      string `json:"user_id"`
	Schema      string `json:"schema"`
	Role        string `json:"role"`
	IsSuperuser bool   `json:"is_superuser"`
	TokenType   string `json:"token_type"`
}

// Subject datos de identidad que viajan en el token.
type Subject struct {
	UserID      string
	Schema      string
	Role        string
	IsSuperuser bool
}

// Generate genera un token JWT firmado (HS256) del tipo indicado.
func Generate(secret, issuer, tokenType string, sub Subject, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sub.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:      sub.UserID,
		Schema:      sub.Schema,
		Role:        sub.Role,
		IsSuperuser: sub.IsSuperuser,
		TokenType:   tokenType,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida firma y expiración y devuelve los claims.
// Si expectedType no está vacío, el token debe ser de ese tipo.
func Parse(secret, tokenString, expectedType string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("claims inválidos")
	}
	if expectedType != "" && claims.TokenType != expectedType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
