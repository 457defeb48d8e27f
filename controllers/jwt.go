package controllers

import (
	"errors"
	"fmt"
	"time"

	"painel/models"

	"github.com/golang-jwt/jwt/v5"
)

const TOKEN_TTL = 12 * time.Hour

// Claims do token de acesso. O jti identifica a sessão em sessoes_ativas
// (guardado como hash sha512).
type Claims struct {
	UserID    int64  `json:"uid"`
	SessionID int64  `json:"sid"`
	Email     string `json:"email"`
	Perfil    string `json:"perfil"`
	jwt.RegisteredClaims
}

func getJWTSecret() []byte {
	return []byte(services.Config.Security.JwtSecret)
}

func signToken(user models.UsuarioSistema, sessaoID int64, jti string, issuedAt time.Time) (string, error) {
	claims := Claims{
		UserID:    user.ID,
		SessionID: sessaoID,
		Email:     user.Email,
		Perfil:    user.Perfil,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(TOKEN_TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(getJWTSecret())
}

// parseToken confere a assinatura. Com validateClaims=false um token vencido
// ainda é aceito (usado pelos avisos de fechamento).
func parseToken(token string, validateClaims bool) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(now),
	}
	if !validateClaims {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return getJWTSecret(), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if claims.UserID == 0 || claims.SessionID == 0 || claims.ID == "" {
		return nil, errors.New("token sem usuário/sessão")
	}
	return claims, nil
}
