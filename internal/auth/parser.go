package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/brightserv/facilityops/internal/model"
)

var ErrInvalidToken = errors.New("invalid access token")

type accessClaims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Parser validates HS256 access tokens and extracts the principal.
type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

func (p *Parser) Parse(token string) (model.Principal, error) {
	claims := &accessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return p.secret, nil
	})
	if err != nil || !parsed.Valid {
		return model.Principal{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Principal{}, ErrInvalidToken
	}

	role := model.Role(claims.Role)
	switch role {
	case model.RoleAdmin, model.RoleSales, model.RoleFSM, model.RoleAccounting:
	default:
		return model.Principal{}, ErrInvalidToken
	}

	return model.Principal{
		UserID: userID,
		Name:   claims.Name,
		Role:   role,
	}, nil
}
