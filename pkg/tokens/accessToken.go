package tokens

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

func SignAccess(claims AccessClaims, secret []byte) (string, error) {
	claims.Type = TypeAccess
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func AccessClaimsFromToken(tokenStr string, accessSecret []byte) (*AccessClaims, error) {
	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, keyFunc(accessSecret))
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid access token")
	}
	if claims.Type != TypeAccess {
		return nil, fmt.Errorf("%w: %q", ErrWrongTokenType, claims.Type)
	}
	return &claims, nil
}
