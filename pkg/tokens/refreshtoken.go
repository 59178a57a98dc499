package tokens

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

func SignRefresh(claims RefreshClaims, secret []byte) (string, error) {
	claims.Type = TypeRefresh
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func RefreshClaimsFromToken(tokenStr string, refreshSecret []byte) (*RefreshClaims, error) {
	var claims RefreshClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, keyFunc(refreshSecret))
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid refresh token")
	}
	if claims.Type != TypeRefresh {
		return nil, fmt.Errorf("%w: %q", ErrWrongTokenType, claims.Type)
	}
	return &claims, nil
}
