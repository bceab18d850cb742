package security

import (
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StationIdentity describes the volunteer operating a check-in station.
type StationIdentity struct {
	Id        int
	UserName  string
	Email     string
	StationID string
}

type Identity struct {
	ID         int    `json:"nameid"`
	UniqueName string `json:"unique_name"`
	Email      string `json:"email"`
	SID        string `json:"sid"`
}

type IdentityClaims struct {
	Identity
	jwt.RegisteredClaims
}

// CreateIdentityToken mints the bearer token the station sends to the
// membership server. The secret is shared with the server and base64-encoded.
func CreateIdentityToken(identity *StationIdentity, base64Secret string, expiresInSeconds int64) (string, error) {
	secretBytes, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return "", err
	}
	claims := IdentityClaims{
		Identity: Identity{
			ID:         identity.Id,
			UniqueName: identity.UserName,
			Email:      identity.Email,
			SID:        identity.StationID,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "koinonia",
			Audience:  []string{"api.koinonia.church"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expiresInSeconds) * time.Second)),
		},
	}

	// HS256, symmetric key shared with the membership server
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(secretBytes)
}
