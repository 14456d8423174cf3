package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const tokenIssuer = "go-approvals"

var (
	jwtSecret = []byte("secret")
	tokenTTL  = 72 * time.Hour
)

type claimsKey string

// UserClaimsKey is the fiber Locals key holding the authenticated *UserClaims.
const UserClaimsKey claimsKey = "user_claims"

var ErrInvalidActor = errors.New("token subject is not a user id")

// SetSecret allows injecting the secret from config
func SetSecret(secret string) {
	jwtSecret = []byte(secret)
}

// UserClaims identifies the actor behind a request. The engine only needs who
// is acting; roles and permissions are not carried.
type UserClaims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// ActorID parses the user id the approval endpoints act as.
func (c *UserClaims) ActorID() (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(c.UserID)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidActor
	}
	return oid, nil
}

func GenerateToken(userID primitive.ObjectID, name string) (string, error) {
	now := time.Now()
	claims := UserClaims{
		UserID: userID.Hex(),
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ValidateToken accepts only HS256 tokens issued by this service whose
// subject is a valid user id.
func ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	if _, err := claims.ActorID(); err != nil {
		return nil, err
	}
	return claims, nil
}
