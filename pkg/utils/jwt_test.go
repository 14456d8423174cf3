package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTokenRoundTrip(t *testing.T) {
	SetSecret("test-secret")
	userID := primitive.NewObjectID()

	token, err := GenerateToken(userID, "finance")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.Hex(), claims.UserID)
	assert.Equal(t, userID.Hex(), claims.Subject)
	assert.Equal(t, "finance", claims.Name)

	actor, err := claims.ActorID()
	require.NoError(t, err)
	assert.Equal(t, userID, actor)
}

func TestValidateTokenRejects(t *testing.T) {
	sign := func(claims UserClaims, method jwt.SigningMethod) string {
		token, err := jwt.NewWithClaims(method, claims).SignedString([]byte("rejects"))
		require.NoError(t, err)
		return token
	}
	valid := func() UserClaims {
		id := primitive.NewObjectID().Hex()
		return UserClaims{UserID: id, RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
	}

	foreign := valid()
	foreign.Issuer = "crm"
	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	notAUser := valid()
	notAUser.UserID = "admin"

	tests := []struct {
		name  string
		token string
	}{
		{"other issuer", sign(foreign, jwt.SigningMethodHS256)},
		{"expired", sign(expired, jwt.SigningMethodHS256)},
		{"subject is not a user id", sign(notAUser, jwt.SigningMethodHS256)},
		{"other hmac size", sign(valid(), jwt.SigningMethodHS512)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetSecret("rejects")
			_, err := ValidateToken(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestValidateTokenRejectsOtherSecret(t *testing.T) {
	SetSecret("one")
	token, err := GenerateToken(primitive.NewObjectID(), "")
	require.NoError(t, err)

	SetSecret("two")
	_, err = ValidateToken(token)
	assert.Error(t, err)
}
