package jwt

import (
	"testing"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/model"
)

func testUser() *model.User {
	return &model.User{
		ID:        uuid.New(),
		Email:     "diallo@un.org",
		FirstName: "Amina",
		LastName:  "Diallo",
		Team:      "EOSG",
	}
}

func TestGenerateAndValidateTokens(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	user := testUser()

	access, refresh, err := GenerateTokens(user)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	claims, err := ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims["sub"])
	assert.Equal(t, "diallo@un.org", claims["email"])
	assert.Equal(t, "Amina Diallo", claims["name"])
	assert.Equal(t, "EOSG", claims["team"])

	refreshClaims, err := ValidateToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refreshClaims["type"])
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	_, err := ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	access, _, err := GenerateTokens(testUser())
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "different-secret")
	_, err = ValidateToken(access)
	assert.Error(t, err)
}

// The secret must be read when tokens are signed and checked, not at package
// init: main loads .env.dev after this package is initialized, so a captured
// value would be the empty string and empty-key tokens would verify.
func TestSecretReadAtCallTime(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret-from-env-file")

	forged := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": uuid.New().String(),
	})
	emptyKeyToken, err := forged.SignedString([]byte(""))
	require.NoError(t, err)

	_, err = ValidateToken(emptyKeyToken)
	assert.Error(t, err)

	access, _, err := GenerateTokens(testUser())
	require.NoError(t, err)
	_, err = ValidateToken(access)
	assert.NoError(t, err)
}
