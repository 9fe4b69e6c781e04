package auth

import (
	"testing"
	"time"

	"counsel-chat/domain"
	cerrors "counsel-chat/errors"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	req := require.New(t)
	secret := "unit-test-secret"

	token, err := GenerateToken(secret, "stu-101", "Maya L.",
		[]string{"student"}, 1*time.Hour)
	req.NoError(err)

	claims, err := NewTokenVerifier(secret).Verify(token)
	req.NoError(err)
	req.Equal("stu-101", claims.UserID)
	req.Equal("Maya L.", claims.DisplayName)
	req.Equal([]string{"student"}, claims.Roles)
}

func TestVerify_RejectsBadTokens(t *testing.T) {
	req := require.New(t)
	secret := "unit-test-secret"
	verifier := NewTokenVerifier(secret)

	// Wrong signing key
	forged, err := GenerateToken("another-secret", "stu-101", "Maya L.",
		[]string{"student"}, 1*time.Hour)
	req.NoError(err)
	_, err = verifier.Verify(forged)
	req.ErrorIs(err, cerrors.ErrInvalidToken)

	// Expired token
	expired, err := GenerateToken(secret, "stu-101", "Maya L.",
		[]string{"student"}, -1*time.Minute)
	req.NoError(err)
	_, err = verifier.Verify(expired)
	req.ErrorIs(err, cerrors.ErrInvalidToken)

	// Not a token at all
	_, err = verifier.Verify("definitely.not.a.jwt")
	req.ErrorIs(err, cerrors.ErrInvalidToken)
}

func TestClaims_Participant(t *testing.T) {
	req := require.New(t)

	claims := CustomClaims{UserID: "psy-201", DisplayName: "Dr. Amari", Roles: []string{"psychologist"}}
	req.Equal(domain.Participant{
		ID: "psy-201", DisplayName: "Dr. Amari", Role: domain.RolePsychologist,
	}, claims.Participant())

	// Missing role defaults to student, the least privileged
	noRole := CustomClaims{UserID: "stu-101", DisplayName: "Maya L."}
	req.Equal(domain.RoleStudent, noRole.Participant().Role)
}
