package passes_test

import (
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketing/internal/application/passes"
	"ticketing/internal/entities"
)

var key = []byte("0123456789abcdef0123456789abcdef")

func TestSigner_roundtrip(t *testing.T) {
	signer := passes.NewSigner(key)
	pass := entities.BookingPass{
		BookingID: uuid.New(),
		EventID:   uuid.New(),
		UserID:    uuid.New(),
	}

	token, err := signer.Sign(pass)
	require.NoError(t, err)

	parsed, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, pass, parsed)
}

func TestSigner_Parse_rejects(t *testing.T) {
	signer := passes.NewSigner(key)
	token, err := signer.Sign(entities.BookingPass{BookingID: uuid.New(), EventID: uuid.New(), UserID: uuid.New()})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"booking_id": uuid.NewString(),
		"iss":        "ticketing",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	testCases := map[string]string{
		"tampered payload": parts[0] + "." + parts[1] + "x." + parts[2],
		"other key":        mustSign(t, passes.NewSigner([]byte("another-key-another-key-another-k"))),
		"unsigned":         noneToken,
		"garbage":          "not-a-token",
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := signer.Parse(tc)
			assert.ErrorIs(t, err, passes.ErrInvalidPass)
		})
	}
}

func TestSigner_Sign_requires_key(t *testing.T) {
	_, err := passes.NewSigner(nil).Sign(entities.BookingPass{})
	assert.Error(t, err)
}

func mustSign(t *testing.T, signer *passes.Signer) string {
	t.Helper()
	token, err := signer.Sign(entities.BookingPass{BookingID: uuid.New(), EventID: uuid.New(), UserID: uuid.New()})
	require.NoError(t, err)
	return token
}
