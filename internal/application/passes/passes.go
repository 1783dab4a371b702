package passes

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"ticketing/internal/entities"
)

const issuer = "ticketing"

var ErrInvalidPass = errors.New("invalid booking pass")

type claims struct {
	BookingID string `json:"booking_id"`
	EventID   string `json:"event_id"`
	UserID    string `json:"user_id"`
	jwt.RegisteredClaims
}

// Signer issues and reads the HS256 tokens embedded in confirmation
// notifications (rendered as QR codes by the mailer).
type Signer struct {
	key []byte
	now func() time.Time
}

func NewSigner(key []byte) *Signer {
	return &Signer{key: key, now: time.Now}
}

func (s *Signer) Sign(pass entities.BookingPass) (string, error) {
	if len(s.key) == 0 {
		return "", fmt.Errorf("pass signing key is not configured")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		BookingID: pass.BookingID.String(),
		EventID:   pass.EventID.String(),
		UserID:    pass.UserID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  pass.BookingID.String(),
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	})

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign booking pass: %w", err)
	}

	return signed, nil
}

func (s *Signer) Parse(token string) (entities.BookingPass, error) {
	var c claims
	_, err := jwt.ParseWithClaims(
		token,
		&c,
		func(t *jwt.Token) (any, error) {
			return s.key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return entities.BookingPass{}, fmt.Errorf("%w: %v", ErrInvalidPass, err)
	}

	var pass entities.BookingPass
	if pass.BookingID, err = uuid.Parse(c.BookingID); err != nil {
		return entities.BookingPass{}, fmt.Errorf("%w: booking_id: %v", ErrInvalidPass, err)
	}
	if pass.EventID, err = uuid.Parse(c.EventID); err != nil {
		return entities.BookingPass{}, fmt.Errorf("%w: event_id: %v", ErrInvalidPass, err)
	}
	if pass.UserID, err = uuid.Parse(c.UserID); err != nil {
		return entities.BookingPass{}, fmt.Errorf("%w: user_id: %v", ErrInvalidPass, err)
	}

	return pass, nil
}
