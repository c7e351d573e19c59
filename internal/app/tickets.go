package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

const (
	DefaultTicketTTL = 24 * time.Hour
	ticketIssuer     = "pan"
)

var (
	ErrTicketConfig  = errors.New("ticket service is not configured")
	ErrInvalidTicket = errors.New("invalid seat ticket")
)

// TicketService signs seat tickets: proof that a user was admitted to a room through
// its join code, presented again when the user connects or reconnects.
type TicketService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTicketService returns a service signing with secret.
func NewTicketService(secret string, ttl time.Duration) *TicketService {
	if ttl <= 0 {
		ttl = DefaultTicketTTL
	}
	return &TicketService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a ticket binding userID to matchID.
func (s *TicketService) Issue(matchID, userID string) (string, error) {
	if s == nil || len(s.secret) == 0 {
		return "", ErrTicketConfig
	}
	if matchID == "" || userID == "" {
		return "", fmt.Errorf("match id and user id are required")
	}

	now := s.now()
	claims := jwt.MapClaims{
		"iss": ticketIssuer,
		"sub": userID,
		"mid": matchID,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks the signature, expiry and binding of a ticket.
func (s *TicketService) Verify(ticket, matchID, userID string) error {
	if s == nil || len(s.secret) == 0 {
		return ErrTicketConfig
	}
	token, err := jwt.Parse(ticket, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTicket, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return ErrInvalidTicket
	}
	if claims["iss"] != ticketIssuer || claims["mid"] != matchID || claims["sub"] != userID {
		return fmt.Errorf("%w: ticket is for another seat", ErrInvalidTicket)
	}
	return nil
}
