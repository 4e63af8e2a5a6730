package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// DefaultTicketTTL bounds how long a choice ticket stays redeemable.
const DefaultTicketTTL = 30 * time.Minute

var ErrBadTicket = errors.New("invalid choice ticket")

// TicketService signs the choice requests sent to clients so a response can
// only answer the request it was issued for.
type TicketService struct {
	secret string
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTicketService(secret, issuer string) *TicketService {
	return &TicketService{secret: secret, issuer: issuer, ttl: DefaultTicketTTL, now: time.Now}
}

// Issue returns an HS256 ticket binding the request to one match and user.
func (s *TicketService) Issue(matchID, userID, requestID string) (string, error) {
	if s == nil || s.secret == "" {
		return "", fmt.Errorf("ticket secret is not configured")
	}
	if userID == "" || requestID == "" {
		return "", fmt.Errorf("user and request id are required")
	}

	claims := jwt.MapClaims{
		"iss": s.issuer,
		"sub": userID,
		"mid": matchID,
		"rid": requestID,
		"exp": s.now().Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// Verify checks a ticket against the match and sender and returns the
// request id it was issued for.
func (s *TicketService) Verify(ticket, matchID, userID string) (string, error) {
	if s == nil || s.secret == "" {
		return "", fmt.Errorf("ticket secret is not configured")
	}
	token, err := jwt.Parse(ticket, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrBadTicket, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrBadTicket
	}
	if claims["sub"] != userID || claims["mid"] != matchID {
		return "", fmt.Errorf("%w: issued to another player or match", ErrBadTicket)
	}
	rid, _ := claims["rid"].(string)
	if rid == "" {
		return "", fmt.Errorf("%w: missing request id", ErrBadTicket)
	}
	return rid, nil
}
