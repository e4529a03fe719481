package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"user-service/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// Token decode failures. The middleware collapses all of them to an anonymous
// outcome; the distinction is for server-side logs and tests only.
var (
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
)

// subjectParts is the id/email pair count in the token subject.
const subjectParts = 2

// Claims is the validated content of a token: the principal candidate plus
// the issuance window.
type Claims struct {
	UserID      int64
	Email       string
	Authorities []string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// JWTService issues and validates the service's HS256 tokens. The subject is
// `<id><separator><email>` and the authorities claim holds role names joined
// by the same separator, stored under the configured claim key.
type JWTService struct {
	key            []byte
	validity       time.Duration
	separator      string
	authoritiesKey string
}

func NewJWTService(cfg config.TokenConfig) *JWTService {
	return &JWTService{
		key:            []byte(cfg.Key),
		validity:       cfg.Validity,
		separator:      cfg.Separator,
		authoritiesKey: cfg.AuthoritiesKey,
	}
}

func (s *JWTService) Generate(userID int64, email string, authorities []string) (string, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		"sub":            strconv.FormatInt(userID, 10) + s.separator + email,
		"iat":            jwt.NewNumericDate(now),
		"exp":            jwt.NewNumericDate(now.Add(s.validity)),
		s.authoritiesKey: strings.Join(authorities, s.separator),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	mapClaims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, mapClaims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf(msgUnexpectedSigningMethod, token.Header["alg"])
		}
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	if err != nil {
		return nil, classifyTokenError(err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("%w: %s", ErrTokenMalformed, msgInvalidTokenClaims)
	}

	return s.claimsFromToken(mapClaims)
}

// classifyTokenError maps golang-jwt parse failures onto the service's typed
// errors. Signature failures are reported as such even when the token is also
// expired; the library never exposes claims from an unverified payload.
func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrTokenSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}

func (s *JWTService) claimsFromToken(mapClaims jwt.MapClaims) (*Claims, error) {
	subject, err := mapClaims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenMalformed)
	}

	parts := strings.SplitN(subject, s.separator, subjectParts)
	if len(parts) != subjectParts {
		return nil, fmt.Errorf("%w: malformed subject", ErrTokenMalformed)
	}

	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: non-numeric subject id", ErrTokenMalformed)
	}

	rawAuthorities, ok := mapClaims[s.authoritiesKey].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing authorities claim", ErrTokenMalformed)
	}

	var authorities []string
	if rawAuthorities != "" {
		authorities = strings.Split(rawAuthorities, s.separator)
	}

	issuedAt, err := mapClaims.GetIssuedAt()
	if err != nil || issuedAt == nil {
		return nil, fmt.Errorf("%w: missing issued-at", ErrTokenMalformed)
	}

	expiresAt, err := mapClaims.GetExpirationTime()
	if err != nil || expiresAt == nil {
		return nil, fmt.Errorf("%w: missing expiry", ErrTokenMalformed)
	}

	return &Claims{
		UserID:      userID,
		Email:       parts[1],
		Authorities: authorities,
		IssuedAt:    issuedAt.Time,
		ExpiresAt:   expiresAt.Time,
	}, nil
}
