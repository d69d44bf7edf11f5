package accounts

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// ActionTokenClaims carries the verified content of an action token.
type ActionTokenClaims struct {
	jwt.RegisteredClaims
	Purpose     string `json:"purpose"`
	Fingerprint string `json:"fpr,omitempty"`
}

// Payload returns the payload the token was issued for, an email address.
func (c *ActionTokenClaims) Payload() string {
	return c.RegisteredClaims.Subject
}

// IssueOption mutates the claims of a token about to be issued.
type IssueOption func(*ActionTokenClaims)

// WithIssuedAt overrides the issuance time. Zero uses the service clock.
func WithIssuedAt(issuedAt time.Time) IssueOption {
	return func(c *ActionTokenClaims) {
		if !issuedAt.IsZero() {
			c.RegisteredClaims.IssuedAt = jwt.NewNumericDate(issuedAt)
		}
	}
}

// WithFingerprint binds the token to a value derived from server-side state.
// Verification callers compare it against the current state so that a state
// change invalidates every outstanding token, e.g. reset tokens bound to the
// account's password hash.
func WithFingerprint(fingerprint string) IssueOption {
	return func(c *ActionTokenClaims) {
		c.Fingerprint = fingerprint
	}
}

// ActionTokenServiceImpl implements ActionTokenService over HS256 JWTs. The
// token embeds issuance time but no expiry; each consuming operation enforces
// its own maximum age at verification.
type ActionTokenServiceImpl struct {
	signingKey []byte
	issuer     string
	logger     Logger
	now        func() time.Time
}

// NewActionTokenService creates a new ActionTokenService instance
func NewActionTokenService(signingKey []byte, issuer string, logger Logger) *ActionTokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}
	return &ActionTokenServiceImpl{
		signingKey: signingKey,
		issuer:     issuer,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the service clock, used by tests to age tokens.
func (ts *ActionTokenServiceImpl) WithClock(now func() time.Time) *ActionTokenServiceImpl {
	if now != nil {
		ts.now = now
	}
	return ts
}

// Issue binds payload, purpose, and issuance time into a signed token.
// It has no side effects beyond computation.
func (ts *ActionTokenServiceImpl) Issue(payload, purpose string, opts ...IssueOption) (string, error) {
	if payload == "" || purpose == "" {
		return "", errors.New("action token payload and purpose are required", errors.CategoryBadInput)
	}

	claims := &ActionTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   ts.issuer,
			Subject:  payload,
			IssuedAt: jwt.NewNumericDate(ts.now()),
		},
		Purpose: purpose,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(claims)
		}
	}

	ensureTokenID(&claims.RegisteredClaims)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign action token")
	}

	return signedString, nil
}

// Verify checks the token signature, purpose tag, and age. Every failure mode
// surfaces as ErrInvalidOrExpiredToken so callers cannot tell a forged token
// from an expired one.
func (ts *ActionTokenServiceImpl) Verify(tokenString, purpose string, maxAge time.Duration) (*ActionTokenClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &ActionTokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method", errors.CategoryAuth)
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		ts.logger.Debug("action token parse failed", "error", err)
		return nil, ErrInvalidOrExpiredToken
	}

	claims, ok := token.Claims.(*ActionTokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidOrExpiredToken
	}

	if claims.Purpose != purpose {
		return nil, ErrInvalidOrExpiredToken
	}

	if claims.RegisteredClaims.IssuedAt == nil {
		return nil, ErrInvalidOrExpiredToken
	}

	if ts.now().Sub(claims.RegisteredClaims.IssuedAt.Time) > maxAge {
		return nil, ErrInvalidOrExpiredToken
	}

	return claims, nil
}

// PasswordFingerprint derives a short stable fingerprint from a password
// hash. Reset tokens carry it so that changing the password invalidates any
// outstanding reset token.
func PasswordFingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}

var _ ActionTokenService = (*ActionTokenServiceImpl)(nil)
