// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/pdiddy/citeref/internal/metrics"
)

// Tier claim values.
const (
	TierFree = "free"
	TierPro  = "pro"
)

// Claims are the bearer token claims. Subject is the user ID.
type Claims struct {
	jwt.RegisteredClaims
	Tier string `json:"tier"`
}

// JWTOracle authenticates HS256 bearer tokens and meters free-tier users in
// a Ledger.
type JWTOracle struct {
	signingKey []byte
	ledger     *Ledger
	logger     *zap.Logger
}

// NewJWTOracle returns an oracle that validates tokens signed with secret.
func NewJWTOracle(secret string, ledger *Ledger, logger *zap.Logger) *JWTOracle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JWTOracle{signingKey: []byte(secret), ledger: ledger, logger: logger}
}

// Authenticate validates the bearer token, opens the user's account on
// first sight, and refuses free-tier users with no credits left.
func (o *JWTOracle) Authenticate(r *http.Request) (*Session, error) {
	raw, ok := bearerToken(r)
	if !ok {
		return nil, unauthorized("Missing authorization token", nil)
	}

	claims, err := o.parse(raw)
	if err != nil {
		return nil, unauthorized("Invalid authorization token", err)
	}
	if claims.Subject == "" {
		return nil, unauthorized("Invalid authorization token", errors.New("missing subject"))
	}

	acct, err := o.ledger.Ensure(r.Context(), claims.Subject, claims.Tier != TierPro)
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}
	sess := &Session{
		UserID:     acct.UserID,
		IsFreeTier: acct.FreeTier,
		CustomKey:  acct.CustomKey,
	}
	if sess.Metered() && acct.Credits <= 0 {
		return nil, forbidden("No credits remaining. Upgrade or add your own API key to continue.")
	}
	return sess, nil
}

// DeductCredit removes one credit and returns the new balance.
func (o *JWTOracle) DeductCredit(ctx context.Context, userID string) (int, error) {
	remaining, err := o.ledger.Deduct(ctx, userID)
	if errors.Is(err, ErrNoCredits) {
		return 0, forbidden("No credits remaining")
	}
	if err != nil {
		return 0, err
	}
	metrics.CreditsDeducted.Inc()
	o.logger.Debug("credit deducted", zap.String("user_id", userID), zap.Int("remaining", remaining))
	return remaining, nil
}

func (o *JWTOracle) parse(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return o.signingKey, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// SignToken issues an HS256 token for userID. It is used by the CLI and
// tests; production tokens come from the identity provider.
func SignToken(secret, userID, tier string) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID},
		Tier:             tier,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
