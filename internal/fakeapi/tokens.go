package fakeapi

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

type claims struct {
	jwt.RegisteredClaims
	Kind  string `json:"type"`
	Epoch int64  `json:"epoch"`
}

var (
	errWrongTokenKind = errors.New("wrong token type")
	errRevoked        = errors.New("token has been revoked")
)

// issueToken creates a signed HS256 JWT for userID.
func (s *Server) issueToken(userID int64, kind string) (string, error) {
	jti, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	ttl := s.accessTTL
	if kind == kindRefresh {
		ttl = s.refreshTTL
	}
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti.String(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Kind:  kind,
		Epoch: s.epoch.Load(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.key)
}

func (s *Server) issuePair(userID int64) (access, refresh string, err error) {
	if access, err = s.issueToken(userID, kindAccess); err != nil {
		return "", "", err
	}
	if refresh, err = s.issueToken(userID, kindRefresh); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// parseToken verifies tok and returns its subject.
func (s *Server) parseToken(tok, kind string) (int64, error) {
	var c claims
	_, err := jwt.ParseWithClaims(tok, &c, func(*jwt.Token) (any, error) {
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return 0, err
	}
	if c.Kind != kind {
		return 0, errWrongTokenKind
	}
	if c.Epoch != s.epoch.Load() {
		return 0, errRevoked
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad subject: %w", err)
	}
	return id, nil
}

// tokenMessage mirrors the wording of the production JWT layer.
func tokenMessage(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "Token has expired"
	case errors.Is(err, errRevoked):
		return "Token has been revoked"
	case errors.Is(err, errWrongTokenKind):
		return "Wrong token type"
	}
	return "Invalid token"
}
