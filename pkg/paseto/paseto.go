// Package pasetotoken issues and verifies PASETO v4 access tokens carrying a
// user id and role. Identities are owned by an external provider; this
// service only needs to trust the role a token asserts.
package pasetotoken

import (
	"errors"
	"fmt"
	"time"

	paseto "aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

const defaultAccessTTL = 15 * time.Minute

var (
	errNotYetValid = errors.New("token not yet valid")
	errVerifyOnly  = ErrConfig{Msg: "verify-only manager cannot issue tokens"}
)

type Config struct {
	Mode Mode

	Issuer   string
	Audience string

	AccessTTL time.Duration

	// Implicit is bound into every token without being transmitted.
	Implicit []byte
}

type Manager struct {
	cfg    Config
	parser paseto.Parser
	seal   func(tok *paseto.Token) (string, error)
	open   func(raw string) (*paseto.Token, error)
}

func New(cfg Config, keys Keys) (*Manager, error) {
	switch {
	case cfg.Mode != keys.Mode:
		return nil, ErrConfig{Msg: "config mode and key mode differ"}
	case cfg.Issuer == "":
		return nil, ErrConfig{Msg: "issuer is required"}
	case cfg.Audience == "":
		return nil, ErrConfig{Msg: "audience is required"}
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}

	m := &Manager{cfg: cfg, parser: paseto.NewParser()}
	m.parser.AddRule(paseto.IssuedBy(cfg.Issuer))
	m.parser.AddRule(paseto.ForAudience(cfg.Audience))
	m.parser.AddRule(paseto.NotExpired())

	switch keys.Mode {
	case ModeLocal:
		if keys.Symmetric == nil {
			return nil, ErrConfig{Msg: "missing symmetric key"}
		}
		k := *keys.Symmetric
		m.seal = func(tok *paseto.Token) (string, error) { return tok.V4Encrypt(k, cfg.Implicit), nil }
		m.open = func(raw string) (*paseto.Token, error) { return m.parser.ParseV4Local(k, raw, cfg.Implicit) }

	case ModePublic:
		if keys.Public == nil {
			return nil, ErrConfig{Msg: "missing public key"}
		}
		pk := *keys.Public
		m.open = func(raw string) (*paseto.Token, error) { return m.parser.ParseV4Public(pk, raw, cfg.Implicit) }
		m.seal = func(*paseto.Token) (string, error) { return "", errVerifyOnly }
		if keys.Secret != nil {
			sk := *keys.Secret
			m.seal = func(tok *paseto.Token) (string, error) { return tok.V4Sign(sk, cfg.Implicit), nil }
		}

	default:
		return nil, ErrConfig{Msg: fmt.Sprintf("unknown mode %q", keys.Mode)}
	}

	return m, nil
}

// IssueAccess mints an access token. ttl <= 0 uses the configured AccessTTL.
func (m *Manager) IssueAccess(userID uuid.UUID, role string, sessionID *uuid.UUID, ttl time.Duration) (string, error) {
	if role == "" {
		return "", ErrConfig{Msg: "role is required"}
	}
	if ttl <= 0 {
		ttl = m.cfg.AccessTTL
	}

	now := time.Now()
	tok := paseto.NewToken()
	tok.SetIssuer(m.cfg.Issuer)
	tok.SetAudience(m.cfg.Audience)
	tok.SetSubject(userID.String())
	tok.SetJti(uuid.NewString())
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(now.Add(ttl))

	tok.SetString(claimType, string(TokenTypeAccess))
	tok.SetString(claimUser, userID.String())
	tok.SetString(claimRole, role)
	if sessionID != nil {
		tok.SetString(claimSession, sessionID.String())
	}

	return m.seal(&tok)
}

// Verify checks signature or encryption, issuer, audience and validity
// window. Every rejection is an ErrInvalidToken.
func (m *Manager) Verify(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrInvalidToken{Err: errors.New("empty token")}
	}
	tok, err := m.open(raw)
	if err != nil {
		return nil, ErrInvalidToken{Err: err}
	}
	claims, err := readClaims(tok)
	if err != nil {
		return nil, ErrInvalidToken{Err: err}
	}
	return claims, nil
}

func readClaims(tok *paseto.Token) (*Claims, error) {
	var (
		c   Claims
		err error
	)
	if c.TokenID, err = tok.GetJti(); err != nil {
		return nil, err
	}
	if c.IssuedAt, err = tok.GetIssuedAt(); err != nil {
		return nil, err
	}
	if c.NotBefore, err = tok.GetNotBefore(); err != nil {
		return nil, err
	}
	if c.ExpiresAt, err = tok.GetExpiration(); err != nil {
		return nil, err
	}
	if time.Now().Before(c.NotBefore) {
		return nil, errNotYetValid
	}

	typ, err := tok.GetString(claimType)
	if err != nil {
		return nil, err
	}
	c.Type = TokenType(typ)

	uid, err := tok.GetString(claimUser)
	if err != nil {
		return nil, err
	}
	if c.UserID, err = uuid.Parse(uid); err != nil {
		return nil, fmt.Errorf("uid claim: %w", err)
	}

	if c.Role, err = tok.GetString(claimRole); err != nil {
		return nil, err
	}

	if sid, err := tok.GetString(claimSession); err == nil {
		id, err := uuid.Parse(sid)
		if err != nil {
			return nil, fmt.Errorf("sid claim: %w", err)
		}
		c.SessionID = &id
	}

	return &c, nil
}
