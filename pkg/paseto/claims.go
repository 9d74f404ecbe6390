package pasetotoken

import (
	"time"

	"github.com/google/uuid"
)

type TokenType string

const TokenTypeAccess TokenType = "access"

// custom claim keys
const (
	claimType    = "typ"
	claimUser    = "uid"
	claimRole    = "role"
	claimSession = "sid"
)

// Claims identify the caller: who they are and which role they act in.
type Claims struct {
	Type      TokenType
	UserID    uuid.UUID
	Role      string
	SessionID *uuid.UUID

	TokenID   string
	IssuedAt  time.Time
	NotBefore time.Time
	ExpiresAt time.Time
}

func (c *Claims) GetUserID() uuid.UUID     { return c.UserID }
func (c *Claims) GetRole() string          { return c.Role }
func (c *Claims) GetSessionID() *uuid.UUID { return c.SessionID }
func (c *Claims) IsExpired() bool          { return time.Now().After(c.ExpiresAt) }
