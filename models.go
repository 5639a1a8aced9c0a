package auth

import (
	"strings"
	"time"

	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is a verified account. Records only exist once the email owner
// confirmed the one time code.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Email         string    `bun:"email,notnull,unique" json:"email"`
	Username      string    `bun:"username,notnull,unique" json:"username"`
	PasswordHash  string    `bun:"password_hash,notnull" json:"-"`
	Role          UserRole  `bun:"user_role,notnull" json:"role"`
	IsVerified    bool      `bun:"is_verified,notnull" json:"isVerified"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// PendingUser is the candidate account carried inside the pending token
type PendingUser struct {
	Email        string   `json:"email"`
	Username     string   `json:"username"`
	PasswordHash string   `json:"password" mask:"filled"`
	Role         UserRole `json:"role"`
}

// ToUser builds the record persisted once the code is confirmed. The ID is
// derived from the email so a replayed verification collides on the primary
// key as well as on the unique columns.
func (p PendingUser) ToUser() (*User, error) {
	id, err := hashid.NewUUID(normalizeEmail(p.Email))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &User{
		ID:           id,
		Email:        normalizeEmail(p.Email),
		Username:     strings.TrimSpace(p.Username),
		PasswordHash: p.PasswordHash,
		Role:         p.Role,
		IsVerified:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
