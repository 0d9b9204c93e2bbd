package domain

import "context"

// User carries the authenticated caller's presentable profile. It is
// attached to the request context by the auth middleware and copied
// into published events so subscribers never need a secondary lookup.
type User struct {
	ID            int64   `bson:"_id" json:"id,string"`
	Username      string  `bson:"username" json:"username"`
	Discriminator string  `bson:"discriminator" json:"discriminator"`
	GlobalName    *string `bson:"global_name,omitempty" json:"global_name,omitempty"`
	Avatar        *string `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Bot           bool    `bson:"bot" json:"bot"`
	System        bool    `bson:"system" json:"system"`
	Presence      string  `bson:"presence" json:"presence"`
}

// UserRepository is the boundary to the auth collaborator: it resolves
// an opaque credential into the caller's profile.
type UserRepository interface {
	GetByToken(ctx context.Context, token string) (*User, error)
}

// DisplayName prefers the global display name over the username.
func (u *User) DisplayName() string {
	if u.GlobalName != nil && *u.GlobalName != "" {
		return *u.GlobalName
	}
	return u.Username
}
