package testutil

import (
	domainauth "github.com/cvboard/admin/internal/domain/auth"
)

// UserBuilder provides a fluent interface for building profile summaries for testing.
type UserBuilder struct {
	user domainauth.User
}

// NewUser creates a UserBuilder with sensible defaults.
func NewUser() *UserBuilder {
	return &UserBuilder{
		user: domainauth.User{
			ID:        "1",
			Email:     "ada@example.com",
			FirstName: ptr("Ada"),
			LastName:  ptr("Lovelace"),
			FullName:  ptr("Ada Lovelace"),
		},
	}
}

// WithID sets the user id.
func (b *UserBuilder) WithID(id string) *UserBuilder {
	b.user.ID = id
	return b
}

// WithEmail sets the email.
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.user.Email = email
	return b
}

// WithAvatar sets the avatar URL.
func (b *UserBuilder) WithAvatar(url string) *UserBuilder {
	b.user.Avatar = ptr(url)
	return b
}

// Build returns the constructed user.
func (b *UserBuilder) Build() domainauth.User {
	return b.user
}

func ptr(s string) *string { return &s }
