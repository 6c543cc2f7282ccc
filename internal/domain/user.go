package domain

import "time"

// User represents a registered account of the inventory backend.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserUpdate carries a partial change; nil fields are left untouched.
type UserUpdate struct {
	Name     *string
	Email    *string
	Password *string
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil && u.Password == nil
}

// UserPage is one page of a user listing.
type UserPage struct {
	Users []User
	Total int
	Page  int
	Size  int
}
