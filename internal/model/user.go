package model

import "time"

// Role names accepted by the store. Registration always assigns RoleUser;
// RoleAdmin is only granted through the admin seed.
const (
    RoleUser  = "user"
    RoleAdmin = "admin"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r string) bool {
    return r == RoleUser || r == RoleAdmin
}

// User represents a row of the `users` table.
//
// Fields:
//  ID           – primary key, assigned by the store on insert.
//  Name         – display name, not unique.
//  Email        – unique email address, stored lower-cased.
//  PasswordHash – output of the password hasher, never the raw password.
//  Role         – "user" or "admin".
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Name         string    // users.name
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// Summary returns the public view of u without the password hash.
func (u User) Summary() UserSummary {
    return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// UserSummary is the shape returned to clients by register and /me.
type UserSummary struct {
    ID    uint64 `json:"id"`
    Name  string `json:"name"`
    Email string `json:"email"`
    Role  string `json:"role"`
}
