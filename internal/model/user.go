package model

import "time"

// Account roles. The role is stored on the auth row and embedded in every
// issued token's "role" claim.
const (
    RoleConsumer = "CONSUMER"
    RoleProvider = "PROVIDER"
    RoleAdmin    = "ADMIN"
)

// Account represents a row in the `auth` table. It holds the login
// credentials and the most recently issued token pair. Only the latest
// pair is valid: login and refresh overwrite both columns, which is what
// invalidates every previously issued token for the account.
//
// Fields:
//  ID           – primary key identifier.
//  Username     – unique login name (the user's email).
//  PasswordHash – bcrypt digest of the password.
//  Role         – CONSUMER, PROVIDER or ADMIN.
//  AccessToken  – last issued access token (empty after logout).
//  RefreshToken – last issued refresh token (empty after logout).
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Account struct {
    ID           uint64    // auth.id
    Username     string    // auth.username
    PasswordHash string    // auth.password
    Role         string    // auth.role
    AccessToken  string    // auth.access_token
    RefreshToken string    // auth.refresh_token
    CreatedAt    time.Time // auth.created_at
    UpdatedAt    time.Time // auth.updated_at
}

// Profile mirrors the `user_profile` table. Exactly one profile exists per
// account, created at registration. Latitude and longitude are stored as
// decimal strings exactly as submitted; they are parsed only when a distance
// has to be computed, and unparsable values exclude the user from
// distance-based results.
type Profile struct {
    UserID    uint64 `json:"user_id"`   // user_profile.user_id
    Name      string `json:"name"`      // user_profile.name
    Email     string `json:"email"`     // user_profile.email
    Phone     string `json:"phone"`     // user_profile.phone
    Age       uint32 `json:"age"`       // user_profile.age
    Gender    string `json:"gender"`    // user_profile.gender
    Address   string `json:"address"`   // user_profile.address
    Latitude  string `json:"latitude"`  // user_profile.latitude
    Longitude string `json:"longitude"` // user_profile.longitude
}
