package model

import "time"

// Role names stored in usuarios.rol.
const (
    RoleAdmin   = "ADMIN"   // back-office staff
    RoleCliente = "CLIENTE" // registered customer
)

// User represents an application user record as stored in the
// `usuarios` table. Each field corresponds to a column in the
// database. The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// may define separate response types with appropriate JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  Nombre       – display name shown on orders and in the back office.
//  PasswordHash – bcrypt hashed password.
//  Role         – name of the role (ADMIN or CLIENTE).
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // usuarios.id
    Email        string    // usuarios.email
    Nombre       string    // usuarios.nombre
    PasswordHash string    // usuarios.password_hash
    Role         string    // usuarios.rol
    IsActive     bool      // usuarios.is_active
    CreatedAt    time.Time // usuarios.created_at
    UpdatedAt    time.Time // usuarios.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA‑256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA‑256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
