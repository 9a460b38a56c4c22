package utils // package utils provides token, hashing and formatting helpers

import (
    "errors"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
    "github.com/google/uuid"       // random jti so no two tokens are ever equal
)

// Sentinel verification failures. Handlers map these onto 401 responses with
// distinct error codes; anything that is not an expiry or a not-before
// violation collapses into ErrTokenInvalid so callers cannot probe why a
// token was rejected.
var (
    ErrTokenInvalid   = errors.New("invalid token")
    ErrTokenExpired   = errors.New("token expired")
    ErrTokenNotActive = errors.New("token not active yet")
)

// VerifyLeeway is the clock-skew tolerance applied to exp/nbf/iat checks.
const VerifyLeeway = 5 * time.Second

// Claims is the payload carried by both access and refresh tokens. The
// account id travels as the registered subject; Role mirrors auth.role at
// issue time. The jti is a random UUID so that two tokens issued within the
// same second for the same account still differ.
type Claims struct {
    Role string `json:"role"`
    jwt.RegisteredClaims
}

// AccountID parses the subject claim back into the numeric account id.
func (c *Claims) AccountID() (uint64, error) {
    id, err := strconv.ParseUint(c.Subject, 10, 64)
    if err != nil {
        return 0, ErrTokenInvalid
    }
    return id, nil
}

// SignToken builds and signs an HS256 JWT for an account. Access and refresh
// tokens use the same shape but different secrets and ttl classes; the caller
// decides which pair it is minting.
func SignToken(accountID uint64, role, secret, issuer, audience string, ttl time.Duration) (string, error) {
    now := time.Now().UTC()
    claims := Claims{
        Role: role,
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   strconv.FormatUint(accountID, 10),
            Issuer:    issuer,
            Audience:  jwt.ClaimStrings{audience},
            IssuedAt:  jwt.NewNumericDate(now),
            ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
            ID:        uuid.NewString(),
        },
    }
    return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyToken parses and validates a token against the given secret, issuer
// and audience. The signing method is pinned to HMAC to block algorithm
// confusion. Expired and not-yet-valid tokens are reported separately; every
// other failure (bad signature, wrong issuer or audience, malformed shape)
// is ErrTokenInvalid.
func VerifyToken(raw, secret, issuer, audience string) (*Claims, error) {
    tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrTokenInvalid
        }
        return []byte(secret), nil
    },
        jwt.WithLeeway(VerifyLeeway),
        jwt.WithIssuer(issuer),
        jwt.WithAudience(audience),
        jwt.WithIssuedAt(),
    )
    if err != nil {
        switch {
        case errors.Is(err, jwt.ErrTokenExpired):
            return nil, ErrTokenExpired
        case errors.Is(err, jwt.ErrTokenNotValidYet):
            return nil, ErrTokenNotActive
        default:
            return nil, ErrTokenInvalid
        }
    }
    claims, ok := tok.Claims.(*Claims)
    if !ok || !tok.Valid {
        return nil, ErrTokenInvalid
    }
    return claims, nil
}
