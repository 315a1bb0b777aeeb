package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"restaurant-api/internal/domain"
)

const (
	errAuthRequired = domain.ErrUnauthorized("Authentication required")
	errInvalidToken = domain.ErrUnauthorized("Invalid or expired token")
)

// AuthService verifies bearer tokens. With a JWT secret the token is checked locally (the hosted provider
// signs HS256 with that secret); otherwise it is handed to the provider's user endpoint.
type AuthService struct {
	JWTSecret string
	Provider  IdentityProvider
	Admin     UserAdmin
}

func (s *AuthService) Verify(ctx context.Context, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errAuthRequired
	}
	if s.JWTSecret != "" {
		return s.verifyLocal(token)
	}
	if s.Provider == nil {
		return nil, errInvalidToken
	}
	u, err := s.Provider.GetUser(ctx, token)
	if err != nil {
		var ua domain.ErrUnauthorized
		if errors.As(err, &ua) {
			return nil, errInvalidToken
		}
		return nil, err
	}
	if u == nil || u.ID == "" {
		return nil, errInvalidToken
	}
	return u, nil
}

func (s *AuthService) verifyLocal(token string) (*domain.User, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return []byte(s.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, errInvalidToken
	}
	m, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidToken
	}
	sub, _ := m["sub"].(string)
	if sub == "" {
		return nil, errInvalidToken
	}
	email, _ := m["email"].(string)
	meta, _ := m["user_metadata"].(map[string]any)
	return &domain.User{ID: sub, Email: email, Role: roleFromClaims(m), Metadata: meta}, nil
}

// roleFromClaims reads the application role from user_metadata, then app_metadata. The top-level
// "role" claim is the database role of the hosted provider and is ignored.
func roleFromClaims(m jwt.MapClaims) string {
	for _, key := range []string{"user_metadata", "app_metadata"} {
		meta, ok := m[key].(map[string]any)
		if !ok {
			continue
		}
		if r, ok := meta["role"].(string); ok && r != "" {
			return r
		}
	}
	return ""
}

// IssueToken mints a token shaped like the hosted provider's access tokens. Used for local development.
func (s *AuthService) IssueToken(u *domain.User, ttl time.Duration) (string, error) {
	if s.JWTSecret == "" {
		return "", errors.New("jwt secret is not configured")
	}
	now := time.Now()
	meta := make(map[string]any, len(u.Metadata)+1)
	for k, v := range u.Metadata {
		meta[k] = v
	}
	meta["role"] = u.Role
	claims := jwt.MapClaims{
		"sub":           u.ID,
		"email":         u.Email,
		"aud":           "authenticated",
		"role":          "authenticated",
		"user_metadata": meta,
		"iat":           now.Unix(),
		"exp":           now.Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.JWTSecret))
}

// CreateStaff registers a staff account with the identity provider. The role defaults to staff.
func (s *AuthService) CreateStaff(ctx context.Context, req domain.NewStaffUser) (*domain.User, error) {
	if s.Admin == nil {
		return nil, domain.ErrUnsupported("staff accounts can only be created with the hosted identity provider")
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		return nil, domain.ValidationError{Field: "email", Message: "email is required"}
	}
	switch req.Role {
	case "":
		req.Role = domain.RoleStaff
	case domain.RoleStaff, domain.RoleAdmin:
	default:
		return nil, domain.ValidationError{Field: "role", Message: "role must be admin or staff"}
	}
	return s.Admin.CreateUser(ctx, req)
}
