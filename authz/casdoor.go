package authz

import (
	"context"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/golang-jwt/jwt/v5"

	"github.com/firefly-oss/lib-common-domain/cqrs"
	"github.com/firefly-oss/lib-common-domain/internal/slicesx"
)

// CasdoorConnection is a hub that deals with Casdoor IAM client connections:
// a lazy singleton that connects on first use.
type CasdoorConnection struct {
	Conf      *casdoorsdk.AuthConfig
	Client    *casdoorsdk.Client
	Connected bool
}

// Connect initializes the Casdoor client from Conf.
func (cc *CasdoorConnection) Connect() *casdoorsdk.Client {
	cc.Client = casdoorsdk.NewClientWithConf(cc.Conf)
	cc.Connected = true

	return cc.Client
}

// GetClient returns the Casdoor client, connecting lazily if necessary.
func (cc *CasdoorConnection) GetClient() *casdoorsdk.Client {
	if cc.Client == nil {
		cc.Connect()
	}

	return cc.Client
}

// Identity is the role/scope/group shape extracted from a Casdoor-issued
// JWT, kept free of any HTTP-layer dependency so the bus can authorize
// without importing a request/response package.
type Identity struct {
	Subject string
	Groups  []string
	Scope   string
	ScopeSet map[string]bool
}

// ParseIdentity extracts an Identity from a parsed JWT's claims (sub,
// groups, scope).
func ParseIdentity(token *jwt.Token) (Identity, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, jwt.ErrTokenInvalidClaims
	}

	id := Identity{}

	if sub, ok := claims["sub"].(string); ok {
		id.Subject = sub
	}

	if scope, ok := claims["scope"].(string); ok {
		id.Scope = scope
		id.ScopeSet = map[string]bool{}

		for _, s := range strings.Split(scope, " ") {
			id.ScopeSet[s] = true
		}
	}

	if groups, ok := claims["groups"].([]any); ok {
		id.Groups = make([]string, 0, len(groups))

		for _, g := range groups {
			if s, ok := g.(string); ok {
				id.Groups = append(id.Groups, s)
			}
		}
	}

	return id, nil
}

// identityKey is the context.Context key the caller's Identity is stored
// under, the way context.go propagates correlation and execution context.
type identityKey struct{}

// IntoContext attaches id to ctx.
func IntoContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext reads the Identity attached by IntoContext, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// CasdoorAuthorizer implements StandardAuthorizer against the Identity
// attached to ctx and the payload's declared roles/scopes (authz.Declarative).
// A payload that declares no requirements passes trivially.
type CasdoorAuthorizer struct{}

func (CasdoorAuthorizer) Authorize(ctx context.Context, _ string, payload any) cqrs.AuthorizationResult {
	decl, ok := payload.(Declarative)
	if !ok {
		return cqrs.AuthorizationResult{Authorized: true}
	}

	roles := decl.RequiredRoles()
	scopes := decl.RequiredScopes()

	if len(roles) == 0 && len(scopes) == 0 {
		return cqrs.AuthorizationResult{Authorized: true}
	}

	id, ok := FromContext(ctx)
	if !ok {
		return cqrs.AuthorizationResult{
			Authorized: false,
			Violations: []cqrs.Violation{{Source: "standard", Reason: "no identity in context"}},
		}
	}

	var violations []cqrs.Violation

	for _, role := range roles {
		if !slicesx.Contains(id.Groups, role) {
			violations = append(violations, cqrs.Violation{Source: "standard", Reason: "missing role: " + role})
		}
	}

	for _, scope := range scopes {
		if !id.ScopeSet[scope] {
			violations = append(violations, cqrs.Violation{Source: "standard", Reason: "missing scope: " + scope})
		}
	}

	return cqrs.AuthorizationResult{Authorized: len(violations) == 0, Violations: violations}
}
