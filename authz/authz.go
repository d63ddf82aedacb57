// Package authz composes a standard authorizer (role/scope/ownership
// metadata) with a per-message custom authorizer under a configurable
// combination policy, defaulting to the zero-trust Require-both mode.
package authz

import (
	"context"

	"github.com/firefly-oss/lib-common-domain/config"
	"github.com/firefly-oss/lib-common-domain/cqrs"
)

// StandardAuthorizer inspects declarative role/scope/ownership metadata on
// a message class. A message that declares no requirements passes.
type StandardAuthorizer interface {
	Authorize(ctx context.Context, messageType string, payload any) cqrs.AuthorizationResult
}

// Declarative is the optional metadata hook a payload may implement to
// declare its required roles and scopes. It carries no ownership or
// expression requirement. A payload with no Declarative implementation
// passes standard authorization trivially.
type Declarative interface {
	RequiredRoles() []string
	RequiredScopes() []string
}

// CustomAuthorizable is the optional per-message authorizer hook. Default
// (not implemented) is success.
type CustomAuthorizable interface {
	Authorize(ctx context.Context) cqrs.AuthorizationResult
}

// ModeResolver returns the combination mode for a message type, or ok=false
// to fall back to the service's global default.
type ModeResolver func(messageType string) (config.AuthorizationMode, bool)

// Service composes a StandardAuthorizer with the per-message custom hook
// under a configurable combination mode.
type Service struct {
	Standard     StandardAuthorizer
	DefaultMode  config.AuthorizationMode
	ModeFor      ModeResolver
	GloballyOn   bool
}

// NewService builds a Service with the zero-trust default (enabled,
// Require-both) unless overridden on the returned value.
func NewService(standard StandardAuthorizer) *Service {
	return &Service{
		Standard:    standard,
		DefaultMode: config.AuthModeRequireBoth,
		GloballyOn:  true,
	}
}

// Authorize runs the standard and/or custom authorizer for messageType and
// payload per the configured combination mode.
func (s *Service) Authorize(ctx context.Context, messageType string, payload any) cqrs.AuthorizationResult {
	if !s.GloballyOn {
		return cqrs.AuthorizationResult{Authorized: true}
	}

	mode := s.DefaultMode
	if s.ModeFor != nil {
		if m, ok := s.ModeFor(messageType); ok {
			mode = m
		}
	}

	switch mode {
	case config.AuthModeStandardOnly:
		return s.standardResult(ctx, messageType, payload)
	case config.AuthModeCustomOnly:
		return s.customResult(ctx, payload)
	case config.AuthModeOverride:
		std := s.standardResult(ctx, messageType, payload)
		cust := s.customResult(ctx, payload)

		if !std.Authorized && cust.Authorized {
			return cqrs.AuthorizationResult{Authorized: true}
		}

		return std.Combine(cust)
	case config.AuthModeRequireBoth:
		fallthrough
	default:
		return s.standardResult(ctx, messageType, payload).Combine(s.customResult(ctx, payload))
	}
}

func (s *Service) standardResult(ctx context.Context, messageType string, payload any) cqrs.AuthorizationResult {
	if s.Standard == nil {
		return cqrs.AuthorizationResult{Authorized: true}
	}

	return s.Standard.Authorize(ctx, messageType, payload)
}

func (s *Service) customResult(ctx context.Context, payload any) cqrs.AuthorizationResult {
	custom, ok := payload.(CustomAuthorizable)
	if !ok {
		return cqrs.AuthorizationResult{Authorized: true}
	}

	return custom.Authorize(ctx)
}
