package cqrs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/firefly-oss/lib-common-domain/cache"
	"github.com/firefly-oss/lib-common-domain/cerrors"
	"github.com/firefly-oss/lib-common-domain/constant"
	"github.com/firefly-oss/lib-common-domain/correlation"
	"github.com/firefly-oss/lib-common-domain/metrics"
)

// QueryBus dispatches a Query[R] through the same pipeline as CommandBus
// plus a cache lookup before handler invocation. Queries never emit domain
// events.
type QueryBus struct {
	Registry   *HandlerRegistry
	Validator  *ValidationProcessor
	Authorizer Authorizer
	Metrics    metrics.Registry
	Cache      cache.Cache
}

// NewQueryBus wires the five collaborators into a QueryBus.
func NewQueryBus(registry *HandlerRegistry, validator *ValidationProcessor, authorizer Authorizer, metricsRegistry metrics.Registry, c cache.Cache) *QueryBus {
	return &QueryBus{Registry: registry, Validator: validator, Authorizer: authorizer, Metrics: metricsRegistry, Cache: c}
}

// Query runs the full query pipeline: validate, authorize, cache lookup on
// hit return, else invoke the handler and populate cache on success. Errors
// are never cached. The effective handler timeout is
// min(handler descriptor timeout, qry.TimeoutOverride); the effective cache
// TTL is qry.CacheTTL if set, else the handler descriptor's CacheTTL, else a
// 30s fallback.
func Query[R any](ctx context.Context, bus *QueryBus, qry Query[R]) (R, error) {
	var zero R

	handler, ok := LookupQueryHandler[R](bus.Registry, qry.Type)
	if !ok {
		return zero, cerrors.HandlerNotFound{MessageType: qry.Type}
	}

	if result := bus.Validator.Process(qry.Payload); !result.Valid {
		return zero, cerrors.ValidationFailed{Errors: toFieldErrors(result.Errors)}
	}

	if bus.Authorizer != nil {
		if authResult := bus.Authorizer.Authorize(ctx, qry.Type, qry.Payload); !authResult.Authorized {
			return zero, cerrors.AuthorizationDenied{Violations: toViolations(authResult.Violations)}
		}
	}

	descriptor, _ := bus.Registry.LookupDescriptor(qry.Type)

	if qry.CorrelationID == "" {
		qry.CorrelationID = correlation.ID(ctx)
	}

	tags := map[string]string{constant.TagType: qry.Type}

	cacheable := qry.Cacheable || descriptor.Cacheable

	cacheKey := qry.CacheKey
	if cacheable && cacheKey == "" {
		cacheKey = StableCacheKey(qry.Type, qry.Payload)
	}

	if cacheable && bus.Cache != nil {
		if cached, found, err := bus.Cache.Get(ctx, cacheKey); err == nil && found {
			bus.emitCounter(constant.MetricQueryCacheHit, tags)

			var value R
			if unmarshalErr := json.Unmarshal(cached, &value); unmarshalErr == nil {
				return value, nil
			}
		}

		bus.emitCounter(constant.MetricQueryCacheMiss, tags)
	}

	timer := bus.timer(constant.MetricQueryDuration, tags)
	start := time.Now()

	deadlineCtx, cancel := withEffectiveTimeout(ctx, descriptor.Timeout, qry.TimeoutOverride)
	defer cancel()

	result, err := handler.Handle(deadlineCtx, qry)

	timer.Observe(time.Since(start))
	bus.emitSentTotal(constant.MetricQuerySentTotal, tags, err)

	if err != nil {
		return zero, classifyHandlerErr(qry.Type, deadlineCtx, err)
	}

	if cacheable && bus.Cache != nil {
		ttl := qry.CacheTTL
		if ttl <= 0 {
			ttl = descriptor.CacheTTL
		}

		if ttl <= 0 {
			ttl = 30 * time.Second
		}

		if encoded, marshalErr := json.Marshal(result); marshalErr == nil {
			_ = bus.Cache.Put(ctx, cacheKey, encoded, ttl)
		}
	}

	return result, nil
}

// StableCacheKey computes the default cacheKey: type name plus a stable
// hash of the payload fields.
func StableCacheKey(messageType string, payload any) string {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return messageType
	}

	sum := sha256.Sum256(encoded)

	return fmt.Sprintf("%s:%s", messageType, hex.EncodeToString(sum[:]))
}

func (b *QueryBus) timer(name string, tags map[string]string) metrics.Timer {
	if b.Metrics == nil {
		return noopTimer{}
	}

	return b.Metrics.Timer(name, tags)
}

func (b *QueryBus) emitCounter(name string, tags map[string]string) {
	if b.Metrics == nil {
		return
	}

	b.Metrics.Counter(name, tags).Inc()
}

func (b *QueryBus) emitSentTotal(name string, tags map[string]string, err error) {
	if b.Metrics == nil {
		return
	}

	withResult := map[string]string{}
	for k, v := range tags {
		withResult[k] = v
	}

	if err != nil {
		withResult[constant.TagResult] = constant.ResultFailure
	} else {
		withResult[constant.TagResult] = constant.ResultSuccess
	}

	b.Metrics.Counter(name, withResult).Inc()
}
