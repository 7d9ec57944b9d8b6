package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/oncology-insights-server/internal/domain"
	"github.com/oncology-insights-server/internal/metrics"
)

// breakerName identifies the cBioPortal breaker in logs and metrics
const breakerName = "cbioportal"

// ResilientCBioPortalClient wraps the cBioPortal client with a circuit breaker and a response cache
type ResilientCBioPortalClient struct {
	client   CBioPortalAPI
	cache    ResponseCache
	cacheTTL time.Duration
	breaker  *gobreaker.CircuitBreaker
	logger   *logrus.Logger
	metrics  *metrics.Manager
}

// ResilientOption configures a ResilientCBioPortalClient
type ResilientOption func(*ResilientCBioPortalClient)

// WithCache sets the response cache. Without one every call goes upstream.
func WithCache(cache ResponseCache, ttl time.Duration) ResilientOption {
	return func(r *ResilientCBioPortalClient) {
		r.cache = cache
		r.cacheTTL = ttl
	}
}

// WithLogger sets the logger
func WithLogger(logger *logrus.Logger) ResilientOption {
	return func(r *ResilientCBioPortalClient) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics sets the metrics manager
func WithMetrics(m *metrics.Manager) ResilientOption {
	return func(r *ResilientCBioPortalClient) {
		r.metrics = m
	}
}

// NewResilientCBioPortalClient creates a new resilient client around client
func NewResilientCBioPortalClient(client CBioPortalAPI, config domain.CBioPortalConfig, opts ...ResilientOption) *ResilientCBioPortalClient {
	r := &ResilientCBioPortalClient{
		client: client,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}

	timeout := config.BreakerTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	threshold := config.BreakerThreshold
	if threshold == 0 {
		threshold = 3
	}

	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= threshold && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// 4xx answers mean the upstream is healthy
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				return statusErr.StatusCode < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			r.logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
			r.metrics.SetBreakerState(name, int(to))
		},
	})

	return r
}

// BreakerState returns the current circuit breaker state
func (r *ResilientCBioPortalClient) BreakerState() gobreaker.State {
	return r.breaker.State()
}

// GetCancerTypes fetches the cancer type catalogue
func (r *ResilientCBioPortalClient) GetCancerTypes(ctx context.Context) ([]CancerType, error) {
	return fetch(ctx, r, "cancer-types", "cancer-types", func() ([]CancerType, error) {
		return r.client.GetCancerTypes(ctx)
	})
}

// GetStudies fetches up to pageSize studies
func (r *ResilientCBioPortalClient) GetStudies(ctx context.Context, pageSize int) ([]Study, error) {
	if pageSize <= 0 {
		pageSize = DefaultStudyPageSize
	}
	return fetch(ctx, r, "studies", "studies:"+strconv.Itoa(pageSize), func() ([]Study, error) {
		return r.client.GetStudies(ctx, pageSize)
	})
}

// GetClinicalData fetches the clinical attributes of a study
func (r *ResilientCBioPortalClient) GetClinicalData(ctx context.Context, studyID string, dataType domain.ClinicalDataType) ([]ClinicalData, error) {
	if dataType == "" {
		dataType = domain.ClinicalDataPatient
	}
	key := fmt.Sprintf("clinical-data:%s:%s", studyID, dataType)
	return fetch(ctx, r, "clinical-data", key, func() ([]ClinicalData, error) {
		return r.client.GetClinicalData(ctx, studyID, dataType)
	})
}

// GetPatients fetches the patients of a study
func (r *ResilientCBioPortalClient) GetPatients(ctx context.Context, studyID string) ([]StudyPatient, error) {
	return fetch(ctx, r, "patients", "patients:"+studyID, func() ([]StudyPatient, error) {
		return r.client.GetPatients(ctx, studyID)
	})
}

// fetch serves key from the cache, or calls upstream through the breaker and caches the result
func fetch[T any](ctx context.Context, r *ResilientCBioPortalClient, endpoint, key string, call func() (T, error)) (T, error) {
	var zero T

	if r.cache != nil {
		data, found, err := r.cache.Get(ctx, key)
		if err != nil {
			r.logger.WithFields(logrus.Fields{
				"key":   key,
				"error": err,
			}).Warn("Cache read failed")
		}
		if found {
			var cached T
			if err := json.Unmarshal(data, &cached); err == nil {
				r.metrics.RecordCacheLookup(true)
				return cached, nil
			}
		}
		r.metrics.RecordCacheLookup(false)
	}

	start := time.Now()
	result, err := r.breaker.Execute(func() (interface{}, error) {
		return call()
	})
	r.metrics.RecordExternalRequest(endpoint, err, time.Since(start))
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("cBioPortal circuit breaker open: %w", err)
		}
		return zero, fmt.Errorf("cBioPortal %s request failed: %w", endpoint, err)
	}

	value := result.(T)
	if r.cache != nil {
		if data, err := json.Marshal(value); err == nil {
			if err := r.cache.Set(ctx, key, data, r.cacheTTL); err != nil {
				r.logger.WithFields(logrus.Fields{
					"key":   key,
					"error": err,
				}).Warn("Cache write failed")
			}
		}
	}

	return value, nil
}
