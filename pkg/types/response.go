package types

import "time"

// SuccessEnvelope wraps successful API payloads.
type SuccessEnvelope struct {
	Success bool          `json:"success"`
	Data    any           `json:"data"`
	Meta    *ResponseMeta `json:"meta,omitempty"`
}

// ResponseMeta carries request-scoped metadata alongside availability payloads.
type ResponseMeta struct {
	Timestamp  time.Time  `json:"timestamp"`
	DurationMS int64      `json:"duration_ms"`
	Cached     *bool      `json:"cached,omitempty"`
	Count      *int       `json:"count,omitempty"`
	CacheStats *CacheMeta `json:"cache_stats,omitempty"`
}

// CacheMeta mirrors the availability cache observability surface.
type CacheMeta struct {
	Size    int    `json:"size"`
	Version uint64 `json:"version"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Success bool     `json:"success"`
	Error   APIError `json:"error"`
}
