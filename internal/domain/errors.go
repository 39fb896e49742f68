package domain

import "errors"

// Domain-specific errors for cache and worker operations.
var (
	// Manifest errors
	ErrInvalidManifest   = errors.New("invalid manifest")
	ErrManifestNotFound  = errors.New("manifest not found")
	ErrCoreNotInManifest = errors.New("core shell entry not in manifest")

	// Cache errors
	ErrCacheMiss       = errors.New("cache miss")
	ErrInvalidCacheKey = errors.New("invalid cache key")

	// Worker errors
	ErrPassThrough    = errors.New("request not managed by worker")
	ErrInstallFailed  = errors.New("install failed")
	ErrNoController   = errors.New("no active worker")
	ErrUnknownMessage = errors.New("unknown control message")
	ErrWorkerState    = errors.New("invalid worker state")
)
