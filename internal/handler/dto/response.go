package dto

import "github.com/AmonBrollo/FlashLingo/internal/domain"

// WorkerInfo describes one worker version.
type WorkerInfo struct {
	ID               string `json:"id"`
	Origin           string `json:"origin"`
	State            string `json:"state"`
	ManifestEntries  int    `json:"manifest_entries"`
	CoreShellEntries int    `json:"core_shell_entries"`
	Corrupted        bool   `json:"corrupted"`
}

// CacheInfo describes one named cache.
type CacheInfo struct {
	Name    string `json:"name"`
	Entries int    `json:"entries"`
}

// StatusResponse represents the response for GET /_worker/status.
type StatusResponse struct {
	Controller *WorkerInfo `json:"controller"`
	Waiting    *WorkerInfo `json:"waiting,omitempty"`
	Caches     []CacheInfo `json:"caches"`
}

// MessageResponse represents the response for POST /_worker/message.
type MessageResponse struct {
	WorkerID string `json:"worker_id"`
	Message  string `json:"message"`
}

// NewWorkerInfo converts a worker snapshot.
func NewWorkerInfo(s domain.WorkerStatus) *WorkerInfo {
	return &WorkerInfo{
		ID:               s.ID,
		Origin:           s.Origin,
		State:            string(s.State),
		ManifestEntries:  s.ManifestSize,
		CoreShellEntries: s.CoreShellSize,
		Corrupted:        s.Corrupted,
	}
}

// NewCacheInfos converts cache summaries.
func NewCacheInfos(summaries []domain.CacheSummary) []CacheInfo {
	out := make([]CacheInfo, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, CacheInfo{Name: s.Name, Entries: s.Entries})
	}
	return out
}
