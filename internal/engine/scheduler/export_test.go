package scheduler

import "go.trai.ch/nixplan/internal/core/domain"

// GetStatusMap returns a copy of the internal job status map.
// This is exported for testing purposes only.
func (s *Scheduler) GetStatusMap() map[domain.PackageID]FetchStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statusMap := make(map[domain.PackageID]FetchStatus, len(s.status))
	for k, v := range s.status {
		statusMap[k] = v
	}
	return statusMap
}
