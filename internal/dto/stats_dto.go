package dto

// StatsSnapshot is the complete set of admin dashboard counters. Every
// snapshot is self-contained, so receivers replace rather than merge.
type StatsSnapshot struct {
	Users         int64 `json:"users"`
	Files         int64 `json:"files"`
	Charts        int64 `json:"charts"`
	Logs          int64 `json:"logs"`
	TodaysUploads int64 `json:"todaysUploads"`
	TodaysLogs    int64 `json:"todaysLogs"`
}

// Consistent reports whether the snapshot satisfies the counter invariants.
func (s StatsSnapshot) Consistent() bool {
	return s.Charts <= s.Files && s.TodaysUploads <= s.Files && s.TodaysLogs <= s.Logs
}

// StatsUpdatePayload is the body of a stats-update event.
type StatsUpdatePayload struct {
	Data StatsSnapshot `json:"data"`
}

// LegacyLogStatsResponse is served by /api/admin/logs/stats.
type LegacyLogStatsResponse struct {
	TodayLogs    int64 `json:"todayLogs"`
	TotalLogs    int64 `json:"totalLogs"`
	TodayUploads int64 `json:"todayUploads"`
	TotalUploads int64 `json:"totalUploads"`
}
