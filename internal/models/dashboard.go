package models

import "time"

// DashboardStats summarises the cached collections of a session.
type DashboardStats struct {
	Staff           int `json:"staff"`
	Projects        int `json:"projects"`
	Tasks           int `json:"tasks"`
	TasksInProgress int `json:"tasks_in_progress"`
	TasksDone       int `json:"tasks_done"`
	Timesheets      int `json:"timesheets"`
	Mails           int `json:"mails"`
	Messages        int `json:"messages"`
	// CompletionRate is done / total tasks as a rounded percentage.
	CompletionRate int `json:"completion_rate"`

	Users       int `json:"users"`
	ActiveUsers int `json:"active_users"`
	Superusers  int `json:"superusers"`

	// Failed lists collections that could not be loaded.
	Failed []string `json:"failed,omitempty"`
}

// SystemMetrics is a lightweight view over the Prometheus collectors.
type SystemMetrics struct {
	CacheHitRatio             float64   `json:"cache_hit_ratio"`
	CacheHits                 uint64    `json:"cache_hits"`
	CacheMisses               uint64    `json:"cache_misses"`
	RequestsTotal             uint64    `json:"requests_total"`
	AverageRequestDurationMs  float64   `json:"average_request_duration_ms"`
	UpstreamCalls             uint64    `json:"upstream_calls"`
	AverageUpstreamDurationMs float64   `json:"average_upstream_duration_ms"`
	DanglingReferences        uint64    `json:"dangling_references"`
	ActiveSessions            int       `json:"active_sessions"`
	GeneratedAt               time.Time `json:"generated_at"`
}

// Dashboard is the landing page of a session.
type Dashboard struct {
	Stats DashboardStats `json:"stats"`
	// RecentProjects is the first five projects as the API lists them.
	RecentProjects []Project `json:"recent_projects"`
	Admin          bool      `json:"admin"`
}
