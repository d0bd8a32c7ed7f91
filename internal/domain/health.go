package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// EngineMetrics is returned by GET /v1/metrics/engine.
type EngineMetrics struct {
	DashboardsBuilt int64   `json:"dashboardsBuilt"`
	Projections     int64   `json:"projections"`
	StalledPayoffs  int64   `json:"stalledPayoffs"`
	StoreErrors     int64   `json:"storeErrors"`
	CacheHitRate    float64 `json:"cacheHitRate"`
	AvgDashboardMs  float64 `json:"avgDashboardMs"`
	Period          string  `json:"period"`
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
