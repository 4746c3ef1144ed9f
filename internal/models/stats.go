package models

// HostStats holds a snapshot of the machine the server runs on.
type HostStats struct {
	CPUPercent    float64 `json:"cpuPercent"`
	MemoryPercent float64 `json:"memoryPercent"`
	MemoryUsedMB  uint64  `json:"memoryUsedMb"`
	UptimeSeconds uint64  `json:"uptimeSeconds"`
}

// DashboardStats aggregates counters for the stats endpoint.
type DashboardStats struct {
	TotalEvents      int        `json:"totalEvents"`
	TotalUsers       int        `json:"totalUsers"`
	ConnectedClients int        `json:"connectedClients"`
	Host             *HostStats `json:"host,omitempty"`
}
