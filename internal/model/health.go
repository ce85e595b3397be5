package model

import "time"

type HealthStatus struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

type ServiceInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}
