package http

import (
	"context"

	"reportclean/internal/services"
)

// CleaningService defines the operations the clean handler needs
type CleaningService interface {
	CleanArchive(ctx context.Context, req services.CleanRequest) (*services.CleanSummary, error)
	OutputPath(jobID, filename string) (string, error)
}

// HealthService defines the operations the health handler needs
type HealthService interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}
