package services

import (
	"context"

	"github.com/isdelr/eventhub-be/internal/models"
	"github.com/isdelr/eventhub-be/internal/store"
	"github.com/rs/zerolog/log"
)

// StatsServiceProvider defines the interface for dashboard statistics.
type StatsServiceProvider interface {
	GetDashboardStats(ctx context.Context) (models.DashboardStats, error)
}

// ClientCounter reports the number of live websocket clients.
type ClientCounter interface {
	ClientCount() int
}

// StatsService aggregates counters from the store, the hub and the host.
type StatsService struct {
	store   store.Store
	clients ClientCounter
	host    func(ctx context.Context) (models.HostStats, error)
}

// NewStatsService creates a new StatsService. host may be nil.
func NewStatsService(s store.Store, clients ClientCounter, host func(ctx context.Context) (models.HostStats, error)) *StatsService {
	return &StatsService{store: s, clients: clients, host: host}
}

// GetDashboardStats collects the current statistics. Host metrics are
// optional and their failure does not fail the request.
func (s *StatsService) GetDashboardStats(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	var err error

	if stats.TotalEvents, err = s.store.CountEvents(ctx); err != nil {
		return models.DashboardStats{}, err
	}
	if stats.TotalUsers, err = s.store.CountUsers(ctx); err != nil {
		return models.DashboardStats{}, err
	}
	stats.ConnectedClients = s.clients.ClientCount()

	if s.host != nil {
		host, err := s.host(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to read host stats")
		} else {
			stats.Host = &host
		}
	}
	return stats, nil
}
