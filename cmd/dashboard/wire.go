package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jwalitptl/admin-dashboard/internal/email"
	"github.com/jwalitptl/admin-dashboard/internal/handler/health"
	"github.com/jwalitptl/admin-dashboard/internal/repository/remote"
	"github.com/jwalitptl/admin-dashboard/internal/service/appointment"
	"github.com/jwalitptl/admin-dashboard/internal/service/dashboard"
	"github.com/jwalitptl/admin-dashboard/internal/service/notification"
	"github.com/jwalitptl/admin-dashboard/pkg/circuitbreaker"
	"github.com/jwalitptl/admin-dashboard/pkg/messaging"
	"github.com/jwalitptl/admin-dashboard/pkg/messaging/redis"
	"github.com/jwalitptl/admin-dashboard/pkg/metrics"
	"github.com/jwalitptl/admin-dashboard/pkg/timefmt"
)

const metricsNamespace = "clinic"

type app struct {
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	breaker  *circuitbreaker.CircuitBreaker
	broker   messaging.Broker

	dash    *dashboard.Service
	actions *appointment.Service
}

func (c *cli) newApp(ctx context.Context) (*app, error) {
	cfg := c.cfg
	log := c.logger

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(reg, metricsNamespace, "dashboard")

	var breaker *circuitbreaker.CircuitBreaker
	if cfg.Remote.Breaker.Enabled {
		breaker = circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "clinic-backend",
			MaxFailures: cfg.Remote.Breaker.MaxFailures,
			Interval:    cfg.Remote.Breaker.Interval,
			Timeout:     cfg.Remote.Breaker.OpenTimeout,
			IsFailure:   remote.IsBreakerFailure,
			OnStateChange: func(name, from, to string) {
				log.Warn().Str("breaker", name).Str("from", from).Str("to", to).Msg("Circuit breaker state changed")
			},
		})
	}

	client, err := remote.NewClient(remote.Options{
		BaseURL: cfg.Remote.BaseURL,
		Timeout: cfg.Remote.Timeout,
		Paths:   remote.Paths(cfg.Remote.Paths),
		Breaker: breaker,
		Metrics: m,
		Logger:  log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	loc := timefmt.Zone(cfg.Location.Name, cfg.Location.OffsetMinutes)
	cacheCfg := remote.CacheConfig{
		TTL:             cfg.Remote.CacheTTL,
		CleanupInterval: cfg.Remote.CacheCleanup,
	}
	appointments := remote.NewAppointmentRepository(client)

	dash := dashboard.NewService(
		appointments,
		remote.NewCachedDoctorRepository(remote.NewDoctorRepository(client), cacheCfg, m),
		remote.NewCachedPatientRepository(remote.NewPatientRepository(client), cacheCfg, m),
		client,
		dashboard.Config{Location: loc, EnrichConcurrency: cfg.Remote.EnrichConcurrency},
		m,
		log,
	)

	var emailSvc email.Service = email.Nop{}
	if cfg.Alert.Enabled {
		emailSvc = email.NewSMTPService(email.SMTPConfig{
			Host:     cfg.Alert.Host,
			Port:     cfg.Alert.Port,
			Username: cfg.Alert.Username,
			Password: cfg.Alert.Password,
			From:     cfg.Alert.From,
		}, log)
	}
	notifSvc := notification.NewService(
		remote.NewNotificationRepository(client),
		remote.NewSMSGateway(client),
		emailSvc,
		notification.Config{Location: loc, AlertRecipients: cfg.Alert.To},
		m,
		log,
	)

	var broker messaging.Broker = messaging.Nop{}
	if cfg.Redis.Enabled {
		broker, err = redis.NewRedisBroker(ctx, cfg.Redis.ToBrokerConfig(), log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
	}

	actions := appointment.NewService(dash, appointments, notifSvc, appointment.Options{
		Broker:  broker,
		Channel: cfg.Redis.Channel,
		Metrics: m,
		Logger:  log,
	})

	return &app{
		registry: reg,
		metrics:  m,
		breaker:  breaker,
		broker:   broker,
		dash:     dash,
		actions:  actions,
	}, nil
}

// readinessChecks fail until the first snapshot loaded and while the backend
// breaker is open.
func (a *app) readinessChecks() map[string]health.Check {
	checks := map[string]health.Check{
		"snapshot": func() error {
			if a.dash.Overview().RefreshedAt == nil {
				return errors.New("snapshot not loaded")
			}
			return nil
		},
	}
	if a.breaker != nil {
		checks["backend"] = func() error {
			if a.breaker.State() == "open" {
				return errors.New("circuit breaker is open")
			}
			return nil
		}
	}
	return checks
}

func (a *app) Close() error {
	return a.broker.Close()
}
