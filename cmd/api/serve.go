package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/hospital-scheduler/internal/audit"
	"github.com/BruksfildServices01/hospital-scheduler/internal/config"
	dbpkg "github.com/BruksfildServices01/hospital-scheduler/internal/db"
	"github.com/BruksfildServices01/hospital-scheduler/internal/events"
	"github.com/BruksfildServices01/hospital-scheduler/internal/handlers"
	infraRepo "github.com/BruksfildServices01/hospital-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/hospital-scheduler/internal/logger"
	"github.com/BruksfildServices01/hospital-scheduler/internal/notify"
	"github.com/BruksfildServices01/hospital-scheduler/internal/obs"
	"github.com/BruksfildServices01/hospital-scheduler/internal/resettoken"
	"github.com/BruksfildServices01/hospital-scheduler/internal/routes"
	"github.com/BruksfildServices01/hospital-scheduler/internal/timezone"
	ucAppointment "github.com/BruksfildServices01/hospital-scheduler/internal/usecase/appointment"
)

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.IsProduction())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ======================================================
	// INFRA
	// ======================================================
	shutdownTracer, err := obs.InitTracer(ctx, "hospital-scheduler", cfg.OTLPEndpoint, cfg.Env)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	db, err := dbpkg.NewDB(cfg, log)
	if err != nil {
		return err
	}
	if err := dbpkg.Migrate(db); err != nil {
		return err
	}

	rdb, err := resettoken.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer rdb.Close()

	sinks := []audit.Sink{audit.New(db)}
	if cfg.RabbitURL != "" {
		pub, err := events.NewPublisher(cfg.RabbitURL, cfg.EventsExchange)
		if err != nil {
			log.Warn("event publishing disabled", zap.Error(err))
		} else {
			defer pub.Close()
			sinks = append(sinks, audit.NewPublishSink(pub))
		}
	}
	auditDispatcher := audit.NewDispatcher(log, sinks...)

	gateway, err := smsGateway(cfg, log)
	if err != nil {
		return err
	}

	phones := notify.NewPhoneNormalizer(cfg.DefaultCountryCode, cfg.KnownCountryCodes)

	appointmentRepo := infraRepo.NewAppointmentGormRepository(db)
	profileRepo := infraRepo.NewProfileGormRepository(db)

	// ======================================================
	// USE CASES
	// ======================================================
	reminders := ucAppointment.NewReminderCoordinator(
		appointmentRepo,
		gateway,
		phones,
		ucAppointment.ReminderConfig{
			Location:    timezone.Location(cfg.Timezone),
			Lead:        cfg.ReminderLead,
			SendTimeout: cfg.NotifyTimeout,
		},
		log,
	)

	useCases := handlers.AppointmentUseCases{
		Book:       ucAppointment.NewBookAppointment(appointmentRepo, reminders, auditDispatcher),
		Reschedule: ucAppointment.NewRescheduleAppointment(appointmentRepo, reminders, auditDispatcher),
		Cancel:     ucAppointment.NewCancelAppointment(appointmentRepo, reminders, auditDispatcher),
		Confirm:    ucAppointment.NewConfirmAppointment(appointmentRepo, reminders, auditDispatcher),
		Complete:   ucAppointment.NewCompleteAppointment(appointmentRepo, reminders, auditDispatcher),
		Delete:     ucAppointment.NewDeleteAppointment(appointmentRepo, reminders, auditDispatcher),
		List:       ucAppointment.NewListAppointments(appointmentRepo, reminders),
		Reconcile:  ucAppointment.NewReconcileReminders(appointmentRepo, reminders, log),
	}

	if _, err := useCases.Reconcile.Execute(ctx); err != nil {
		log.Error("startup reminder reconcile failed", zap.Error(err))
	}

	// ======================================================
	// HTTP
	// ======================================================
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	routes.RegisterRoutes(r, cfg, routes.Handlers{
		Auth: handlers.NewAuthHandler(
			profileRepo,
			resettoken.NewStore(rdb, cfg.ResetTokenTTL),
			mailer(cfg, log),
			phones,
			cfg,
			log,
		),
		Me:           handlers.NewMeHandler(profileRepo, phones, log),
		Appointments: handlers.NewAppointmentHandler(useCases, profileRepo, log),
		AuditLogs:    handlers.NewAuditLogsHandler(db, log),
		Feedback:     handlers.NewFeedbackHandler(infraRepo.NewFeedbackGormRepository(db), auditDispatcher, log),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server running", zap.String("addr", cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	log.Info("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}

	reminders.Shutdown()
	auditDispatcher.Close()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	return nil
}

func smsGateway(cfg *config.Config, log *zap.Logger) (notify.Gateway, error) {
	if !cfg.Twilio.Enabled() {
		log.Warn("twilio not configured, sms will only be logged")
		return notify.NewLogGateway(log), nil
	}
	return notify.NewTwilioGateway(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.PhoneNumber, log)
}

func mailer(cfg *config.Config, log *zap.Logger) notify.Mailer {
	if cfg.SMTP.Host == "" {
		return notify.NewLogMailer(log)
	}
	return notify.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
}
