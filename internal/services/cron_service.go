package services

import (
	"fmt"
	"time"

	"github.com/bdlgate/gatepass-backend/internal/config"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// attemptCleanupSpec runs every 15 minutes
const attemptCleanupSpec = "0 */15 * * * *"

// CronService manages scheduled housekeeping jobs
type CronService struct {
	cron         *cron.Cron
	auditSvc     *AuditService
	rateLimitSvc *RateLimitService
	auditCfg     config.AuditConfig
	logger       *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(auditSvc *AuditService, rateLimitSvc *RateLimitService, auditCfg config.AuditConfig, logger *logrus.Logger) *CronService {
	return &CronService{
		// Second-precision specs: "second minute hour day month weekday"
		cron:         cron.New(cron.WithSeconds()),
		auditSvc:     auditSvc,
		rateLimitSvc: rateLimitSvc,
		auditCfg:     auditCfg,
		logger:       logger,
	}
}

// Start schedules the jobs and starts the scheduler
func (s *CronService) Start() error {
	if s.auditCfg.RetentionDays > 0 {
		if _, err := s.cron.AddFunc(s.auditCfg.CleanupSpec, s.auditRetentionJob); err != nil {
			return fmt.Errorf("failed to schedule audit retention job: %w", err)
		}
		s.logger.WithField("schedule", s.auditCfg.CleanupSpec).Info("Scheduled audit log retention")
	}

	if _, err := s.cron.AddFunc(attemptCleanupSpec, s.loginAttemptCleanupJob); err != nil {
		return fmt.Errorf("failed to schedule login attempt cleanup job: %w", err)
	}

	s.cron.Start()
	s.logger.WithField("jobs", len(s.cron.Entries())).Info("Cron service started")
	return nil
}

// Stop waits for running jobs to finish
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) auditRetentionJob() {
	start := time.Now()
	retention := time.Duration(s.auditCfg.RetentionDays) * 24 * time.Hour

	deleted, err := s.auditSvc.CleanupOldAuditLogs(retention)
	if err != nil {
		s.logger.WithError(err).Error("Audit retention job failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"deleted":  deleted,
		"duration": time.Since(start).String(),
	}).Info("Audit retention job finished")
}

func (s *CronService) loginAttemptCleanupJob() {
	deleted, err := s.rateLimitSvc.CleanupExpiredAttempts()
	if err != nil {
		s.logger.WithError(err).Error("Login attempt cleanup failed")
		return
	}
	if deleted > 0 {
		s.logger.WithField("deleted", deleted).Debug("Expired login attempts removed")
	}
}
