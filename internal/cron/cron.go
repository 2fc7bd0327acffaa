package cron

import (
	"context"
	"os"
	"sync"

	"github.com/caarlos0/env/v6"
	"github.com/pkg/errors"
	cronv3 "github.com/robfig/cron/v3"

	"github.com/mailforge/mailsync/config"
	"github.com/mailforge/mailsync/interfaces"
	cron_config "github.com/mailforge/mailsync/internal/cron/config"
	"github.com/mailforge/mailsync/internal/logger"
	"github.com/mailforge/mailsync/internal/tracing"
	syncservice "github.com/mailforge/mailsync/services/sync"
)

// GroupSync serializes all sync jobs; one mailbox sweep at a time
const GroupSync = "sync"

var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupSync: new(sync.Mutex),
	},
}

type CronManager struct {
	cfg               *config.Config
	log               logger.Logger
	cron              *cronv3.Cron
	stopCh            chan struct{}
	jobIDs            map[string]cronv3.EntryID
	syncService       *syncservice.Service
	mailboxRepository interfaces.MailboxRepository
}

func NewCronManager(cfg *config.Config, log logger.Logger, syncService *syncservice.Service, mailboxRepository interfaces.MailboxRepository) *CronManager {
	return &CronManager{
		cfg:               cfg,
		log:               log,
		stopCh:            make(chan struct{}),
		jobIDs:            make(map[string]cronv3.EntryID),
		syncService:       syncService,
		mailboxRepository: mailboxRepository,
	}
}

// Start initializes and starts the cron scheduler
func (cm *CronManager) Start() {
	cm.log.Info("Starting cron manager")
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	}
	c := cronv3.New(cronOptions...)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

// Stop gracefully stops the cron manager and waits for running jobs
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		<-ctx.Done()
	}
	close(cm.stopCh)
}

// registerJobs adds all cron jobs to the scheduler
func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	var cronConfig cron_config.Config
	if err := env.Parse(&cronConfig); err != nil {
		cm.log.Fatalf("Failed to parse cron config from environment: %v", err)
	}

	if cronConfig.CronScheduleHeartbeat != "" {
		hostname, _ := os.Hostname()
		id, err := c.AddFunc(cronConfig.CronScheduleHeartbeat, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.log.Infof("Cron heartbeat from host: %s", hostname)
		})
		if err != nil {
			cm.log.Fatalf("Could not add heartbeat cron job: %v", err)
		}
		cm.jobIDs["heartbeat"] = id
		cm.log.Infof("Registered heartbeat job with schedule: %s", cronConfig.CronScheduleHeartbeat)
	}

	if cronConfig.CronScheduleSyncMailboxes != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleSyncMailboxes, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupSync].Lock()
			defer jobLocks.locks[GroupSync].Unlock()
			cm.syncAllMailboxes()
		})
		if err != nil {
			cm.log.Fatalf("Could not add mailbox sync cron job: %v", err)
		}
		cm.jobIDs["sync_mailboxes"] = id
		cm.log.Infof("Registered mailbox sync job with schedule: %s", cronConfig.CronScheduleSyncMailboxes)
	}
}

// syncAllMailboxes runs one sweep over every configured mailbox, strictly
// sequentially. A mailbox already syncing (e.g. via the API) is skipped.
func (cm *CronManager) syncAllMailboxes() {
	ctx := context.Background()

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.syncAllMailboxes")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	mailboxes, err := cm.mailboxRepository.List(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to list mailboxes for scheduled sync: %v", err)
		return
	}

	for _, mailbox := range mailboxes {
		select {
		case <-cm.stopCh:
			cm.log.Info("Cron manager stopping, aborting mailbox sweep")
			return
		default:
		}

		report, err := cm.syncService.SyncMailbox(ctx, mailbox.ID)
		if err != nil {
			if errors.Is(err, syncservice.ErrSyncInProgress) {
				cm.log.Infof("Mailbox %s already syncing, skipped", mailbox.ID)
				continue
			}
			tracing.TraceErr(span, err)
			cm.log.Errorf("Scheduled sync of mailbox %s failed: %v", mailbox.ID, err)
			continue
		}
		cm.log.Infof("Scheduled sync of mailbox %s: synced=%d errors=%d", mailbox.ID, report.TotalSynced, report.TotalErrors)
	}
}
