package cron

import (
	"testing"

	cronv3 "github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"

	"github.com/mailforge/mailsync/config"
	cron_config "github.com/mailforge/mailsync/internal/cron/config"
	"github.com/mailforge/mailsync/internal/logger"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func TestNewCronManager(t *testing.T) {
	// Arrange
	cfg := &config.Config{
		AppConfig: &config.AppConfig{},
		Logger: &logger.Config{
			LogLevel: "info",
		},
	}
	log := getLogger()

	// Act
	cm := NewCronManager(cfg, log, nil, nil)

	// Assert
	assert.NotNil(t, cm)
	assert.Equal(t, cfg, cm.cfg)
	assert.Equal(t, log, cm.log)
	assert.NotNil(t, cm.jobIDs)
}

func TestCronManager_RegisterJobs(t *testing.T) {
	cfg := &config.Config{
		AppConfig: &config.AppConfig{},
		Logger: &logger.Config{
			LogLevel: "info",
		},
	}
	cm := NewCronManager(cfg, getLogger(), nil, nil)

	// Create a cron for testing
	c := cronv3.New(cronv3.WithSeconds())

	var cronConfig cron_config.Config
	cronConfig.CronScheduleHeartbeat = "0 * * * * *"
	cronConfig.CronScheduleSyncMailboxes = "0 */5 * * * *"

	// Act - register jobs manually
	heartbeatID, err := c.AddFunc(cronConfig.CronScheduleHeartbeat, func() {})
	assert.NoError(t, err)
	cm.jobIDs["heartbeat"] = heartbeatID

	syncID, err := c.AddFunc(cronConfig.CronScheduleSyncMailboxes, func() {})
	assert.NoError(t, err)
	cm.jobIDs["sync_mailboxes"] = syncID

	cm.cron = c

	// Assert
	assert.NotNil(t, cm.cron)
	assert.Equal(t, 2, len(cm.jobIDs))
}

func TestCronManager_Stop(t *testing.T) {
	cfg := &config.Config{
		AppConfig: &config.AppConfig{},
		Logger: &logger.Config{
			LogLevel: "info",
		},
	}
	cm := NewCronManager(cfg, getLogger(), nil, nil)

	c := cronv3.New()
	c.Start()
	cm.cron = c

	// Act
	cm.Stop()

	// Assert
	select {
	case <-cm.stopCh:
		// Channel is closed as expected
	default:
		t.Error("Stop channel was not closed")
	}
}
