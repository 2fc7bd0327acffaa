package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Mailbox synchronization, every 5 minutes
	CronScheduleSyncMailboxes string `env:"CRON_SCHEDULE_SYNC_MAILBOXES" envDefault:"0 */5 * * * *"`
}
