package enum

type EmailSecurity string

const (
	EmailSecurityNone     EmailSecurity = "none"
	EmailSecuritySSL      EmailSecurity = "ssl"
	EmailSecurityTLS      EmailSecurity = "tls"
	EmailSecurityStartTLS EmailSecurity = "startTLS"
)

func (t EmailSecurity) String() string {
	return string(t)
}

type SyncStatus string

const (
	SyncStatusIdle    SyncStatus = "idle"
	SyncStatusRunning SyncStatus = "running"
	SyncStatusOK      SyncStatus = "ok"
	SyncStatusFailed  SyncStatus = "failed"
)

func (t SyncStatus) String() string {
	return string(t)
}
