package types

// Notifier sends check reports and batched log messages to notification services.
type Notifier interface {
	StartNotification()
	SendNotification(report Report)
	AddLogHook()
	GetNames() []string
	GetURLs() []string
	Close()
}
