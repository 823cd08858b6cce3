package ports

// Notifier surfaces the transient banners shown after a write.
type Notifier interface {
	Success(title, detail string)
	Error(title, detail string)
}
