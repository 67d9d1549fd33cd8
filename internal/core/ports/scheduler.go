package ports

type SchedulerService interface {
	Start()
	Stop()

	// ScheduleTask runs task every interval seconds. If immediate is true
	// the first run happens right away.
	ScheduleTask(interval int64, immediate bool, task func()) error
}
