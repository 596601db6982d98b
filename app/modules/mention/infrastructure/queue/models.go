package mentionqueue

// ReconcileMentionsJob rebuilds every player's event list.
type ReconcileMentionsJob struct {
	Reason string `json:"reason"`
}

// Kind returns the job type identifier for River
func (ReconcileMentionsJob) Kind() string { return "reconcile_mentions" }

// JobInfo describes an enqueued job.
type JobInfo struct {
	ID     int64  `json:"id"`
	Kind   string `json:"kind"`
	Queue  string `json:"queue"`
	Reason string `json:"reason"`
	State  string `json:"state"`
}
