package config

// WorkerKeyStruct names the Redis lists that feed the persistence workers.
type WorkerKeyStruct struct {
	// PersistAnswersQueue carries draft answers for crash recovery.
	PersistAnswersQueue string
	// PersistQuestionOrderQueue carries the selected question order of a started exam.
	PersistQuestionOrderQueue string
	// PersistQuestionStatsQueue carries per-question outcomes of submitted exams.
	PersistQuestionStatsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistAnswersQueue:       "examprep:queue:answers",
	PersistQuestionOrderQueue: "examprep:queue:question_order",
	PersistQuestionStatsQueue: "examprep:queue:question_stats",
}

// Queues lists every queue, for depth reporting.
func (w *WorkerKeyStruct) Queues() []string {
	return []string{w.PersistAnswersQueue, w.PersistQuestionOrderQueue, w.PersistQuestionStatsQueue}
}
