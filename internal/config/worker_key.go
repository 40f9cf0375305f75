package config

type WorkerKeyStruct struct {
	GradebookSyncQueue string
	CreditRecalcQueue  string
}

var WorkerKey = &WorkerKeyStruct{
	GradebookSyncQueue: "gradebook_sync_queue",
	CreditRecalcQueue:  "credit_recalc_queue",
}
