package config

type WorkerKeyStruct struct {
	ResultEventsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	ResultEventsQueue: "result_events_queue",
}
