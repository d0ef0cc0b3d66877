package interfaces

import "time"

// BatchRecord is the durable outcome of one download batch.
type BatchRecord struct {
	BatchID  string
	Dates    []string
	Status   string
	Error    string
	Started  time.Time
	Finished time.Time
}

type Journal interface {
	Record(rec BatchRecord) error
}
