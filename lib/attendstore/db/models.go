package db

type Snapshot struct {
	ID   string
	Time int64
}

type SubjectRecord struct {
	SnapshotID string
	Position   int64
	Subject    string
	Conducted  int64
	Attended   int64
	Missed     int64
	Percentage string
}
