package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{
		db: tx,
	}
}

const createSnapshot = `insert into Snapshot(id, time) values (?, ?)`

type CreateSnapshotParams struct {
	ID   string
	Time int64
}

func (q *Queries) CreateSnapshot(ctx context.Context, arg CreateSnapshotParams) error {
	_, err := q.db.ExecContext(ctx, createSnapshot, arg.ID, arg.Time)
	return err
}

const createSubjectRecord = `insert into SubjectRecord(
    snapshotId, position, subject, conducted, attended, missed, percentage
) values (?, ?, ?, ?, ?, ?, ?)`

type CreateSubjectRecordParams struct {
	SnapshotID string
	Position   int64
	Subject    string
	Conducted  int64
	Attended   int64
	Missed     int64
	Percentage string
}

func (q *Queries) CreateSubjectRecord(ctx context.Context, arg CreateSubjectRecordParams) error {
	_, err := q.db.ExecContext(ctx, createSubjectRecord,
		arg.SnapshotID,
		arg.Position,
		arg.Subject,
		arg.Conducted,
		arg.Attended,
		arg.Missed,
		arg.Percentage,
	)
	return err
}

const deleteSubjectRecordsIn = `delete from SubjectRecord
where snapshotId in (
    select id from Snapshot where time >= ? and time < ?
)`

const deleteSnapshotsIn = `delete from Snapshot where time >= ? and time < ?`

type DeleteSnapshotsInParams struct {
	After  int64
	Before int64
}

// DeleteSnapshotsIn deletes every snapshot (and its records) taken in [After, Before).
func (q *Queries) DeleteSnapshotsIn(ctx context.Context, arg DeleteSnapshotsInParams) error {
	_, err := q.db.ExecContext(ctx, deleteSubjectRecordsIn, arg.After, arg.Before)
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx, deleteSnapshotsIn, arg.After, arg.Before)
	return err
}

const listSnapshots = `select id, time from Snapshot
order by time desc, rowid desc
limit ?`

func (q *Queries) ListSnapshots(ctx context.Context, limit int64) ([]Snapshot, error) {
	rows, err := q.db.QueryContext(ctx, listSnapshots, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Snapshot
	for rows.Next() {
		var i Snapshot
		if err := rows.Scan(&i.ID, &i.Time); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getSubjectRecords = `select
    snapshotId, position, subject, conducted, attended, missed, percentage
from SubjectRecord
where snapshotId = ?
order by position asc`

func (q *Queries) GetSubjectRecords(ctx context.Context, snapshotID string) ([]SubjectRecord, error) {
	rows, err := q.db.QueryContext(ctx, getSubjectRecords, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SubjectRecord
	for rows.Next() {
		var i SubjectRecord
		if err := rows.Scan(
			&i.SnapshotID,
			&i.Position,
			&i.Subject,
			&i.Conducted,
			&i.Attended,
			&i.Missed,
			&i.Percentage,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getSubjectSeries = `select
    Snapshot.time, SubjectRecord.conducted, SubjectRecord.attended,
    SubjectRecord.missed, SubjectRecord.percentage
from SubjectRecord
inner join Snapshot on Snapshot.id = SubjectRecord.snapshotId
where SubjectRecord.subject = ?
order by Snapshot.time asc`

type GetSubjectSeriesRow struct {
	Time       int64
	Conducted  int64
	Attended   int64
	Missed     int64
	Percentage string
}

func (q *Queries) GetSubjectSeries(ctx context.Context, subject string) ([]GetSubjectSeriesRow, error) {
	rows, err := q.db.QueryContext(ctx, getSubjectSeries, subject)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetSubjectSeriesRow
	for rows.Next() {
		var i GetSubjectSeriesRow
		if err := rows.Scan(
			&i.Time,
			&i.Conducted,
			&i.Attended,
			&i.Missed,
			&i.Percentage,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listSubjects = `select distinct subject from SubjectRecord order by subject asc`

func (q *Queries) ListSubjects(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listSubjects)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var subject string
		if err := rows.Scan(&subject); err != nil {
			return nil, err
		}
		items = append(items, subject)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
