// Package attendstore keeps the history of attendance reports, at most one snapshot
// per portal day is kept and the latest run of a day replaces earlier ones.
package attendstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"misattend/lib/attendstore/db"
	"misattend/lib/scrapers/mis"
	"misattend/lib/telemetry"
	"misattend/lib/timezone"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("misattend.lib.attendstore")

// ErrNoSnapshots is returned by Latest when nothing has been recorded yet.
var ErrNoSnapshots = errors.New("no attendance snapshots recorded")

type Snapshot struct {
	ID     string     `json:"id"`
	Time   time.Time  `json:"time"`
	Report mis.Report `json:"report"`
}

// SubjectPoint is the attendance of a single subject at the time of a snapshot.
type SubjectPoint struct {
	Time       time.Time `json:"time"`
	Conducted  int       `json:"conducted"`
	Attended   int       `json:"attended"`
	Missed     int       `json:"missed"`
	Percentage string    `json:"percentage"`
}

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

func newSnapshotID() (string, error) {
	id, err := random.String(16)
	if err != nil {
		return "", fmt.Errorf("generate snapshot id: %w", err)
	}
	return id, nil
}

// Push records report as the snapshot of the portal day containing at.
func (s Store) Push(ctx context.Context, at time.Time, report mis.Report) (Snapshot, error) {
	ctx, span := tracer.Start(ctx, "Push")
	defer span.End()

	id, err := newSnapshotID()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Snapshot{}, err
	}
	span.SetAttributes(attribute.String("id", id), attribute.Int("subjects", len(report)))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Snapshot{}, err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	startOfDay, startOfTomorrow := timezone.DayBounds(at)
	err = txqry.DeleteSnapshotsIn(ctx, db.DeleteSnapshotsInParams{
		After:  startOfDay.Unix(),
		Before: startOfTomorrow.Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Snapshot{}, err
	}

	err = txqry.CreateSnapshot(ctx, db.CreateSnapshotParams{
		ID:   id,
		Time: at.Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Snapshot{}, err
	}

	for i, record := range report {
		err = txqry.CreateSubjectRecord(ctx, db.CreateSubjectRecordParams{
			SnapshotID: id,
			Position:   int64(i),
			Subject:    record.SubjectName,
			Conducted:  int64(record.Conducted),
			Attended:   int64(record.Attended),
			Missed:     int64(record.Missed),
			Percentage: record.Percentage,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return Snapshot{}, err
		}
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Snapshot{}, err
	}

	return Snapshot{
		ID:     id,
		Time:   time.Unix(at.Unix(), 0).In(timezone.Location),
		Report: report,
	}, nil
}

func (s Store) load(ctx context.Context, row db.Snapshot) (Snapshot, error) {
	records, err := s.qry.GetSubjectRecords(ctx, row.ID)
	if err != nil {
		return Snapshot{}, err
	}
	report := make(mis.Report, len(records))
	for i, r := range records {
		report[i] = mis.Record{
			SubjectName: r.Subject,
			Conducted:   int(r.Conducted),
			Attended:    int(r.Attended),
			Missed:      int(r.Missed),
			Percentage:  r.Percentage,
		}
	}
	return Snapshot{
		ID:     row.ID,
		Time:   time.Unix(row.Time, 0).In(timezone.Location),
		Report: report,
	}, nil
}

// History returns up to limit snapshots, newest first. A non-positive limit returns
// every snapshot.
func (s Store) History(ctx context.Context, limit int) ([]Snapshot, error) {
	ctx, span := tracer.Start(ctx, "History")
	defer span.End()

	dblimit := int64(limit)
	if limit <= 0 {
		dblimit = -1
	}
	rows, err := s.qry.ListSnapshots(ctx, dblimit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	snapshots := make([]Snapshot, 0, len(rows))
	for _, row := range rows {
		snapshot, err := s.load(ctx, row)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

func (s Store) Latest(ctx context.Context) (Snapshot, error) {
	history, err := s.History(ctx, 1)
	if err != nil {
		return Snapshot{}, err
	}
	if len(history) == 0 {
		return Snapshot{}, ErrNoSnapshots
	}
	return history[0], nil
}

// SubjectSeries returns every recorded point of subject, oldest first. The subject
// name must match exactly.
func (s Store) SubjectSeries(ctx context.Context, subject string) ([]SubjectPoint, error) {
	ctx, span := tracer.Start(ctx, "SubjectSeries")
	defer span.End()

	span.SetAttributes(attribute.String("subject", subject))

	rows, err := s.qry.GetSubjectSeries(ctx, subject)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	points := make([]SubjectPoint, len(rows))
	for i, r := range rows {
		points[i] = SubjectPoint{
			Time:       time.Unix(r.Time, 0).In(timezone.Location),
			Conducted:  int(r.Conducted),
			Attended:   int(r.Attended),
			Missed:     int(r.Missed),
			Percentage: r.Percentage,
		}
	}
	return points, nil
}

// Subjects lists every subject that has ever been recorded.
func (s Store) Subjects(ctx context.Context) ([]string, error) {
	return s.qry.ListSubjects(ctx)
}
