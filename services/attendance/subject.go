package attendance

import (
	"context"
	"errors"
	"fmt"

	"misattend/lib/textutil"
)

// ErrUnknownSubject is returned when a subject query matches nothing recorded.
var ErrUnknownSubject = errors.New("unknown subject")

// SubjectSeries resolves query against every recorded subject name (case, spacing
// and small typos are tolerated) and returns its history.
func (s *Service) SubjectSeries(ctx context.Context, query string) (SubjectHistory, error) {
	if s.history == nil {
		return SubjectHistory{}, ErrHistoryDisabled
	}

	ctx, span := tracer.Start(ctx, "SubjectSeries")
	defer span.End()

	subjects, err := s.history.Subjects(ctx)
	if err != nil {
		return SubjectHistory{}, err
	}
	subject, similarity, ok := textutil.MatchSubject(query, subjects, textutil.DefaultSubjectThreshold)
	if !ok {
		return SubjectHistory{}, fmt.Errorf("%w: %q", ErrUnknownSubject, query)
	}

	series, err := s.history.SubjectSeries(ctx, subject)
	if err != nil {
		return SubjectHistory{}, err
	}
	return SubjectHistory{
		Subject:    subject,
		Similarity: similarity,
		Series:     series,
	}, nil
}
