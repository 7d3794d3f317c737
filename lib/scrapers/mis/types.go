package mis

import (
	"fmt"
	"time"

	"misattend/lib/browser"
)

type Credentials struct {
	Identifier string
	Secret     string
}

// RawTableGrid is the untrusted cell text of the attendance table, rows may have
// differing lengths.
type RawTableGrid struct {
	HeaderRows [][]string `json:"headers"`
	BodyRows   [][]string `json:"body"`
}

type Section string

const (
	SectionHeader Section = "header"
	SectionBody   Section = "body"
)

// RowRef points at one semantic row of the attendance table. The first Skip cells of
// the row are labels, the remaining cells line up with the subject catalog.
type RowRef struct {
	Section Section `json:"section"`
	Row     int     `json:"row"`
	Skip    int     `json:"skip"`
}

func (r RowRef) String() string {
	return fmt.Sprintf("%s[%d][%d:]", r.Section, r.Row, r.Skip)
}

// Layout is the positional mapping between the subject catalog and the columns of
// the attendance table. The portal carries no semantic column labels, so when the
// portal layout changes this is the only thing that needs to be edited.
type Layout struct {
	// Subjects is the subject catalog, subject i reads column i of every row.
	Subjects   []string `json:"subjects"`
	Conducted  RowRef   `json:"conducted"`
	Attended   RowRef   `json:"attended"`
	Percentage RowRef   `json:"percentage"`
}

var (
	DefaultConducted  = RowRef{Section: SectionHeader, Row: 4, Skip: 1}
	DefaultAttended   = RowRef{Section: SectionBody, Row: 0, Skip: 2}
	DefaultPercentage = RowRef{Section: SectionBody, Row: 1, Skip: 0}
)

// Validate reports configuration defects, it expects a layout with defaults applied.
func (l Layout) Validate() error {
	if len(l.Subjects) == 0 {
		return ErrEmptyCatalog
	}
	refs := []struct {
		name string
		ref  RowRef
	}{
		{"conducted", l.Conducted},
		{"attended", l.Attended},
		{"percentage", l.Percentage},
	}
	for _, r := range refs {
		if r.ref.Section != SectionHeader && r.ref.Section != SectionBody {
			return fmt.Errorf(
				"%w: %s row has section %q, expected %q or %q",
				ErrInvalidLayout, r.name, r.ref.Section, SectionHeader, SectionBody,
			)
		}
	}
	return nil
}

// WithDefaults fills in every unset row reference with the reference layout of the portal.
func (l Layout) WithDefaults() Layout {
	if l.Conducted.Section == "" {
		l.Conducted = DefaultConducted
	}
	if l.Attended.Section == "" {
		l.Attended = DefaultAttended
	}
	if l.Percentage.Section == "" {
		l.Percentage = DefaultPercentage
	}
	return l
}

// Record is the normalized attendance of a single subject.
type Record struct {
	SubjectName string `json:"subjectName"`
	Conducted   int    `json:"conducted"`
	Attended    int    `json:"attended"`
	Missed      int    `json:"missed"`
	Percentage  string `json:"percentage"`
}

// Report is the ordered, filtered set of records of a single run.
type Report []Record

type Selectors struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
	Submit     string `json:"submit"`
	// LoginForm is only present on the login page, if it is still present after
	// submitting, the login was rejected.
	LoginForm string `json:"login_form"`
	Program   string `json:"program"`
	Session   string `json:"session"`
	Container string `json:"container"`
	Table     string `json:"table"`
}

func DefaultSelectors() Selectors {
	return Selectors{
		Identifier: "#inputStudentCNIC",
		Secret:     "#inputStudentPassword",
		Submit:     "#studentLogin",
		LoginForm:  "#inputStudentCNIC",
		Program:    "#get_Program",
		Session:    "#get_Session",
		Container:  "#table-container",
		Table:      ".table.sheet.header-fixed",
	}
}

// WithDefaults fills in every empty selector with the known portal markup.
func (s Selectors) WithDefaults() Selectors {
	d := DefaultSelectors()
	fill := func(dst *string, fallback string) {
		if *dst == "" {
			*dst = fallback
		}
	}
	fill(&s.Identifier, d.Identifier)
	fill(&s.Secret, d.Secret)
	fill(&s.Submit, d.Submit)
	fill(&s.LoginForm, d.LoginForm)
	fill(&s.Program, d.Program)
	fill(&s.Session, d.Session)
	fill(&s.Container, d.Container)
	fill(&s.Table, d.Table)
	return s
}

type Timeouts struct {
	Navigation time.Duration
	Options    time.Duration
	Container  time.Duration
	Table      time.Duration
}

const DefaultTimeout = 30 * time.Second

func (t Timeouts) WithDefaults() Timeouts {
	fill := func(dst *time.Duration) {
		if *dst <= 0 {
			*dst = DefaultTimeout
		}
	}
	fill(&t.Navigation)
	fill(&t.Options)
	fill(&t.Container)
	fill(&t.Table)
	return t
}

// Portal describes where and how to reach the attendance report. The program and
// session ids are tied to one institution's current term, so they are never defaulted.
type Portal struct {
	LoginURL  string
	ReportURL string
	ProgramID string
	SessionID string
	Selectors Selectors
	Timeouts  Timeouts
	Wait      browser.WaitPolicy
}

func (p Portal) Validate() error {
	missing := func(name string) error {
		return fmt.Errorf("portal: %s must be configured", name)
	}
	switch {
	case p.LoginURL == "":
		return missing("login url")
	case p.ReportURL == "":
		return missing("report url")
	case p.ProgramID == "":
		return missing("program id")
	case p.SessionID == "":
		return missing("session id")
	case p.Wait != "" && !p.Wait.Valid():
		return fmt.Errorf("portal: unknown wait policy %q", p.Wait)
	}
	return nil
}

// WithDefaults fills in selectors, timeouts and the wait policy.
func (p Portal) WithDefaults() Portal {
	p.Selectors = p.Selectors.WithDefaults()
	p.Timeouts = p.Timeouts.WithDefaults()
	if p.Wait == "" {
		p.Wait = browser.WaitNetworkAlmostIdle
	}
	return p
}

// ReadyPage is a page on which the attendance table is confirmed visible, it can
// only be obtained through Navigator.OpenReport.
type ReadyPage struct {
	page          browser.Page
	tableSelector string
	// timeout bounds reading the page
	timeout time.Duration
}
