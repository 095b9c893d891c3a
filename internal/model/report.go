package model

import (
	"fmt"
	"time"
)

// Section holds the comparison outcome for one artifact role.
type Section struct {
	// Role identifies the artifact this section covers.
	Role Role

	// Differs is true when the byte-equality check found the two
	// artifacts unequal. When false the role was skipped entirely and
	// Entries/Blocks are empty.
	Differs bool

	// RefDigest and DesDigest are hex BLAKE2b-256 digests of the two
	// artifacts, computed while extracting them from the bundles.
	RefDigest string
	DesDigest string

	// Entries holds structural diff results (script role).
	Entries []DiffEntry

	// Blocks holds sequence diff results (tagged-text roles).
	Blocks []OpcodeBlock

	// ErrorMessage records a fatal per-role failure, e.g. a schema
	// violation while decoding. Sibling roles are unaffected.
	ErrorMessage string
}

// Report is the aggregate outcome of one analysis run. It is created
// fresh per run and discarded after rendering; no state persists across
// runs unless the caller saves it to the history database.
type Report struct {
	// ReportPath is the desync report directory or archive analyzed.
	ReportPath string

	// GeneratedAt is when the analysis started.
	GeneratedAt time.Time

	// Sections holds one entry per artifact role, in analysis order.
	Sections []*Section
}

// NewReport creates an empty report for the given desync report path.
func NewReport(reportPath string) *Report {
	return &Report{
		ReportPath:  reportPath,
		GeneratedAt: time.Now(),
	}
}

// AddSection appends a role section to the report.
func (r *Report) AddSection(s *Section) {
	r.Sections = append(r.Sections, s)
}

// Section returns the section for the given role, or nil if the role was
// not analyzed.
func (r *Report) Section(role Role) *Section {
	for _, s := range r.Sections {
		if s.Role == role {
			return s
		}
	}
	return nil
}

// Differs reports whether any role differed between the two captures.
func (r *Report) Differs() bool {
	for _, s := range r.Sections {
		if s.Differs {
			return true
		}
	}
	return false
}

// FirstDivergence returns the first reported difference location for the
// given section, used for history summaries: the first structural diff
// path, or the rendered range of the first opcode block.
func (s *Section) FirstDivergence() string {
	if len(s.Entries) > 0 {
		return s.Entries[0].Path.String()
	}
	if len(s.Blocks) > 0 {
		b := s.Blocks[0]
		return fmt.Sprintf("%s ref[%d:%d]", b.Op, b.RefStart, b.RefEnd)
	}
	return ""
}
