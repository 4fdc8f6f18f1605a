package domain

import (
	"sort"
	"strings"
)

// CountsByStatus maps every status to the number of applications in it
func CountsByStatus(apps []Application) map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, s := range Statuses {
		counts[s] = 0
	}
	for _, a := range apps {
		counts[a.Status]++
	}
	return counts
}

// pendingStatuses lists the statuses awaiting action by each role
var pendingStatuses = map[Role][]Status{
	RoleARO: {StatusSubmitted, StatusUnderReview},
	RoleFAO: {StatusPendingAllocation},
	RoleFDO: {StatusAllocated},
	RoleSuperadmin: {
		StatusSubmitted, StatusUnderReview, StatusPendingAllocation, StatusAllocated,
	},
}

// PendingStatuses returns the statuses awaiting action by role
func PendingStatuses(role Role) []Status {
	return append([]Status(nil), pendingStatuses[role]...)
}

// PendingForRole returns the applications awaiting action by role, in input order
func PendingForRole(apps []Application, role Role) []Application {
	want := pendingStatuses[role]
	out := make([]Application, 0)
	for _, a := range apps {
		for _, s := range want {
			if a.Status == s {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// VisibleTo filters the collection down to what actor may see
func VisibleTo(apps []Application, actor Actor) []Application {
	if CapabilitiesFor(actor.Role).CanViewAll {
		return apps
	}
	out := make([]Application, 0)
	if actor.Role != RoleStudent {
		return out
	}
	for _, a := range apps {
		if a.StudentID == actor.ID {
			out = append(out, a)
		}
	}
	return out
}

// SortField selects the ordering key of a search
type SortField string

const (
	SortByDate   SortField = "date"
	SortByAmount SortField = "amount"
	SortByName   SortField = "name"
)

// Query describes a search over applications
type Query struct {
	Text            string
	Statuses        []Status
	AcademicYear    string
	InstitutionType string
	FundCategory    string
	SortBy          SortField
	Descending      bool
}

// Search filters and orders apps. Ties on the sort key are broken by id
// ascending so repeated calls return identical order.
func Search(apps []Application, q Query) []Application {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	out := make([]Application, 0, len(apps))
	for _, a := range apps {
		if !matchesText(a, text) || !matchesFilters(a, q) {
			continue
		}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		c := compare(out[i], out[j], q.SortBy)
		if c != 0 {
			if q.Descending {
				return c > 0
			}
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func matchesText(a Application, text string) bool {
	if text == "" {
		return true
	}
	for _, field := range []string{a.StudentName, a.InstitutionName, a.ID, a.CourseOfStudy} {
		if strings.Contains(strings.ToLower(field), text) {
			return true
		}
	}
	return false
}

func matchesFilters(a Application, q Query) bool {
	if len(q.Statuses) > 0 {
		found := false
		for _, s := range q.Statuses {
			if a.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.AcademicYear != "" && a.AcademicYear != q.AcademicYear {
		return false
	}
	if q.InstitutionType != "" && !strings.EqualFold(a.InstitutionType, q.InstitutionType) {
		return false
	}
	if q.FundCategory != "" && !strings.EqualFold(a.FundCategory, q.FundCategory) {
		return false
	}
	return true
}

func compare(a, b Application, field SortField) int {
	switch field {
	case SortByAmount:
		return a.RequestedAmount.Cmp(b.RequestedAmount)
	case SortByName:
		return strings.Compare(strings.ToLower(a.StudentName), strings.ToLower(b.StudentName))
	case SortByDate, "":
		da, db := a.SortDate(), b.SortDate()
		switch {
		case da.Before(db):
			return -1
		case da.After(db):
			return 1
		}
		return 0
	}
	return 0
}
