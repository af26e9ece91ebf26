package search

import (
	"strconv"
	"strings"

	"github.com/openlibry/openlibry/internal/entities"
)

// NoExactMatch is the sentinel returned when a query does not resolve to a
// single unambiguous user.
const NoExactMatch = -1

// FilterUsers applies a search string against the full borrower list and
// returns the matching subset plus an exact-match ID for barcode-style
// auto-selection. The rentals slice supplies the overdue information the
// "fällig?" modifier filters on.
//
// An empty query short-circuits to the full list with no exact match. A
// purely numeric query is treated as a zero-padded ID scan: leading zeros
// are stripped and modifier parsing is skipped.
func FilterUsers(users []entities.User, rentals []entities.RentalProjection, rawQuery string) ([]entities.User, int) {
	trimmed := strings.TrimSpace(rawQuery)
	if trimmed == "" {
		return users, NoExactMatch
	}

	var query Query
	if isAllDigits(trimmed) {
		query = Query{Text: stripLeadingZeros(trimmed)}
	} else {
		query = ParseQuery(trimmed)
	}

	overdueUsers := overdueUserSet(rentals)

	filtered := make([]entities.User, 0, len(users))
	for _, user := range users {
		if !matchesText(user, query.Text) {
			continue
		}
		if query.HasClassFilter && !matchesClass(user, query.ClassFilter) {
			continue
		}
		if query.Overdue && !overdueUsers[user.ID] {
			continue
		}
		filtered = append(filtered, user)
	}

	return filtered, exactMatchID(filtered, query.Text)
}

// matchesText is the residual-term predicate: case-insensitive substring
// match against last name, first name or the stringified ID. An empty term
// matches everyone.
func matchesText(user entities.User, term string) bool {
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(user.LastName), term) {
		return true
	}
	if strings.Contains(strings.ToLower(user.FirstName), term) {
		return true
	}
	return strings.Contains(strconv.FormatUint(uint64(user.ID), 10), term)
}

// matchesClass is the class predicate: the user's school grade must start
// with the filter label, compared case-insensitively.
func matchesClass(user entities.User, label string) bool {
	return strings.HasPrefix(strings.ToLower(user.SchoolGrade), label)
}

// overdueUserSet collects the IDs of users holding at least one loan that
// is past due.
func overdueUserSet(rentals []entities.RentalProjection) map[uint]bool {
	set := make(map[uint]bool)
	for _, rental := range rentals {
		if rental.DueDays > 0 {
			set[rental.UserID] = true
		}
	}
	return set
}

// exactMatchID resolves a single unambiguous user from the filtered set:
// a singleton result wins outright; otherwise a unique literal ID match on
// the residual term; otherwise the NoExactMatch sentinel.
func exactMatchID(filtered []entities.User, term string) int {
	if len(filtered) == 1 {
		return int(filtered[0].ID)
	}

	match := NoExactMatch
	for _, user := range filtered {
		if strconv.FormatUint(uint64(user.ID), 10) == term {
			if match != NoExactMatch {
				return NoExactMatch // ambiguous
			}
			match = int(user.ID)
		}
	}
	return match
}
