// Package softdelete holds the soft-delete convention shared by users,
// admins, doctors and patients: a flag, a timestamp and the acting user.
package softdelete

import (
	"strings"
	"time"
)

// Visibility selects which rows a read may return. Every repository read
// takes one explicitly; there is no ambient filter.
type Visibility int

const (
	// Active returns rows that are not soft-deleted.
	Active Visibility = iota
	// Deleted returns only soft-deleted rows.
	Deleted
	// Any ignores the soft-delete flag.
	Any
)

// FromIncludeDeleted maps the find(id, includeDeleted) form onto a Visibility.
func FromIncludeDeleted(includeDeleted bool) Visibility {
	if includeDeleted {
		return Any
	}
	return Active
}

// Clause returns a SQL predicate for the table alias, e.g. "d.is_deleted = FALSE".
// Any yields "TRUE" so it can be joined with AND unconditionally.
func (v Visibility) Clause(alias string) string {
	col := "is_deleted"
	if alias != "" {
		col = alias + ".is_deleted"
	}
	switch v {
	case Deleted:
		return col + " = TRUE"
	case Any:
		return "TRUE"
	default:
		return col + " = FALSE"
	}
}

// OwnedClause is Clause for a profile table joined to its owning account.
// An Active profile also needs an active account; the other visibilities
// look at the profile flag alone.
func (v Visibility) OwnedClause(alias, ownerAlias string) string {
	if v == Active {
		return v.Clause(alias) + " AND " + v.Clause(ownerAlias)
	}
	return v.Clause(alias)
}

func (v Visibility) String() string {
	switch v {
	case Deleted:
		return "deleted"
	case Any:
		return "any"
	default:
		return "active"
	}
}

// Fields are the persisted soft-delete columns.
type Fields struct {
	IsDeleted bool       `json:"isDeleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	DeletedBy *string    `json:"deletedBy,omitempty"`
}

// DeleteRequest is the body of a soft-delete call.
type DeleteRequest struct {
	DeletedBy string `json:"deletedBy"`
	Reason    string `json:"reason,omitempty"`
}

// RestoreRequest is the body of a restore call.
type RestoreRequest struct {
	RestoredBy string `json:"restoredBy"`
}

// Actor picks the recorded actor: the explicit value when given, otherwise
// the authenticated caller.
func Actor(explicit, caller string) string {
	if s := strings.TrimSpace(explicit); s != "" {
		return s
	}
	return caller
}
