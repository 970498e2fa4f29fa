package content

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/studymate/internal/common"
)

// Scope narrows a listing by authorship.
type Scope string

const (
	ScopeAll      Scope = "all"
	ScopeMine     Scope = "mine"
	ScopePartners Scope = "partners"
)

// Sort orders a listing.
type Sort string

const (
	SortNewest    Sort = "newest"
	SortOldest    Sort = "oldest"
	SortTitleAsc  Sort = "title_asc"
	SortTitleDesc Sort = "title_desc"
)

// ListOptions filters applied after visibility scoping. Zero values mean
// no search, any category, all visible authors, newest first.
type ListOptions struct {
	Search   string
	Category string
	Scope    Scope
	Sort     Sort
}

func ParseScope(s string) (Scope, error) {
	switch sc := Scope(strings.ToLower(strings.TrimSpace(s))); sc {
	case "":
		return ScopeAll, nil
	case ScopeAll, ScopeMine, ScopePartners:
		return sc, nil
	default:
		return "", fmt.Errorf("%w: unknown scope %q", common.ErrorValidation, s)
	}
}

func ParseSort(s string) (Sort, error) {
	switch so := Sort(strings.ToLower(strings.TrimSpace(s))); so {
	case "":
		return SortNewest, nil
	case SortNewest, SortOldest, SortTitleAsc, SortTitleDesc:
		return so, nil
	default:
		return "", fmt.Errorf("%w: unknown sort %q", common.ErrorValidation, s)
	}
}

// Stats summarises the records an actor can see.
type Stats struct {
	Count      int `json:"count"`
	TotalChars int `json:"total_chars"`
	Authors    int `json:"authors"`
}
