package state

// Identifier is implemented by list items so the state can address them by
// entity id.
type Identifier interface {
	EntityID() string
}

// Page is one server response of a cursor-paginated list. An empty Cursor is
// the null cursor.
type Page[T any] struct {
	Items   []T
	Cursor  string
	HasMore bool
}

// CanContinue reports whether a follow-up page may be requested. HasMore wins
// over the presence of a cursor.
func (p Page[T]) CanContinue() bool {
	return p.HasMore && p.Cursor != ""
}

// LoadKind identifies which lifecycle call produced an event.
type LoadKind int

const (
	LoadInitial LoadKind = iota
	LoadMore
	LoadRefresh
)

func (k LoadKind) String() string {
	switch k {
	case LoadInitial:
		return "initial"
	case LoadMore:
		return "more"
	case LoadRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}
