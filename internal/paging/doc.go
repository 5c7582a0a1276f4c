// Package paging drives the fetch/append/refresh lifecycle of one
// cursor-paginated list.
//
// A Paginator owns a state.Store and a FetchFunc. LoadInitial and Refresh
// request the first page and replace the items, LoadMore requests the page
// after the stored cursor and appends it. Refresh differs from LoadInitial
// only in the flag it raises (IsRefreshing instead of IsLoading) so a
// pull-to-refresh spinner can be shown without blanking the list.
//
// Every LoadInitial/Refresh bumps the list generation. A LoadMore response
// tagged with an older generation is discarded without touching the items,
// so a refresh can never be interleaved with a stale append. LoadMore is a
// no-op while a load-more, initial load or refresh is already running, or
// when the last page said there is nothing more.
//
// Screens call MaybeLoadMore with the index of the last visible row; it
// loads the next page once that index is within Lookahead rows of the end.
package paging
