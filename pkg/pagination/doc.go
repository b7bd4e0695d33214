// Package pagination provides cursor-driven fetching for paginated APIs.
//
// The Notion search endpoint returns results in pages. Each response carries
// a next_cursor token and a has_more flag, and the next request must send
// that cursor back as start_cursor. Requests therefore depend on each other
// and run strictly one at a time.
//
// Example usage:
//
//	paginator := pagination.NewCursor[notion.Page](notionClient, pagination.DefaultConfig())
//	pages, err := paginator.FetchAll(ctx)
//
// The cursor paginator:
//   - Starts with an empty cursor
//   - Appends each page's results in order
//   - Stops when the remote reports has_more = false
//   - Returns on the first error without partial results
//
// There is no built-in upper bound on the number of requests: a remote that
// never clears has_more keeps the loop running. Set Config.MaxPages to cap it.
package pagination
