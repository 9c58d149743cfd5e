// Package walker implements resumable cursor pagination for the
// enrichment batch API.
//
// The API pages with a two-field key (name + birth) returned as
// next_after_key in every non-final response. The walker threads that key
// through strictly sequential requests and persists it to a
// checkpoint.Store after each page, so a run killed mid-walk picks up at
// the last confirmed position.
//
// Example usage:
//
//	c, _ := client.New(client.DefaultConfig("https://api.example.com"))
//	store, _ := checkpoint.NewFileStore("enrich-resume.json")
//	w, _ := walker.New(c, store, walker.DefaultConfig())
//	result, err := w.Run(ctx)
//
// The walker:
//   - Loads the checkpoint (absent = first page, unfiltered)
//   - Fetches one page at a time, handing each body to the PageHandler
//   - Saves the next key before advancing the cursor
//   - Clears the checkpoint when the server returns no next key
//   - Aborts on the first error, leaving the checkpoint for a later resume
package walker
