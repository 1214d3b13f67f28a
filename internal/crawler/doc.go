// Package crawler implements the single-origin crawl engine: the link
// extracting token sink, the fetch gate, the robots gate, the job envelope
// builder and the Spider that owns the frontier and drives them in sequence.
package crawler
