// Package driver abstracts one navigable browser session. The core
// pipeline only talks to Session; selector literals live in the site
// adapters and the concrete implementation is Playwright.

package driver

import "context"

// Session is a single browser page plus the ability to spawn detail
// tabs. A Session is not safe for concurrent use; run one logical
// worker per session.
type Session interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL() string
	Title() (string, error)

	// Count returns how many elements match the selector.
	Count(selector string) (int, error)
	// Text returns the text content of the first match.
	Text(selector string) (string, error)
	// Attr returns an attribute of the first match.
	Attr(selector, name string) (string, error)
	// InnerHTML returns the inner HTML of the first match, for
	// adapters that parse the listing container in one pass.
	InnerHTML(selector string) (string, error)

	Click(selector string) error
	Type(selector, text string) error
	UploadFile(selector, path string) error
	ScrollBy(pixels int) error

	// SnapshotFingerprint captures a cheap content fingerprint used by
	// the stability detector.
	SnapshotFingerprint() (string, error)

	// NewTab opens a detail view in a fresh tab sharing this session's
	// cookies. Close the returned Session to return to the list.
	NewTab(ctx context.Context, url string) (Session, error)

	// Screenshot saves a debug screenshot under the given name.
	Screenshot(name string) error

	Close() error
}
