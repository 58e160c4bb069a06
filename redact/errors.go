package redact

import "errors"

// ErrProtectRegion is returned when a Protect region reaches the applier.
// Only the resolver consumes Protect regions.
var ErrProtectRegion = errors.New("redact: protect region passed to applier")

// ErrUnparsedContent is returned when a page under a region has a content
// stream that cannot be parsed. The text on it cannot be removed, so the
// document is not written.
var ErrUnparsedContent = errors.New("redact: page content cannot be parsed")
