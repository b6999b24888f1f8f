package core

import "errors"

// ErrUnsupportedFormat is returned at the document ingestion boundary for
// anything that is not plain text. Uploads are never silently mis-parsed.
var ErrUnsupportedFormat = errors.New("unsupported document format (only plain text is accepted)")
