// File: pool/doc.go
// Package pool
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Generic object pooling, trimmed down to the one shape this repo's
// domain actually needs: reusing transient *bytes.Buffer values so
// concurrent hash-table Print calls don't allocate on every call and
// don't interleave partial writes to a shared io.Writer.
package pool
