// Package transport moves scene bundles out of the process.
//
// Buffers travel as base64 encoded little-endian bytes next to their
// dtype and shape. A Display is the optional sink a caller shows a bundle
// on; it is resolved once and may be the Unavailable null object.
package transport
