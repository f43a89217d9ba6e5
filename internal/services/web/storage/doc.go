// Package storage declares persistence types for web-owned account and
// session data.
package storage
