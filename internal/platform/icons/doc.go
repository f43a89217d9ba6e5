// Package icons defines the icon identifiers used by pharmadesk pages and
// the Lucide sprite that renders them.
package icons
