// Package web hosts the browser-facing pharmadesk service: credential
// sign-in, the session endpoint and the dashboard pages.
//
// Handlers read the current identity from the session package only; which
// session strategy backs it is decided by the command that builds Config.
package web
