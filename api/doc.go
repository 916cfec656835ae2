// File: api/doc.go
// Package api defines the public contracts of wsbridge.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The api package holds every interface the upgrade bridge coordinates:
// the application Endpoint, the protocol Session, the notification-driven
// Transport, the connection Registry, and the execution Context swapped in
// around application callbacks. Implementations live in the sibling
// packages; api itself depends on nothing but the standard library.

package api
