// Package bazaar is the client for the remote hash feed service.
//
// Two operations exist: a lightweight query for the newest sample
// timestamp the service currently holds, and a bulk download of the full
// feed CSV. Both carry finite timeouts and report failure as ordinary
// errors; callers treat every client error as a recoverable "remote
// unavailable" signal, never as a fatal condition. The hot lookup path
// never touches this package.
package bazaar
