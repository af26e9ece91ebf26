// Package auth provides login accounts, cookie sessions and the request
// middleware protecting the library's admin surface.
//
// Accounts (librarians and admins) are separate from the borrower records
// in internal/database/users: a pupil never logs in. Sessions are stored
// server-side in SQLite via scs; CSRF protection uses gorilla/csrf with
// the token exposed in a response header for the JSON endpoints.
package auth
