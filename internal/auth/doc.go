// Package auth identifies the user a request acts for.
//
// Two modes are supported, selected by AUTH_MODE:
//
//   - none: every request acts as AUTH_DEFAULT_USER_ID (single user setups).
//   - token: requests must carry "Authorization: Bearer <token>", where the
//     token is the user's API token. /health and /ping stay public.
//
// Handlers read the user with GetUserID(c); nothing else in the request path
// decides who the caller is.
package auth
