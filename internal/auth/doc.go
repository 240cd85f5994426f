// Package auth implements the request-scoped security pipeline of the notes
// API: password verification, signed session tokens, per-request identity
// resolution, the authentication middleware, and the route access policy.
//
// Tokens carry only the username and validity window. Roles and account
// status are re-read from the store on every request, so changes take effect
// without reissuing tokens.
package auth
