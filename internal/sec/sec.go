// Package sec provides authentication and security primitives for the
// taskdeck web application.
//
// # Authentication
//
// Browser sessions use a signed HS256 token ([IssueSessionToken]) carried in
// an HttpOnly cookie. The token holds only the user ID; the user row is
// re-resolved from storage on every request, so a deleted account degrades
// to an anonymous caller immediately.
//
// # Components
//
//   - [IssueSessionToken], [ParseSessionToken]: session cookie tokens
//   - [WithPrincipal], [PrincipalFrom]: context accessors for the
//     authenticated caller
//   - [HashPassword], [ComparePassword]: bcrypt password hashing utilities
package sec
