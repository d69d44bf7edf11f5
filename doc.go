// Package accounts implements the user-account subsystem for a web
// application: registration, credential storage, session login/logout, email
// confirmation, password reset, and role-gated access.
//
// The package is organized in three collaborating layers:
//
//   - a credential store hashing and verifying passwords with bcrypt
//   - a signed token service issuing purpose-scoped, time-limited action
//     tokens that stand in for stateful confirmation/reset records
//   - command handlers orchestrating the account workflows on top of a
//     bun-backed repository
//
// Rendering, mail transport, and schema migration tooling are external
// collaborators consumed through the Mailer, Logger, and Config interfaces.
package accounts
