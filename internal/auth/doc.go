// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 remix-auth-example Contributors

// Package auth provides credential verification and session lifecycle
// management.
//
// # Primitives
//
//   - Argon2idHasher - memory-hard password hashing with self-describing
//     PHC strings
//   - HashPool - bounds concurrent hash computations
//   - GenerateSessionToken / DeriveSessionID - opaque client tokens and the
//     one-way storage key derived from them
//
// # Services
//
//   - SessionManager - create, validate (with lazy expiry and sliding
//     renewal) and invalidate sessions
//   - Service - signup, login and logout flows on top of a UserDirectory
//   - Sweeper - scheduled bulk removal of expired sessions
//
// Storage is reached only through the UserDirectory and SessionRepository
// interfaces. Implementations live in the postgres and redis subpackages.
package auth
