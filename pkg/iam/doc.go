// Package iam provides account administration for account-idm.
//
// # Overview
//
// The iam package provides:
//   - Listing every account, newest first
//   - Creating accounts with any combination of roles
//   - Whitelisted updates (name, email, phone, isAdmin, isBusiness, isUser)
//   - Deleting accounts
//   - Promotion to a business account
//   - Temporary admin grants of 1day, 1week or 1month
//
// Administrators cannot delete their own account or remove their own admin
// role.
//
// # Temporary admin grants
//
// A grant sets isAdmin and tempAdminExpiry in one store write. Once the
// expiry has passed the account is no longer an effective admin, which the
// access guard checks on every request. The stored flag is corrected by the
// Reconciler, which ListUsers runs before returning:
//
//	service := iam.NewAdminService(repo)
//	users, err := service.ListUsers(ctx) // lapsed grants are revoked first
//
// Each revocation is its own write, issued concurrently. A failed write is
// logged and the listing still reports the account as not admin.
//
// # HTTP
//
// The api subpackage serves the /admin routes. SecureHandler wraps them with
// client.Guard authentication and the effective admin check.
package iam
