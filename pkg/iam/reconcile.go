package iam

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tendant/account-idm/pkg/account"
	"golang.org/x/sync/errgroup"
)

// Reconciler clears temporary admin grants that have lapsed
type Reconciler struct {
	repo account.Repository
	// maxWrites bounds concurrent store writes; negative means unbounded
	maxWrites int
}

func NewReconciler(repo account.Repository, maxWrites int) *Reconciler {
	if maxWrites == 0 {
		maxWrites = -1
	}
	return &Reconciler{repo: repo, maxWrites: maxWrites}
}

// Sweep revokes every grant in accounts whose expiry is before now. Each
// revocation is its own store write, issued concurrently; the rows in
// accounts are rewritten in place whether or not their write succeeds.
// A failed write is logged and never stops the others. Returns the number
// of rows revoked.
func (rc *Reconciler) Sweep(ctx context.Context, accounts []account.Account, now time.Time) int {
	var g errgroup.Group
	g.SetLimit(rc.maxWrites)

	var failed atomic.Int32
	revoked := 0
	for i := range accounts {
		if !accounts[i].TempAdminLapsed(now) {
			continue
		}
		revoked++
		id := accounts[i].ID
		g.Go(func() error {
			if _, err := rc.repo.Update(ctx, id, revokePatch()); err != nil {
				failed.Add(1)
				slog.Error("Failed to revoke lapsed admin grant", "error", err, "userId", id)
			}
			return nil
		})
		accounts[i].IsAdmin = false
		accounts[i].TempAdminExpiry = nil
	}
	_ = g.Wait()

	if revoked > 0 {
		slog.Info("Revoked lapsed admin grants", "count", revoked, "failed", failed.Load())
	}
	return revoked
}

func revokePatch() account.Patch {
	notAdmin := false
	return account.Patch{IsAdmin: &notAdmin, ClearTempAdminExpiry: true}
}
