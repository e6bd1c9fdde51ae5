// Package tenant defines the scoping key shared by every component of the
// retrieval core: a TenantIndex is owned exclusively by one process for
// mutation and keyed by (userId, org, applicationId).
package tenant

import "fmt"

// Key identifies the tenant an index belongs to. It is comparable, so it
// can key maps directly, and its String form is the tenant field a
// ClusterBus peer uses to find the right TenantIndex handle before
// executing a remote call.
type Key struct {
	UserID string
	Org    string
	AppID  string
}

// String renders the canonical directory-safe form
// "<userId>_<org>_<appId>" used for the on-disk persistence layout.
func (k Key) String() string {
	return fmt.Sprintf("%s_%s_%s", k.UserID, k.Org, k.AppID)
}

// IsZero reports whether k is the zero Key.
func (k Key) IsZero() bool {
	return k.UserID == "" && k.Org == "" && k.AppID == ""
}
