package domain

import (
	"testing"

	"hotelcare/testutil"
)

// TestDomainStaysPure keeps the model free of infrastructure so every backend
// and the CLI can share it.
func TestDomainStaysPure(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.AnyOf(testutil.InternalImportForbidden, testutil.DriverImportForbidden), "pkg/domain must not depend on internal packages or drivers")
}
