//go:build integration

// Package testdb provides helpers for tests that run against a real
// PostgreSQL database.
//
// Tests opt in with the integration build tag and skip themselves when no
// database URL is configured:
//
//	func TestStore(t *testing.T) {
//	    db := testdb.GetTestDBWithT(t)
//	    owner := testdb.CreateTestUser(t, db)
//	    ...
//	}
//
// GetTestDBWithT applies the embedded migrations once per connection and
// closes the connection when the test ends. Statements that must not persist
// can run inside WithTx, which always rolls back.
package testdb
