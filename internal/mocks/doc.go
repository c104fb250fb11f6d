// Package mocks provides shared test doubles for store and auth interfaces.
//
// Most mocks expose function fields that override a sensible default, so a
// test only sets what it cares about:
//
//	store := mocks.NewMockTaskStore()
//	store.UpdateFn = func(ctx context.Context, t *domain.Task) error {
//	    return errors.New("db down")
//	}
package mocks
