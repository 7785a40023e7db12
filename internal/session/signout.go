package session

import (
	"context"
	"fmt"
)

// LandingPath is the anonymous landing view.
const LandingPath = "/"

// Navigator moves the UI to path.
type Navigator func(path string)

// SignOut removes the stored token, publishes the anonymous snapshot via
// update and navigates to the landing view. It can be called from any UI
// context that holds the two callbacks without owning the State itself.
// The snapshot is cleared and navigation happens even when removal fails;
// the removal error is still returned.
func SignOut(ctx context.Context, store TokenStore, update func(Snapshot), navigate Navigator) error {
	var err error
	if store != nil {
		if rmErr := store.Remove(ctx); rmErr != nil {
			err = fmt.Errorf("remove token: %w", rmErr)
		}
	}
	if update != nil {
		update(Snapshot{})
	}
	if navigate != nil {
		navigate(LandingPath)
	}
	return err
}
