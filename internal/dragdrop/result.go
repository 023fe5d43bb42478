package dragdrop

import (
	"context"
	"fmt"
)

// Result is the outcome of a remote order update. It is either Success or
// Failure; callers switch on the concrete type.
type Result interface {
	isResult()
}

// Success carries the record returned by the remote store.
type Success struct {
	Data any
}

// Failure describes a rejected or unreachable remote update. Status is the
// remote status code, zero when the request never got a response.
type Failure struct {
	Message string
	Status  int
}

func (Success) isResult() {}
func (Failure) isResult() {}

func (f Failure) Error() string {
	if f.Status != 0 {
		return fmt.Sprintf("%s (status %d)", f.Message, f.Status)
	}
	return f.Message
}

// Syncer pushes a new order key for one item to the remote store. Ordinary
// remote rejections and local transport errors are both returned as Failure.
type Syncer interface {
	SyncOrder(ctx context.Context, itemID int64, key float64) Result
}

// SyncFunc adapts a plain function to Syncer.
type SyncFunc func(ctx context.Context, itemID int64, key float64) Result

func (f SyncFunc) SyncOrder(ctx context.Context, itemID int64, key float64) Result {
	return f(ctx, itemID, key)
}
