package payment

import (
	"context"

	"github.com/alinasirlou2020/mobile-shop/internal/domain/identity"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Gateway moves value to a participant. An ordinary failed transfer
// (rejecting recipient, no external capacity) is reported as StatusFailed
// with a nil error; the error return is reserved for abnormal conditions
// such as context cancellation. Implementations must never panic for a
// failed transfer.
type Gateway interface {
	Transfer(ctx context.Context, to identity.ID, amount int64) (Status, error)
}
