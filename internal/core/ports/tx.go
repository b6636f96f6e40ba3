package ports

import "context"

// TxManager runs fn inside a storage transaction. Repository calls made with
// the ctx handed to fn join the transaction; any error from fn rolls it back.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
