package dbx

import "context"

// SerializableAttempts bounds how often WithSerializableTx re-runs fn.
const SerializableAttempts = 3

// WithSerializableTx runs fn in a serializable unit of work on s and
// re-runs it when the database reports a serialization failure.
func WithSerializableTx(ctx context.Context, s Store, fn func(ctx context.Context, tx DBTX) error) error {
	var err error
	for i := 0; i < SerializableAttempts; i++ {
		err = s.WithTx(ctx, Serializable, fn)
		if !IsSerializationFailure(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}
