package cmdutil

import (
	"context"

	"github.com/14rynx/heat-simulator/internal/engine"
)

// RunStream runs the rack, applies a visitor to every tick snapshot, and
// streams kept rows via send. It returns the number of kept rows, the final
// distributions and the first error encountered.
func RunStream[T any](
	ctx context.Context,
	rack *engine.Rack,
	visit func(engine.Snapshot) (bool, T, error),
	send func(T) error,
) (int, engine.Result, error) {
	total := 0
	res, err := rack.Run(ctx, func(s engine.Snapshot) error {
		keep, out, vErr := visit(s)
		if vErr != nil {
			return vErr
		}
		if !keep {
			return nil
		}
		if err := send(out); err != nil {
			return err
		}
		total++
		return nil
	})
	return total, res, err
}
