// Package coordination defines the contract between the event bus and the
// supervising coordinator. The decision logic behind ProcessEvent is an
// external black box; the bus only depends on this interface.
package coordination

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/adityakp21/chargegrid/core/model"
)

// Coordinator evaluates one agent event and decides how to react.
// Implementations may take non-trivial wall-clock time; callers bound the
// evaluation with the context deadline.
type Coordinator interface {
	ProcessEvent(ctx context.Context, ev model.Event) (model.CoordinationResult, error)
}

// MonitorCoordinator acknowledges every event with the monitor action. It is
// the default when no external coordinator is plugged in.
type MonitorCoordinator struct{}

// ProcessEvent returns a successful monitor result for the event.
func (MonitorCoordinator) ProcessEvent(_ context.Context, ev model.Event) (model.CoordinationResult, error) {
	return model.CoordinationResult{
		EventID:         "COORD_" + uuid.NewString(),
		OriginalEventID: ev.EventID,
		StationID:       ev.StationID,
		Action:          model.ActionMonitor,
		Success:         true,
		Timestamp:       time.Now().UTC(),
	}, nil
}

// Func adapts a plain function to the Coordinator interface.
type Func func(ctx context.Context, ev model.Event) (model.CoordinationResult, error)

// ProcessEvent calls the wrapped function.
func (f Func) ProcessEvent(ctx context.Context, ev model.Event) (model.CoordinationResult, error) {
	return f(ctx, ev)
}
