package adaptive

import (
	"context"
	"encoding/json"
	"io"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Export writes the current history to storage under key as a JSON array
// and returns the number of events written
func (uc *UseCase) Export(ctx context.Context, key string) (int, error) {
	if uc.storage == nil {
		return 0, goerr.Wrap(ErrNoStorage, "cannot export history", goerr.V("key", key))
	}

	events := uc.history.Snapshot()
	data, err := json.Marshal(events)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to encode history", goerr.V("key", key))
	}

	w, err := uc.storage.Put(ctx, key)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to open export", goerr.V("key", key))
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		w.Abort()
		return 0, goerr.Wrap(err, "failed to write history", goerr.V("key", key))
	}
	if err := w.Close(); err != nil {
		return 0, goerr.Wrap(err, "failed to finish export", goerr.V("key", key))
	}

	logging.From(ctx).Info("history exported", "key", key, "events", len(events))
	return len(events), nil
}

// Import replays a stored history snapshot into the history, oldest first.
// Eviction applies per event, so only the newest entries survive when the
// snapshot exceeds the capacity.
func (uc *UseCase) Import(ctx context.Context, key string) (int, error) {
	events, err := uc.ReadSnapshot(ctx, key)
	if err != nil {
		return 0, err
	}

	uc.history.RecordAll(events)
	logging.From(ctx).Info("history imported", "key", key, "events", len(events))
	return len(events), nil
}

// ReadSnapshot loads a stored history snapshot without recording it
func (uc *UseCase) ReadSnapshot(ctx context.Context, key string) ([]model.Value, error) {
	if uc.storage == nil {
		return nil, goerr.Wrap(ErrNoStorage, "cannot import history", goerr.V("key", key))
	}

	r, err := uc.storage.Get(ctx, key)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open snapshot", goerr.V("key", key))
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read snapshot", goerr.V("key", key))
	}

	var events []model.Value
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, goerr.Wrap(err, "invalid history snapshot", goerr.V("key", key))
	}
	return events, nil
}
