package imports

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
)

// HandleBMDTask returns an Asynq handler that imports the BMD drop file at
// path. A missing file means no export landed since the last run and is not
// an error.
func HandleBMDTask(service *Service, path string, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		return handleDropFile(ctx, path, logger, service.RunBMD)
	}
}

// HandleFinmaticsTask returns an Asynq handler for the Finmatics drop file.
func HandleFinmaticsTask(service *Service, path string, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		return handleDropFile(ctx, path, logger, service.RunFinmatics)
	}
}

func handleDropFile(ctx context.Context, path string, logger *slog.Logger, run func(context.Context, io.Reader) (Summary, error)) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		logger.Info("import: no drop file", slog.String("path", path))
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = run(ctx, f)
	return err
}
