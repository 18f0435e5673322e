package services

import (
	"context"
	"errors"

	"github.com/appear/aiq/internal/preview"
)

// ServeParams configure the local preview server.
type ServeParams struct {
	Port  int
	Host  string
	Root  string
	Watch bool
}

// Serve runs the preview server on the application folder until ctx is
// cancelled.
func (s *Services) Serve(ctx context.Context, params ServeParams) error {
	root := params.Root
	if root == "" {
		root = s.cwd
	}

	server, err := preview.New(root, params.Port,
		preview.WithLogger(s.logger),
		preview.WithHost(params.Host),
		preview.WithWatch(params.Watch),
		preview.WithReadyHandler(func(url string) {
			s.printer.Info("Server is running at %s\nPress Ctrl+C to stop.", url)
		}),
		preview.WithChangeHandler(func(path string) {
			s.printer.Info("Changed: %s", path)
		}),
	)
	if err != nil {
		switch {
		case errors.Is(err, preview.ErrPortRange), errors.Is(err, preview.ErrInvalidPath), errors.Is(err, preview.ErrNoIndex):
			return &Error{Kind: KindValidation, Message: err.Error(), Err: err}
		}
		return ioError(err.Error(), err)
	}

	if err := server.Run(ctx); err != nil {
		return ioError(err.Error(), err)
	}
	return nil
}
