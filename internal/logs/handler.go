package logs

import (
	"context"
	"log/slog"
)

type fileKey struct{}

// WithFile tags ctx with the source file being compiled. Records logged
// with that context carry a "file" attribute.
func WithFile(ctx context.Context, filename string) context.Context {
	return context.WithValue(ctx, fileKey{}, filename)
}

// FileFrom returns the file set by WithFile.
func FileFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(fileKey{}).(string)
	return v, ok
}

type Handler struct {
	slog.Handler
}

func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	if file, ok := FileFrom(ctx); ok {
		record.Add("file", file)
	}
	return h.Handler.Handle(ctx, record)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{Handler: h.Handler.WithGroup(name)}
}
