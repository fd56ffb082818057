package handlers_test

import (
	"io"
	"log/slog"
	"time"

	"github.com/SscSPs/fx_rates_proxy/internal/core/domain"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustDate(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
