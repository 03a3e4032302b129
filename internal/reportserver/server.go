// Package reportserver exposes a single sync.Report over HTTP: a JSON
// endpoint for tooling and a rendered HTML page for humans (spec §6
// "Log/report", optional serving mode).
package reportserver

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"subsync/internal/sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Server serves one report for the lifetime of the process. It is
// built once a Synchronizer run has finished; there is no polling or
// job queue, unlike the multi-job dashboard it is adapted from.
type Server struct {
	report  *sync.Report
	entries int
	e       *echo.Echo
}

func New(report *sync.Report, entryCount int) *Server {
	s := &Server{report: report, entries: entryCount}

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/", s.page)
	e.GET("/report.json", s.reportJSON)
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	s.e = e
	return s
}

func (s *Server) reportJSON(c echo.Context) error {
	return c.JSON(http.StatusOK, s.report)
}

func (s *Server) page(c echo.Context) error {
	return render(c, reportPage(s.report, s.entries))
}

// ListenAndServe blocks, serving on port until ctx is canceled or an
// OS interrupt/term signal arrives, whichever comes first.
func (s *Server) ListenAndServe(ctx context.Context, port string) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}
		s.e.Shutdown(context.Background())
	}()

	if err := s.e.Start(fmt.Sprintf(":%s", port)); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
