package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/typeahead/am"
	"github.com/teranos/typeahead/errors"
	"github.com/teranos/typeahead/logger"
	"github.com/teranos/typeahead/server"
	"github.com/teranos/typeahead/sym"
	"github.com/teranos/typeahead/version"
)

// ServeCmd starts the typeahead server
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   sym.Transport + " Start the typeahead server",
	Long: `Start the typeahead server.

Serves the JSON API under /api, a WebSocket language server under /lsp for
editors, and /health. The project am.toml is watched and limits are applied
without a restart.`,
	RunE: runServe,
}

var servePort int

func init() {
	ServeCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides server.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	verbosity, _ := cmd.Flags().GetCount("verbose")
	if verbosity == 0 {
		verbosity = logger.VerbosityInfo
		logger.SetLevel(logger.VerbosityToLevel(verbosity))
	}

	ws, err := openWorkspace(cmd.Context())
	if err != nil {
		return err
	}
	defer ws.Close()

	if ws.cfg.Server.LogTheme != "" {
		logger.SetTheme(ws.cfg.Server.LogTheme)
	}

	port := ws.cfg.GetServerPort()
	if servePort > 0 {
		port = servePort
	}

	printStartupBanner(verbosity, resolveDBPath(ws.cfg), port, ws.dir.Snapshot().Counts())

	srv := server.New(ws.dir, ws.cfg, server.Options{
		Logger:     logger.ComponentLogger("server"),
		ConfigPath: am.ProjectConfigPath(),
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(port)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return errors.Wrap(err, "server failed")
	case <-sigChan:
		pterm.Info.Println("Shutting down gracefully (press Ctrl+C again to force)...")

		shutdownDone := make(chan error, 1)
		go func() {
			shutdownDone <- srv.Stop()
		}()

		select {
		case err := <-shutdownDone:
			if err != nil {
				return fmt.Errorf("shutdown error: %w", err)
			}
			pterm.Success.Println("Server stopped cleanly")
			return nil
		case <-sigChan:
			pterm.Warning.Println("Force shutdown - exiting immediately")
			os.Exit(1)
			return nil
		}
	}
}

// printStartupBanner prints the user-facing startup summary
func printStartupBanner(verbosity int, dbPath string, port int, counts map[string]int) {
	info := version.Get()

	pterm.DefaultHeader.WithFullWidth().Println("typeahead")
	pterm.Printf("%s %s\n", pterm.Gray("Version:  "), info.String())
	pterm.Printf("%s %s\n", pterm.Gray("Verbosity:"), logger.LevelName(verbosity))
	pterm.Printf("%s %s\n", pterm.Gray("Database: "), dbPath)
	pterm.Printf("%s %d people, %d channels, %d groups, %d emoji\n", pterm.Gray("Directory:"),
		counts["users"], counts["streams"], counts["groups"], counts["emoji"])
	pterm.Printf("%s http://localhost:%d (ws://localhost:%d/lsp)\n", pterm.Gray("Listening:"), port, port)
	pterm.Println()
	pterm.Printf("%s\n", pterm.LightCyan("Press Ctrl+C to stop"))
}
