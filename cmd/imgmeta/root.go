// Package main is the imgmeta CLI: dump EXIF/PSD metadata and decode a
// PSD's merged image to PNG, wired to the settings/config stack the
// rest of this module shares.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/For0xLC/jpegview/internal/logger"
	"github.com/For0xLC/jpegview/settings"
	"github.com/spf13/cobra"
)

func main() {
	Execute()
}

// Execute builds and runs the root command, cancelling its context on
// SIGINT/SIGTERM the same way the Google Takeout importer's
// pkg/cli/root.go does.
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		logger.Info("received interrupt signal, shutting down")
		cancel()
	}()

	var logLevel string
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "imgmeta",
		Short: "Inspect and decode EXIF/PSD image metadata",
		Long:  "imgmeta reads EXIF metadata from JPEG images and decodes Adobe Photoshop PSD/PSB files, including their embedded thumbnail; the layer/mask section is skipped, not decoded.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.SetLevel(logLevel)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a settings config file")

	newSettings := func() (*settings.Settings, error) {
		return settings.New(configFile)
	}

	rootCmd.AddCommand(newDumpCommand(newSettings))
	rootCmd.AddCommand(newDecodeCommand(newSettings))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}
