// Copyright 2025 The Islands Bharath Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

// config holds flags, ISLANDS_* environment variables and the optional
// islands.yaml file, in that order of precedence.
var config = viper.New()

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "islands",
	Short: "geocoding and exploration of the Indian islands dataset",
	Long: `
islands resolves the names in the Indian islands dataset into coordinates
through a public geocoding service, checks the dataset for inconsistencies and
serves read-only tables, statistics and map layers over the result.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initConfig(cmd)
	},
}

func initConfig(cmd *cobra.Command) error {
	if cfgFile != "" {
		config.SetConfigFile(cfgFile)
	} else {
		config.SetConfigName("islands")
		config.SetConfigType("yaml")
		config.AddConfigPath(".")

		if dir, err := os.UserConfigDir(); err == nil {
			config.AddConfigPath(filepath.Join(dir, "islands"))
		}
	}

	config.SetEnvPrefix("ISLANDS")
	config.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	config.AutomaticEnv()

	if err := config.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	if err := config.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	} else {
		log.Printf("Using config file %s", config.ConfigFileUsed())
	}

	return nil
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Config file (default ./islands.yaml or $XDG_CONFIG_HOME/islands/islands.yaml)",
	)
	rootCmd.PersistentFlags().StringP(
		"input",
		"i",
		"",
		"Islands CSV to read",
	)
}

// inputPath returns the configured input file or fails when none is set.
func inputPath() (string, error) {
	input := config.GetString("input")
	if input == "" {
		return "", errors.New("no input file: use --input or set ISLANDS_INPUT")
	}

	return input, nil
}
