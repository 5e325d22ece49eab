/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: worker.go
Description: Worker command implementation for Statscope. Runs a persistent
parse session speaking the newline-delimited worker protocol over standard
input and output until told to shut down or the request ceiling is reached.
*/

package commands

import (
	"fmt"
	"os"

	"github.com/kleascm/statscope/pkg/worker"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunWorker runs a protocol session on stdin/stdout
// Stdout belongs to the protocol, so all logging goes to stderr on a plain
// logger instead of the file-backed one the other commands use.
func RunWorker(cmd *cobra.Command, args []string) error {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if level, err := logrus.ParseLevel(viper.GetString("log_level")); err == nil {
		logger.SetLevel(level)
	}

	session := worker.NewSession(logger,
		worker.WithRequestCeiling(viper.GetInt("request_ceiling")),
		worker.WithLineLimit(viper.GetInt("max_lines")))

	if err := session.Run(os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("worker session failed: %w", err)
	}
	return nil
}
