package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "edugenius",
	Short:         "EduGenius AI backend",
	Long:          `Serves the EduGenius AI API (RAG chat, quiz and course generation) and runs maintenance tasks against its database and vector index.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
