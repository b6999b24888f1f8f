package main

import (
	"github.com/spf13/cobra"
)

func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "recall",
		Short:         "Conversational personal-memory assistant",
		Long:          `An assistant that saves, recalls, updates, and deletes personal facts in a local vector-indexed memory store, driven by natural-language prompts.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String("config", "recall.yaml", "Path to the YAML config file")

	rootCmd.AddCommand(
		NewChatCmd(),
		NewServeCmd(),
	)
	return rootCmd
}
