package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/charlie0129/vnacal/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", color.CyanString(version.Version), version.GitCommit)
		},
	}
}
