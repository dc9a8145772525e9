package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.2.0"

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dyntree",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dyntree v%s\n", version)
		},
	}
}
