package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/ternarybob/marketmood/internal/common"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if versionShort {
			fmt.Println(common.GetVersion())
			return
		}
		fmt.Println(common.GetFullVersion())
		fmt.Printf("go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version number")
}
