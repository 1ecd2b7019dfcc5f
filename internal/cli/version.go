package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := NewOutput(cmd)
			if out.IsJSON() {
				out.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
					"go_version": runtime.Version(),
					"platform":   runtime.GOOS + "/" + runtime.GOARCH,
				})
				return
			}
			out.Printf("algobot %s\n", Version)
			out.Dim("built %s, %s, %s/%s", BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
