package main

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/ensego/cmd/compare"
	"github.com/YuminosukeSato/ensego/cmd/gen"
	"github.com/YuminosukeSato/ensego/cmd/oob"
	"github.com/YuminosukeSato/ensego/cmd/version"
)

var root = &cobra.Command{
	Use:   "ensego",
	Short: "Ensemble classifier experiments on tabular data",
}

func init() {
	root.AddCommand(
		compare.CMD,
		gen.CMD,
		oob.CMD,
		version.CMD,
	)
}

func main() {
	root.Execute()
}
