package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/Coelancanth/Darklands-sub002/internal/world"
	"github.com/Coelancanth/Darklands-sub002/internal/worldstore"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the grids a world carries",
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, name := range world.Fields() {
			fmt.Fprintf(tw, "%s\t%s\n", name, world.KindOf(name))
		}
		return tw.Flush()
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the worlds stored in --db",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	dbPath := viper.GetString("db")
	if dbPath == "" {
		return fmt.Errorf("--db is required")
	}

	store, err := worldstore.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	worlds, err := store.List(context.Background())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSEED\tSIZE\tFIELDS")
	for _, w := range worlds {
		fmt.Fprintf(tw, "%d\t%d\t%dx%d\t%d\n", w.ID, w.Seed, w.Width, w.Height, w.Fields)
	}
	return tw.Flush()
}
