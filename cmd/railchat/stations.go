package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/railchat/pkg/adapters/sqlite"
)

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "Manage the sqlite station directory",
}

var stationsImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Load stations from CSV records of name,crs[,county]",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := openStationDB(cmd)
		if err != nil {
			return err
		}
		defer dir.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		n, err := dir.Import(cmd.Context(), f)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d stations\n", n)
		return nil
	},
}

var stationsLookupCmd = &cobra.Command{
	Use:   "lookup <query>",
	Short: "Search stations by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		dir, err := openStationDB(cmd)
		if err != nil {
			return err
		}
		defer dir.Close()

		found, err := dir.Search(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No stations found.")
			return nil
		}
		for _, st := range found {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", st.Code, st.Name, st.County)
		}
		return nil
	},
}

// openStationDB opens --db, falling back to stations.db from the config.
func openStationDB(cmd *cobra.Command) (*sqlite.Directory, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return nil, err
		}
		path = cfg.Stations.DB
	}
	if path == "" {
		return nil, fmt.Errorf("no station database: set --db or stations.db")
	}
	return sqlite.Open(path)
}

func init() {
	rootCmd.AddCommand(stationsCmd)
	stationsCmd.AddCommand(stationsImportCmd)
	stationsCmd.AddCommand(stationsLookupCmd)

	stationsCmd.PersistentFlags().String("db", "", "Path to the station database (default: stations.db from the config)")
	stationsLookupCmd.Flags().IntP("limit", "n", 10, "Maximum number of results")
}
