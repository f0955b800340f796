package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"svcman/internal/services"
)

type listItem struct {
	Index int     `json:"index" yaml:"index"`
	Tag   string  `json:"tag" yaml:"tag"`
	Name  string  `json:"name" yaml:"name"`
	Path  *string `json:"path" yaml:"path"`
}

func toListItems(records []services.Record) []listItem {
	items := make([]listItem, 0, len(records))
	for i, rec := range records {
		it := listItem{Index: i, Tag: rec.Tag(), Name: rec.Name}
		if rec.Location != "" {
			loc := rec.Location
			it.Path = &loc
		}
		items = append(items, it)
	}
	return items
}

func renderList(w io.Writer, records []services.Record, output string) error {
	switch output {
	case "json":
		data, err := json.MarshalIndent(toListItems(records), "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(toListItems(records)); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		if len(records) == 0 {
			_, err := fmt.Fprintln(w, "No services registered.")
			return err
		}
		for i, rec := range records {
			line := fmt.Sprintf("%d: [%s] %s", i, rec.Tag(), rec.Name)
			if rec.Location != "" {
				line += fmt.Sprintf(" (path: %s)", rec.Location)
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", output)
	}
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List registered services with their indices",
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")

		a := newApp()
		defer a.close()

		records, err := a.mgr.List()
		exitOnError(err)
		exitOnError(renderList(os.Stdout, records, output))
	},
}

func init() {
	listCmd.Flags().StringP("output", "o", "table", "Output format: table, json or yaml")
	rootCmd.AddCommand(listCmd)
}
