package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"wasmguard/instance"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ps"},
	Short:   "List instances",
	Long:    `List instances managed by this engine.`,
	Args:    cobra.NoArgs,
	RunE:    runList,
}

var (
	listQuiet  bool
	listFormat string
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVarP(&listQuiet, "quiet", "q", false, "display only instance IDs")
	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table, json)")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := GetContext()

	instances, err := instance.List(ctx, GetStateRoot())
	if err != nil {
		return err
	}

	if listQuiet {
		for _, inst := range instances {
			fmt.Println(inst.ID)
		}
		return nil
	}

	if listFormat == "json" {
		return outputJSON(instances)
	}

	return outputTable(instances)
}

func outputTable(instances []*instance.Instance) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tRISK\tMODULE\tCREATED")

	for _, inst := range instances {
		state := inst.GetState()
		created := inst.State.Created.Format("2006-01-02 15:04:05")
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			inst.ID, state.Status, inst.State.RiskLevel, state.ModulePath, created)
	}

	return w.Flush()
}

func outputJSON(instances []*instance.Instance) error {
	type listItem struct {
		ID         string `json:"id"`
		Status     string `json:"status"`
		RiskLevel  string `json:"riskLevel"`
		ModulePath string `json:"modulePath"`
		Created    string `json:"created"`
	}

	items := make([]listItem, len(instances))
	for i, inst := range instances {
		state := inst.GetState()
		items[i] = listItem{
			ID:         inst.ID,
			Status:     string(state.Status),
			RiskLevel:  inst.State.RiskLevel,
			ModulePath: state.ModulePath,
			Created:    inst.State.Created.Format("2006-01-02T15:04:05Z"),
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(items)
}
