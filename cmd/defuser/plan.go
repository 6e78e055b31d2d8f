package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AaronLay10/DefusalEngine/internal/level"
	"github.com/AaronLay10/DefusalEngine/internal/puzzle"
	"github.com/AaronLay10/DefusalEngine/internal/session"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the module count, time budget and module pool of a level",
	Long: `Print the plan of a level. With --seed the modules that play --seed
would generate are listed too.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := level.Configure(viper.GetInt("level"), level.PackID(viper.GetString("pack")))
		if err != nil {
			return err
		}
		printPlan(cmd.OutOrStdout(), plan, viper.GetUint64("seed"))
		return nil
	},
}

func printPlan(w io.Writer, plan level.Plan, seed uint64) {
	fmt.Fprintf(w, "pack:    %s\n", plan.Pack)
	fmt.Fprintf(w, "level:   %d\n", plan.Level)
	fmt.Fprintf(w, "modules: %d\n", plan.ModuleCount)
	fmt.Fprintf(w, "time:    %s\n", session.FormatClock(plan.TimeBudget))
	fmt.Fprintf(w, "pool:    %s\n", joinKinds(plan.Pool))
	if seed == 0 {
		return
	}
	s := session.New(plan, puzzle.NewRand(seed))
	kinds := make([]puzzle.Kind, 0, plan.ModuleCount)
	for _, m := range s.Modules() {
		kinds = append(kinds, m.Kind())
	}
	fmt.Fprintf(w, "draw:    %s\n", joinKinds(kinds))
}

func joinKinds(kinds []puzzle.Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, ", ")
}
