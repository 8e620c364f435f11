package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"trainpilot/internal/ledger"
	"trainpilot/internal/refdata"
	"trainpilot/internal/session"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved analysis runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := ledger.OpenSQLite(dbPath)
		if err != nil {
			return fmt.Errorf("open run history: %w", err)
		}
		defer store.Close()

		entries, err := store.List()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No saved runs. Use: trainpilot analyze --save")
			return nil
		}

		for _, e := range entries {
			marker := " "
			if e.Selected {
				marker = "*"
			}
			fmt.Printf("%s %s  %s  %s\n", marker, e.Timestamp.Local().Format("2006-01-02 15:04"),
				statusBadge(e.Status), session.BuildDigestLine(e.Config))
			fmt.Printf("    %s  %s\n", dimStyle.Render(e.ID), e.Analysis.Report.Verdict)
		}
		return nil
	},
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List GPU and model presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(headerStyle.Render("GPU presets"))
		for _, key := range refdata.GPUKeys() {
			gpu, _ := refdata.LookupGPU(key)
			fmt.Printf("  %-10s %s (%gGB VRAM)\n", key, gpu.Name, gpu.VRAMGB)
		}
		fmt.Println()
		fmt.Println(headerStyle.Render("Model presets"))
		for _, key := range refdata.ModelKeys() {
			m, _ := refdata.LookupModel(key)
			fmt.Printf("  %-12s %s (%gB params)\n", key, m.Name, m.ParamsB)
		}
		return nil
	},
}
