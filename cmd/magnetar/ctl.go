package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/talgya/magnetar/internal/event"
	"github.com/talgya/magnetar/internal/remote"
)

var ctlCmd = &cobra.Command{
	Use:   "ctl",
	Short: "Observe or control a running shelf over HTTP",
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the shelf status",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := remote.NewObserver(baseURL(cmd)).Status(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("frame %d (%s) speed %.2f running %v\n", st.Frame, st.SessionTime, st.Speed, st.Running)
		fmt.Printf("cells %d  held %d  pending %d  y_pos %.3f\n", st.Cells, st.Held, st.Pending, st.YPos)
		if st.Dragging {
			fmt.Printf("dragged by %s\n", st.Actor)
		}
		fmt.Printf("started %s, last save %s\n", st.Started, st.LastSave)
		return nil
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print recent shelf events, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		kind, _ := cmd.Flags().GetString("kind")
		events, err := remote.NewObserver(baseURL(cmd)).Events(cmd.Context(), limit, event.Kind(kind))
		if err != nil {
			return err
		}
		for _, e := range events {
			fmt.Printf("%8d  %-18s cell=%-3d %s %g\n", e.Frame, e.Kind, e.Cell, e.Subject, e.Value)
		}
		return nil
	},
}

var addCellsCmd = &cobra.Command{
	Use:   "add-cells [n]",
	Short: "Append cells to the stack",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n := 1
		if len(args) == 1 {
			var err error
			if n, err = strconv.Atoi(args[0]); err != nil {
				return fmt.Errorf("cell count: %w", err)
			}
		}
		cells, err := actor(cmd).AddCells(cmd.Context(), n)
		if err != nil {
			return err
		}
		fmt.Printf("stack now has %d cells\n", cells)
		return nil
	},
}

var speedCmd = &cobra.Command{
	Use:   "speed <multiplier>",
	Short: "Set the time multiplier (0 pauses)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("speed: %w", err)
		}
		got, err := actor(cmd).SetSpeed(cmd.Context(), s)
		if err != nil {
			return err
		}
		fmt.Printf("speed %.2f\n", got)
		return nil
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save the shelf now",
	RunE: func(cmd *cobra.Command, args []string) error {
		frame, err := actor(cmd).Snapshot(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("saved at frame %d\n", frame)
		return nil
	},
}

func baseURL(cmd *cobra.Command) string {
	u, _ := cmd.Flags().GetString("url")
	return u
}

func actor(cmd *cobra.Command) *remote.Actor {
	key, _ := cmd.Flags().GetString("admin-key")
	return remote.NewActor(baseURL(cmd), key)
}

func init() {
	ctlCmd.PersistentFlags().String("url", "http://localhost:8080", "Base URL of the shelf API")
	ctlCmd.PersistentFlags().String("admin-key", "", "Bearer token for admin commands")
	eventsCmd.Flags().Int("limit", 20, "Events to fetch")
	eventsCmd.Flags().String("kind", "", "Only events of this kind")

	ctlCmd.AddCommand(statusCmd, eventsCmd, addCellsCmd, speedCmd, snapshotCmd)
	rootCmd.AddCommand(ctlCmd)
}
