package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"curator/internal/backend"
)

func newLookupCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newRoomsCommand(ctx),
		newNodesCommand(ctx),
		newStratsCommand(ctx),
		newUsersCommand(ctx),
	}
}

// idNameRows renders id/name pairs sorted by id.
func idNameRows[T any](items []T, id func(T) int, name func(T) string) [][]string {
	sorted := make([]T, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return id(sorted[i]) < id(sorted[j]) })
	rows := make([][]string, 0, len(sorted))
	for _, item := range sorted {
		rows = append(rows, []string{strconv.Itoa(id(item)), name(item)})
	}
	return rows
}

func newRoomsCommand(ctx *commandContext) *cobra.Command {
	var (
		area       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "List rooms grouped by area",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.backendClient()
			if err != nil {
				return err
			}
			areas, err := client.RoomsByArea(cmd.Context())
			if err != nil {
				return err
			}
			if filter := strings.TrimSpace(area); filter != "" {
				kept := areas[:0]
				for _, a := range areas {
					if strings.Contains(strings.ToLower(a.Name), strings.ToLower(filter)) {
						kept = append(kept, a)
					}
				}
				areas = kept
			}
			if jsonOutput {
				return writeJSON(cmd, areas)
			}
			rows := make([][]string, 0)
			for _, a := range areas {
				for _, room := range a.Rooms {
					rows = append(rows, []string{a.Name, strconv.Itoa(room.ID), room.Name})
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Area", "ID", "Room"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&area, "area", "", "Only show areas whose name contains this text")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}

func newNodesCommand(ctx *commandContext) *cobra.Command {
	var (
		room       int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "List the nodes of a room",
		RunE: func(cmd *cobra.Command, args []string) error {
			if room <= 0 {
				return fmt.Errorf("--room is required")
			}
			client, err := ctx.backendClient()
			if err != nil {
				return err
			}
			nodes, err := client.Nodes(cmd.Context(), room)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, nodes)
			}
			rows := idNameRows(nodes, func(n backend.Node) int { return n.ID }, func(n backend.Node) string { return n.Name })
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Node"}, rows, []columnAlignment{alignRight, alignLeft}))
			return nil
		},
	}
	cmd.Flags().IntVar(&room, "room", 0, "Room id")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}

func newStratsCommand(ctx *commandContext) *cobra.Command {
	var (
		room, from, to int
		jsonOutput     bool
	)

	cmd := &cobra.Command{
		Use:   "strats",
		Short: "List the strats between two nodes of a room",
		RunE: func(cmd *cobra.Command, args []string) error {
			if room <= 0 || from <= 0 || to <= 0 {
				return fmt.Errorf("--room, --from and --to are required")
			}
			client, err := ctx.backendClient()
			if err != nil {
				return err
			}
			strats, err := client.Strats(cmd.Context(), room, from, to)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, strats)
			}
			rows := idNameRows(strats, func(s backend.Strat) int { return s.ID }, func(s backend.Strat) string { return s.Name })
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Strat"}, rows, []columnAlignment{alignRight, alignLeft}))
			return nil
		},
	}
	cmd.Flags().IntVar(&room, "room", 0, "Room id")
	cmd.Flags().IntVar(&from, "from", 0, "Entry node id")
	cmd.Flags().IntVar(&to, "to", 0, "Exit node id")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}

func newUsersCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List active accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.backendClient()
			if err != nil {
				return err
			}
			users, err := client.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, users)
			}
			rows := idNameRows(users, func(u backend.User) int { return u.ID }, func(u backend.User) string { return u.Username })
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Username"}, rows, []columnAlignment{alignRight, alignLeft}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}
