// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	searchRun string
	searchXML string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find vertices or edges in a graph",
	Long: `Search a stored run (latest by default) or an XML graph file.

Examples:
  typegraph search vertex shape
  typegraph search edge inherits --run 3f1c...
  typegraph search edge composes --xml graph.xml`,
}

var searchVertexCmd = &cobra.Command{
	Use:   "vertex NAME",
	Short: "Find vertices whose payload equals NAME",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		g, err := a.loadGraph(cmd.Context(), searchXML, searchRun)
		if err != nil {
			return err
		}
		p := a.printer(cmd.OutOrStdout())
		p.VertexMatches(g, g.SearchVertices(args[0]))
		return p.Err()
	},
}

var searchEdgeCmd = &cobra.Command{
	Use:   "edge LABEL",
	Short: "Find edges labelled LABEL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		g, err := a.loadGraph(cmd.Context(), searchXML, searchRun)
		if err != nil {
			return err
		}
		p := a.printer(cmd.OutOrStdout())
		p.EdgeMatches(g, g.SearchEdges(args[0]))
		return p.Err()
	},
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Manage stored runs",
}

var snapshotsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		snaps, err := a.store.List(cmd.Context())
		if err != nil {
			return err
		}
		p := a.printer(cmd.OutOrStdout())
		p.Snapshots(snaps)
		return p.Err()
	},
}

var snapshotsDeleteCmd = &cobra.Command{
	Use:   "delete RUN_ID",
	Short: "Delete a stored run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.resolveRun(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := a.store.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
		return nil
	},
}

func init() {
	searchCmd.PersistentFlags().StringVar(&searchRun, "run", latestRun, "Run ID to search")
	searchCmd.PersistentFlags().StringVar(&searchXML, "xml", "", "Search this XML graph file instead")
	searchCmd.AddCommand(searchVertexCmd)
	searchCmd.AddCommand(searchEdgeCmd)

	snapshotsCmd.AddCommand(snapshotsListCmd)
	snapshotsCmd.AddCommand(snapshotsDeleteCmd)
}
