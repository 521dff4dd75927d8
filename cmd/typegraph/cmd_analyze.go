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
	"github.com/spf13/cobra"
)

var (
	analyzeForce        bool
	analyzeXML          string
	analyzeCondensedXML string
	showXML             string
	showSymbols         bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze ROOT...",
	Short: "Analyse C++ sources and store the result",
	Long: `Collect every source file under the given roots, run both passes and
store the relationship graph as a new snapshot.

Roots may be directories, single files or any URL the storage layer
understands (file://, mem://, s3://, gs://). An unchanged file set reuses
its stored snapshot unless --force is given.

Examples:
  typegraph analyze ./src
  typegraph analyze ./include ./src --xml graph.xml
  typegraph analyze ./src --force`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

var showCmd = &cobra.Command{
	Use:   "show [RUN_ID|latest]",
	Short: "Print a stored run or an XML graph file",
	Long: `Print the graph, components and topological order of a stored run.
With --xml the graph is read from an XML file instead of the store.

Examples:
  typegraph show
  typegraph show 3f1c...
  typegraph show --xml graph.xml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeForce, "force", false,
		"Analyse even when an identical file set was stored before")
	analyzeCmd.Flags().StringVar(&analyzeXML, "xml", "",
		"Write the relationship graph to this file (overrides output.xml)")
	analyzeCmd.Flags().StringVar(&analyzeCondensedXML, "condensed-xml", "",
		"Write the condensed graph to this file (overrides output.condensed_xml)")
	analyzeCmd.Flags().BoolVar(&showSymbols, "symbols", false,
		"Also print the type table (implies --force)")

	showCmd.Flags().StringVar(&showXML, "xml", "", "Read the graph from this XML file")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeXML != "" {
		cfg.Output.XML = analyzeXML
	}
	if analyzeCondensedXML != "" {
		cfg.Output.CondensedXML = analyzeCondensedXML
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	// A reused run stores no type table.
	res, _, err := a.analyze(cmd.Context(), args, analyzeForce || showSymbols)
	if err != nil {
		return err
	}
	p := a.printer(cmd.OutOrStdout())
	p.Result(res)
	if showSymbols {
		p.Symbols(res.Symbols)
	}
	return p.Err()
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	ref := latestRun
	if len(args) == 1 {
		ref = args[0]
	}

	if showXML != "" {
		g, err := a.loadGraph(ctx, showXML, "")
		if err != nil {
			return err
		}
		res, err := a.analyzer().FromGraph(ctx, g)
		if err != nil {
			return err
		}
		p := a.printer(cmd.OutOrStdout())
		p.Result(res)
		return p.Err()
	}

	id, err := a.resolveRun(ctx, ref)
	if err != nil {
		return err
	}
	res, err := a.result(ctx, id)
	if err != nil {
		return err
	}
	p := a.printer(cmd.OutOrStdout())
	p.Result(res)
	return p.Err()
}
