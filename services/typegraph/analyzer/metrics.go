// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analyzer

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("typegraph.analyzer")
	meter  = otel.Meter("typegraph.analyzer")
)

var (
	runDuration     metric.Float64Histogram
	filesTotal      metric.Int64Counter
	semiExpsTotal   metric.Int64Counter
	relationsTotal  metric.Int64Counter
	componentsTotal metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		runDuration, err = meter.Float64Histogram(
			"typegraph_analysis_duration_seconds",
			metric.WithDescription("Duration of complete analysis runs"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		filesTotal, err = meter.Int64Counter(
			"typegraph_files_total",
			metric.WithDescription("Source files analysed, by outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		semiExpsTotal, err = meter.Int64Counter(
			"typegraph_semi_expressions_total",
			metric.WithDescription("Semi-expressions fed to the rule engines, by pass"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		relationsTotal, err = meter.Int64Counter(
			"typegraph_relationships_total",
			metric.WithDescription("Relationship edges recorded, by kind"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		componentsTotal, err = meter.Int64Histogram(
			"typegraph_cyclic_components",
			metric.WithDescription("Strongly connected components with a cycle, per run"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordRunMetrics(ctx context.Context, res *Result, duration time.Duration) {
	if err := initMetrics(); err != nil {
		return
	}
	runDuration.Record(ctx, duration.Seconds())
	filesTotal.Add(ctx, int64(res.Files), metric.WithAttributes(attribute.String("outcome", "analysed")))
	filesTotal.Add(ctx, int64(len(res.Skipped)), metric.WithAttributes(attribute.String("outcome", "skipped")))
	semiExpsTotal.Add(ctx, int64(res.SemiExpressions[0]), metric.WithAttributes(attribute.Int("pass", 1)))
	semiExpsTotal.Add(ctx, int64(res.SemiExpressions[1]), metric.WithAttributes(attribute.Int("pass", 2)))
	for kind, n := range res.Counts {
		relationsTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", string(kind))))
	}
	componentsTotal.Record(ctx, int64(len(res.Cycles)))
}
