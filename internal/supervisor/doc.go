// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

/*
Package supervisor provides process supervision for Civitas using suture v4.

Long-running components run under a hierarchical supervisor tree with
automatic restart, failure isolation and bounded graceful shutdown.

# Overview

	RootSupervisor ("civitas")
	├── DataSupervisor ("data-layer")
	│   └── storage-gc
	├── AnalysisSupervisor ("analysis-layer")
	│   ├── detection-scan
	│   └── event-feed
	└── APISupervisor ("api-layer")
	    └── http-server

A detection crash restarts only the analysis layer; the reputation write
path served by the API layer keeps running.

# Restart Policy

FailureThreshold failures (decaying at FailureDecay seconds) put a
supervisor into backoff for FailureBackoff. ShutdownTimeout bounds how long
each service may take to return after cancellation; services that overrun
are listed by UnstoppedServiceReport.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewStorageGCService(db))
	tree.AddAnalysisService(services.NewDetectionScanService(detector))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	return tree.Serve(ctx)

Supervisor events are logged through sutureslog.
*/
package supervisor
