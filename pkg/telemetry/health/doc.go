// Package health exposes liveness, readiness and version endpoints next to
// the Prometheus metrics endpoint of "judgment run --metrics-listen".
//
//	checker := health.New(0)
//	checker.RegisterCheck("audit", auditCheck)
//	health.Register(mux, checker, version, commit, buildDate)
//
// Readiness runs every registered check concurrently, each bounded by the
// checker's timeout.
package health
