package tasks

import "school_ledger_echo/internal/services"

// Deps holds the services task handlers need beyond the database.
type Deps struct {
	Collections *services.CollectionsCache
	Reports     *services.ReportService
	Email       *services.EmailService
}

// BuildRegistry registers all available tasks against their
// collaborators and returns the registry the worker polls with.
func BuildRegistry(deps Deps) *Registry {
	r := NewRegistry()

	reconcile := &ReconcileCollectionsTaskDef{Collections: deps.Collections}
	r.Register(reconcile.TaskID(), reconcile.HandleExecution)

	verify := &VerifyHistoryTaskDef{}
	r.Register(verify.TaskID(), verify.HandleExecution)

	summary := &CollectionSummaryTaskDef{Reports: deps.Reports, Email: deps.Email}
	r.Register(summary.TaskID(), summary.HandleExecution)

	return r
}
