package stages

import "github.com/hackgods/clinic-journey-scheduling/internal/cases"

// terminalHandler serves alta and desistencia. Commit writes nothing and never advances.
type terminalHandler struct {
	status cases.Status
}

func (h terminalHandler) Status() cases.Status { return h.status }

func (terminalHandler) Present(rec cases.CaseRecord) ViewModel {
	vm := baseView(rec)
	vm.Fields["closure"] = rec.Closure
	vm.Fields["engagements"] = rec.Engagements
	return vm
}

func (terminalHandler) Commit(cases.CaseRecord, Input) (Result, error) {
	return Result{}, nil
}
