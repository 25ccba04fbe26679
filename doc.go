// Package homeservice wires a home service appointment approval system: an
// operator approves or rejects homeowner requests while the workflow that
// opened each request waits, durably, for the decision.
//
// The system is built from these layers:
//
//   - servicerequest – the three step request workflow and requester intake
//   - processor      – durable suspend/resume workflow engine
//   - approval       – operator decisions with a direct write fallback
//   - dao            – request store (memory, postgres) and checkpoints (memory, fs)
//   - api            – requester, operator and engine HTTP routes
//
// End-users typically interact with the system via the Service façade
// exposed by the root package:
//
//	srv, _ := homeservice.New(ctx)
//	submission, _ := srv.Intake().Submit(ctx, input)
//	outcome, _ := srv.Gateway().Approve(ctx, submission.RequestID, decision)
//
// For more details see the individual sub-packages.
package homeservice
