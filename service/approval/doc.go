// Package approval applies operator decisions to pending service requests.
// A request linked to a workflow run is decided by resuming the run; when the
// engine cannot be reached the decision is written to the request store
// directly so that the operator's action is never lost.
package approval
