package metrics

/*
Labels and so on for metrics used in bgdeploy.
*/

const (
	LabelSuccess = "success"

	// Labels for release metrics
	LabelStep   = "step"
	LabelWaiter = "waiter"
	LabelSlot   = "fleet_slot"
	LabelStatus = "status"
)
