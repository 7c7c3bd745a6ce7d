package release

import (
	"errors"

	fluxerr "github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/errors"
	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/fleet"
)

// MakePartialRolloutError is for when the standby fleet has the new
// release but the primary fleet does not. It keeps the kind of err, so
// that e.g. a throttled API call is not reported as a failed deployment.
func MakePartialRolloutError(pair fleet.Pair, err error) *fluxerr.Error {
	return &fluxerr.Error{
		Type: errorType(err),
		Help: `The release was deployed to fleet B (` + pair.B().String() + `), but
deploying it to fleet A (` + pair.A().String() + `) failed, with this message:

    ` + err.Error() + `

Fleet B is still running with the new release and has not been scaled
down. Nothing has been rolled back; this needs looking at by hand.
Once the cause is fixed, running the deployment again while fleet B
is serving will redeploy its revision to fleet A and scale B down.
`,
		Err: err,
	}
}

func errorType(err error) fluxerr.Type {
	var ferr *fluxerr.Error
	if errors.As(err, &ferr) {
		return ferr.Type
	}
	return fluxerr.Server
}
