package errors

import (
	"encoding/json"
	"errors"
)

// Representation of errors surfaced to the operator. These are divided
// into a small number of categories, essentially distinguished by what
// the operator has to do about it; i.e., is this error:
//  - a problem with how the fleets or the application are set up?
//  - a problem with the release directory?
//  - a failure talking to one of the backends, worth running again?
//  - a failed rollout that needs looking at before anything else happens?
type Error struct {
	Type Type
	// a message that can be printed out for the user
	Help string `json:"help"`
	// the underlying error that can be e.g., logged for developers to look at
	Err error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Type string

const (
	// The operation looked fine on paper, but something went wrong
	Server Type = "server"
	// The thing you mentioned, whatever it is, just doesn't exist
	Missing Type = "missing"
	// The operation was well-formed, but you asked for something that
	// can't happen at present
	User Type = "user"
	// The fleets do not follow the naming convention
	Configuration Type = "configuration"
	// The release directory has no deployment manifest at its root
	MissingManifest Type = "missing-manifest"
	// The deployment manifest is there, but is not what was asked for
	InvalidManifest Type = "invalid-manifest"
	// The bundle could not be uploaded; the multipart session was abandoned
	Upload Type = "upload"
	// The deployment backend reported that a deployment failed
	DeploymentFailed Type = "deployment-failed"
)

func isType(err error, t Type) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

func IsMissing(err error) bool {
	return isType(err, Missing)
}

func IsConfiguration(err error) bool {
	return isType(err, Configuration)
}

func IsMissingManifest(err error) bool {
	return isType(err, MissingManifest)
}

func IsInvalidManifest(err error) bool {
	return isType(err, InvalidManifest)
}

func IsUpload(err error) bool {
	return isType(err, Upload)
}

func IsDeploymentFailed(err error) bool {
	return isType(err, DeploymentFailed)
}

func (e *Error) MarshalJSON() ([]byte, error) {
	var errMsg string
	if e.Err != nil {
		errMsg = e.Err.Error()
	}
	jsonable := &struct {
		Type string `json:"type"`
		Help string `json:"help"`
		Err  string `json:"error,omitempty"`
	}{
		Type: string(e.Type),
		Help: e.Help,
		Err:  errMsg,
	}
	return json.Marshal(jsonable)
}

func (e *Error) UnmarshalJSON(data []byte) error {
	jsonable := &struct {
		Type string `json:"type"`
		Help string `json:"help"`
		Err  string `json:"error,omitempty"`
	}{}
	if err := json.Unmarshal(data, &jsonable); err != nil {
		return err
	}
	e.Type = Type(jsonable.Type)
	e.Help = jsonable.Help
	if jsonable.Err != "" {
		e.Err = errors.New(jsonable.Err)
	}
	return nil
}

func CoverAllError(err error) *Error {
	return &Error{
		Type: Server,
		Err:  err,
		Help: `Error: ` + err.Error() + `

We don't have a specific help message for the error above. Nothing
was rolled back; check the state of both fleets and of the deployment
group before running the deployment again.
`,
	}
}
