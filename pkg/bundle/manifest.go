package bundle

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	fluxerr "github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/errors"
)

// checkManifest makes sure the manifest parses as a YAML mapping with a
// version. Only done when Options.CheckManifest is set.
func checkManifest(path string) error {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading manifest")
	}
	var manifest map[string]interface{}
	if err := yaml.Unmarshal(bytes, &manifest); err != nil {
		return ErrInvalidManifest(path, err)
	}
	if _, ok := manifest["version"]; !ok {
		return ErrInvalidManifest(path, errors.New("no version given"))
	}
	return nil
}

func ErrMissingManifest(path string) *fluxerr.Error {
	return &fluxerr.Error{
		Type: fluxerr.MissingManifest,
		Err:  fmt.Errorf("%s was not found", path),
		Help: `The release directory has no deployment manifest at its root. Every
release must contain

    ` + path + `

which tells the deployment agent how to install the release. Nothing
was uploaded. Check that the source directory given is the root of
the release, and, if hidden files are being ignored, that the
manifest is not inside a hidden directory.
`,
	}
}

func ErrInvalidManifest(path string, err error) *fluxerr.Error {
	return &fluxerr.Error{
		Type: fluxerr.InvalidManifest,
		Err:  errors.Wrapf(err, "invalid manifest %s", path),
		Help: `The deployment manifest

    ` + path + `

could not be read as a YAML document with a top-level "version", which
was asked for, so nothing was uploaded. Fix the manifest, or leave
the manifest check off to bundle it as it is. The underlying problem
was:

    ` + err.Error() + `
`,
	}
}
