package errors

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestZeroErrorEncoding(t *testing.T) {
	type S struct {
		Err *Error
	}
	var s S
	bytes, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var s1 S
	err = json.Unmarshal(bytes, &s1)
	if err != nil {
		t.Fatal(err)
	}
	if s1.Err != nil {
		t.Errorf("expected nil in field, but got %+v", s1.Err)
	}
}

func TestErrorEncoding(t *testing.T) {
	errVal := &Error{
		Type: DeploymentFailed,
		Help: "helpful text\nwith linebreaks!",
		Err:  errors.New("underlying error"),
	}
	bytes, err := json.Marshal(errVal)
	if err != nil {
		t.Fatal(err)
	}

	var got Error
	err = json.Unmarshal(bytes, &got)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(errVal, &got) {
		t.Errorf("not deepEqual\nexpected %#v\ngot %#v", errVal, got)
	}
}

func TestTypePredicatesSeeThroughWrapping(t *testing.T) {
	base := &Error{Type: Upload, Err: errors.New("connection reset")}
	wrapped := pkgerrors.Wrap(base, "pushing release")

	assert.True(t, IsUpload(wrapped))
	assert.False(t, IsConfiguration(wrapped))
	assert.False(t, IsMissingManifest(wrapped))
	assert.False(t, IsInvalidManifest(wrapped))
	assert.False(t, IsDeploymentFailed(wrapped))
	assert.False(t, IsUpload(errors.New("plain")))
}

func TestManifestKindsAreDistinct(t *testing.T) {
	invalid := pkgerrors.Wrap(&Error{Type: InvalidManifest, Err: errors.New("no version given")}, "pushing release")
	assert.True(t, IsInvalidManifest(invalid))
	assert.False(t, IsMissingManifest(invalid))

	missing := &Error{Type: MissingManifest, Err: errors.New("appspec.yml was not found")}
	assert.True(t, IsMissingManifest(missing))
	assert.False(t, IsInvalidManifest(missing))
}

func TestCoverAllError(t *testing.T) {
	err := CoverAllError(errors.New("boom"))
	assert.Equal(t, Server, err.Type)
	assert.Contains(t, err.Help, "boom")
	assert.Equal(t, "boom", err.Error())
}
