// Package storage uploads release bundles to S3.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"

	fluxerr "github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/errors"
	fluxmetrics "github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/metrics"
)

const (
	MiB = 1 << 20
	// DefaultPartSize is the size of every part but the last.
	DefaultPartSize = 6 * MiB
	// MinPartSize is the smallest part S3 accepts, other than the last.
	MinPartSize = 5 * MiB
)

// Location identifies exactly one uploaded object version. It is what
// gets registered as a revision and deployed.
type Location struct {
	Bucket  string
	Key     string
	Version string
	ETag    string
}

func (l Location) String() string {
	return fmt.Sprintf("s3://%s/%s?versionId=%s", l.Bucket, l.Key, l.Version)
}

// Uploader pushes a stream to S3 as a multipart upload, one part at a
// time and in order.
type Uploader struct {
	client   s3iface.S3API
	partSize int64
	logger   log.Logger
}

func NewUploader(client s3iface.S3API, partSize int64, logger log.Logger) *Uploader {
	if partSize <= 0 {
		partSize = DefaultPartSize
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Uploader{client: client, partSize: partSize, logger: logger}
}

// Upload reads body from its current offset up to size, and uploads it
// to bucket/key. Parts are numbered from 1 in stream order. If any part
// fails, the multipart upload is aborted and an Upload error returned;
// there is no resuming, the caller has to start again.
func (u *Uploader) Upload(ctx context.Context, body io.ReadSeeker, size int64, bucket, key string, metadata map[string]string) (Location, error) {
	u.logger.Log("upload", "start", "bucket", bucket, "key", key, "bytes", size)

	offset, err := body.Seek(0, io.SeekCurrent)
	if err != nil {
		return Location{}, ErrUpload(bucket, key, errors.Wrap(err, "finding bundle offset"))
	}

	mp, err := u.client.CreateMultipartUploadWithContext(ctx, &s3.CreateMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		Metadata: aws.StringMap(metadata),
	})
	if err != nil {
		return Location{}, ErrUpload(bucket, key, errors.Wrap(err, "initiating multipart upload"))
	}
	uploadID := mp.UploadId

	var parts []*s3.CompletedPart
	buf := make([]byte, u.partSize)
	for partNumber := int64(1); offset < size; partNumber++ {
		n := u.partSize
		if remaining := size - offset; remaining < n {
			n = remaining
		}
		if _, err = io.ReadFull(body, buf[:n]); err != nil {
			err = errors.Wrapf(err, "reading part %d", partNumber)
			break
		}
		var out *s3.UploadPartOutput
		out, err = u.client.UploadPartWithContext(ctx, &s3.UploadPartInput{
			Bucket:        aws.String(bucket),
			Key:           aws.String(key),
			UploadId:      uploadID,
			PartNumber:    aws.Int64(partNumber),
			ContentLength: aws.Int64(n),
			Body:          bytes.NewReader(buf[:n]),
		})
		uploadParts.With(fluxmetrics.LabelSuccess, fmt.Sprint(err == nil)).Add(1)
		if err != nil {
			err = errors.Wrapf(err, "uploading part %d", partNumber)
			break
		}
		offset += n
		uploadBytes.Add(float64(n))
		u.logger.Log("part", partNumber, "uploaded", offset, "total", size)
		parts = append(parts, &s3.CompletedPart{
			PartNumber: aws.Int64(partNumber),
			ETag:       out.ETag,
		})
	}

	var done *s3.CompleteMultipartUploadOutput
	if err == nil {
		done, err = u.client.CompleteMultipartUploadWithContext(ctx, &s3.CompleteMultipartUploadInput{
			Bucket:          aws.String(bucket),
			Key:             aws.String(key),
			UploadId:        uploadID,
			MultipartUpload: &s3.CompletedMultipartUpload{Parts: parts},
		})
		if err != nil {
			err = errors.Wrap(err, "completing multipart upload")
		}
	}
	if err != nil {
		u.logger.Log("upload", "failed", "err", err)
		u.abort(ctx, bucket, key, uploadID)
		return Location{}, ErrUpload(bucket, key, err)
	}

	loc := Location{
		Bucket:  bucket,
		Key:     key,
		Version: aws.StringValue(done.VersionId),
		ETag:    aws.StringValue(done.ETag),
	}
	u.logger.Log("upload", "complete", "parts", len(parts), "version", loc.Version, "etag", loc.ETag)
	return loc, nil
}

// abort frees the storage held for parts already uploaded. It goes
// ahead even if ctx has been cancelled.
func (u *Uploader) abort(ctx context.Context, bucket, key string, uploadID *string) {
	_, err := u.client.AbortMultipartUploadWithContext(context.WithoutCancel(ctx), &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: uploadID,
	})
	if err != nil {
		u.logger.Log("abort", "failed", "upload_id", aws.StringValue(uploadID), "err", err)
		return
	}
	u.logger.Log("abort", "ok", "upload_id", aws.StringValue(uploadID))
}

func ErrUpload(bucket, key string, err error) *fluxerr.Error {
	return &fluxerr.Error{
		Type: fluxerr.Upload,
		Err:  err,
		Help: `The release bundle could not be uploaded to

    s3://` + bucket + `/` + key + `

The partial upload has been discarded and no revision was registered.
The error was:

    ` + err.Error() + `

This is often a transient network problem; running the deployment
again will build and upload the bundle from scratch.
`,
	}
}
