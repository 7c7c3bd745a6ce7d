package codedeploy

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/codedeploy"
	"github.com/pkg/errors"

	"github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/storage"
)

func revisionLocation(loc storage.Location) *codedeploy.RevisionLocation {
	s3loc := &codedeploy.S3Location{
		Bucket:     aws.String(loc.Bucket),
		Key:        aws.String(loc.Key),
		BundleType: aws.String(codedeploy.BundleTypeZip),
	}
	if loc.Version != "" {
		s3loc.Version = aws.String(loc.Version)
	}
	if loc.ETag != "" {
		s3loc.ETag = aws.String(loc.ETag)
	}
	return &codedeploy.RevisionLocation{
		RevisionType: aws.String(codedeploy.RevisionLocationTypeS3),
		S3Location:   s3loc,
	}
}

func fromS3Location(s3loc *codedeploy.S3Location) storage.Location {
	return storage.Location{
		Bucket:  aws.StringValue(s3loc.Bucket),
		Key:     aws.StringValue(s3loc.Key),
		Version: aws.StringValue(s3loc.Version),
		ETag:    aws.StringValue(s3loc.ETag),
	}
}

// Register records the uploaded bundle as a revision of application.
func (c *Client) Register(ctx context.Context, application string, loc storage.Location) error {
	_, err := c.api.RegisterApplicationRevisionWithContext(ctx, &codedeploy.RegisterApplicationRevisionInput{
		ApplicationName: aws.String(application),
		Revision:        revisionLocation(loc),
	})
	if err != nil {
		return errors.Wrapf(err, "registering revision %s", loc)
	}
	c.logger.Log("registered", loc, "application", application)
	return nil
}
