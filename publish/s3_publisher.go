package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/Octogonapus/EditorBenchmark/util"
	"github.com/alitto/pond"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3Types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/schollz/progressbar/v3"
)

type s3Publisher struct {
	input *S3PublisherInput
	s3    *s3.Client
}

type S3PublisherInput struct {
	AwsConfig         aws.Config
	Bucket            string
	Prefix            string // key prefix, a dated random one is generated when empty
	CreateBucket      bool
	UploadConcurrency int
}

func NewS3Publisher(input *S3PublisherInput) Publisher {
	if input.Prefix == "" {
		input.Prefix = defaultPrefix(time.Now())
	}
	if input.UploadConcurrency <= 0 {
		input.UploadConcurrency = 8
	}
	return &s3Publisher{
		input: input,
		s3:    s3.NewFromConfig(input.AwsConfig),
	}
}

func defaultPrefix(now time.Time) string {
	return fmt.Sprintf("editor-benchmark/%s-%s", now.UTC().Format("20060102-150405"), util.Randstring(6))
}

func objectKey(prefix, rel string) string {
	return path.Join(prefix, rel)
}

func (o *s3Publisher) Publish(ctx context.Context, dir string) error {
	if o.input.CreateBucket {
		err := o.ensureBucket(ctx)
		if err != nil {
			return err
		}
	}

	files, err := listFiles(dir)
	if err != nil {
		return err
	}

	slog.Info("S3Publisher: uploading results", slog.String("bucket", o.input.Bucket), slog.String("prefix", o.input.Prefix))
	uploader := manager.NewUploader(o.s3, func(u *manager.Uploader) {
		u.PartSize = 1024 * 1024 * 10
	})
	errChan := make(chan error, len(files))
	pool := pond.New(o.input.UploadConcurrency, 0, pond.MinWorkers(o.input.UploadConcurrency))
	p := progressbar.Default(int64(len(files)), "Uploading results:")
	for _, f := range files {
		pool.Submit(func() {
			defer p.Add(1)

			r, err := os.Open(f.Path)
			if err != nil {
				errChan <- err
				return
			}
			defer r.Close()

			_, err = uploader.Upload(ctx, &s3.PutObjectInput{
				Bucket: &o.input.Bucket,
				Key:    aws.String(objectKey(o.input.Prefix, f.Rel)),
				Body:   r,
			})
			if err != nil {
				slog.Error("S3Publisher: failed to upload object", slog.String("file", f.Rel), slog.String("error", err.Error()))
				errChan <- err
				return
			}
		})
	}
	pool.StopAndWait()
	p.Finish()

	select {
	case err := <-errChan:
		return fmt.Errorf("some results failed to upload: %w", err)
	default:
		slog.Info("S3Publisher: done uploading", slog.String("bucket", o.input.Bucket), slog.Int("files", len(files)))
		return nil
	}
}

func (o *s3Publisher) ensureBucket(ctx context.Context) error {
	in := &s3.CreateBucketInput{
		Bucket: &o.input.Bucket,
		ACL:    s3Types.BucketCannedACLPrivate,
	}
	// us-east-1 rejects an explicit location constraint.
	if o.input.AwsConfig.Region != "" && o.input.AwsConfig.Region != "us-east-1" {
		in.CreateBucketConfiguration = &s3Types.CreateBucketConfiguration{
			LocationConstraint: s3Types.BucketLocationConstraint(o.input.AwsConfig.Region),
		}
	}
	_, err := o.s3.CreateBucket(ctx, in)
	var e *s3Types.BucketAlreadyOwnedByYou
	if errors.As(err, &e) {
		// this is fine, we'll just upload to it
		slog.Debug("S3Publisher: bucket already exists", slog.String("name", o.input.Bucket))
		return nil
	} else if err != nil {
		return fmt.Errorf("creating bucket failed: %w", err)
	}
	slog.Debug("S3Publisher: created bucket", slog.String("name", o.input.Bucket))
	return nil
}
