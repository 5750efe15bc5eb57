package fsview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"frontdown/internal/backup"
)

// S3View backs a source or the backup root with an S3 bucket/prefix. It
// lets either side of a backup live in object storage: a source tree
// staged in a bucket, or the backup_root itself for an off-site mirror.
//
// Directories have no representation in S3 beyond common prefixes, so
// Mkdir is a no-op (S3 creates "directories" implicitly the first time an
// object is written under them) and List uses a delimited ListObjectsV2
// call to recover the same tree shape the scanner expects.
type S3View struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3View constructs a view over bucket/prefix using client.
func NewS3View(client *s3.Client, bucket, prefix string) *S3View {
	return &S3View{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
	}
}

func (v *S3View) key(relpath backup.RelPath) string {
	if v.prefix == "" {
		return string(relpath)
	}
	if relpath == "" {
		return v.prefix
	}
	return v.prefix + "/" + string(relpath)
}

func (v *S3View) List(dir backup.RelPath) ([]backup.ListEntry, error) {
	prefix := v.key(dir)
	if prefix != "" {
		prefix += "/"
	}
	ctx := context.Background()

	var out []backup.ListEntry
	seenDirs := map[string]bool{}
	paginator := s3.NewListObjectsV2Paginator(v.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(v.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", backup.ErrTransient, err)
		}
		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			if name != "" && !seenDirs[name] {
				seenDirs[name] = true
				out = append(out, backup.ListEntry{Name: name, Kind: backup.KindDirectory})
			}
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name == "" {
				continue
			}
			out = append(out, backup.ListEntry{
				Name:    name,
				Kind:    backup.KindFile,
				Size:    aws.ToInt64(obj.Size),
				ModTime: aws.ToTime(obj.LastModified),
			})
		}
	}
	return out, nil
}

func (v *S3View) OpenRead(relpath backup.RelPath) (io.ReadCloser, error) {
	out, err := v.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.key(relpath)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: %s", backup.ErrNotFound, relpath)
		}
		return nil, fmt.Errorf("%w: %v", backup.ErrTransient, err)
	}
	return out.Body, nil
}

type s3WriteCloser struct {
	v       *S3View
	relpath backup.RelPath
	pr      *io.PipeReader
	pw      *io.PipeWriter
	done    chan error
}

func (v *S3View) OpenWrite(relpath backup.RelPath) (io.WriteCloser, error) {
	pr, pw := io.Pipe()
	w := &s3WriteCloser{v: v, relpath: relpath, pr: pr, pw: pw, done: make(chan error, 1)}
	go func() {
		_, err := v.uploader.Upload(context.Background(), &s3.PutObjectInput{
			Bucket: aws.String(v.bucket),
			Key:    aws.String(v.key(relpath)),
			Body:   pr,
		})
		pr.CloseWithError(err)
		w.done <- err
	}()
	return w, nil
}

func (w *s3WriteCloser) Write(p []byte) (int, error) { return w.pw.Write(p) }

func (w *s3WriteCloser) Close() error {
	if err := w.pw.Close(); err != nil {
		return err
	}
	return <-w.done
}

func (v *S3View) Stat(relpath backup.RelPath) (backup.ListEntry, error) {
	out, err := v.client.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.key(relpath)),
	})
	if err != nil {
		return backup.ListEntry{}, fmt.Errorf("%w: %v", backup.ErrNotFound, err)
	}
	return backup.ListEntry{
		Name:    path.Base(string(relpath)),
		Kind:    backup.KindFile,
		Size:    aws.ToInt64(out.ContentLength),
		ModTime: aws.ToTime(out.LastModified),
	}, nil
}

func (v *S3View) Exists(relpath backup.RelPath) (bool, error) {
	_, err := v.Stat(relpath)
	if err != nil {
		return false, nil
	}
	return true, nil
}

// Mkdir is a no-op: S3 has no directory objects; a "directory" exists the
// moment any object is written under its prefix.
func (v *S3View) Mkdir(backup.RelPath) error { return nil }

// SetModTime cannot be implemented against S3 (object metadata is
// immutable after upload without a copy-in-place); the executor treats
// ErrUnsupported here as non-fatal.
func (v *S3View) SetModTime(backup.RelPath, time.Time) error { return backup.ErrUnsupported }

// Hardlink has no S3 equivalent (objects carry no inode concept); the
// executor falls back to a copy, which is exactly what exercises the
// upload path above against a real backend.
func (v *S3View) Hardlink(string, backup.RelPath) error { return backup.ErrUnsupported }

func (v *S3View) Delete(relpath backup.RelPath, kind backup.Kind) error {
	if kind == backup.KindDirectory {
		return nil
	}
	_, err := v.client.DeleteObject(context.Background(), &s3.DeleteObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.key(relpath)),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", backup.ErrTransient, err)
	}
	return nil
}

func (v *S3View) AbsPath(relpath backup.RelPath) (string, error) {
	return "s3://" + v.bucket + "/" + v.key(relpath), nil
}

// FreeSpace reports an effectively unbounded value: object storage has no
// fixed capacity the way a disk volume does.
func (v *S3View) FreeSpace() (uint64, error) {
	return 1 << 62, nil
}

func (v *S3View) SupportsModTime() bool { return true }

var _ backup.FilesystemView = (*S3View)(nil)
