package eegmisc

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

// GSReadCloser decorates a Google Storage object handle with io.Reader and
// io.Closer. The underlying storage.Reader is created lazily on first Read.
type GSReadCloser struct {
	*storage.ObjectHandle
	Context context.Context
	r       *storage.Reader
}

func (o *GSReadCloser) Read(p []byte) (int, error) {
	if o.r == nil {
		var err error
		o.r, err = o.NewReader(o.Context)
		if err != nil {
			return 0, err
		}
	}

	return o.r.Read(p)
}

// Close satisfies io.Closer. If nothing has been read yet, this is a nop.
func (o *GSReadCloser) Close() error {
	if o.r == nil {
		return nil
	}

	err := o.r.Close()
	o.r = nil

	return err
}

// SplitGSPath splits gs://bucket/path/to/object into its bucket and object
// names.
func SplitGSPath(path string) (bucket, object string, err error) {
	pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
	if len(pathParts) != 2 || pathParts[0] == "" || pathParts[1] == "" {
		return "", "", fmt.Errorf("Tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
	}

	return pathParts[0], pathParts[1], nil
}

// MaybeOpenFromGoogleStorage opens path from Google Storage if it begins with
// gs://, and from the local filesystem otherwise. The size of the object in
// bytes is returned alongside the reader.
func MaybeOpenFromGoogleStorage(path string, client *storage.Client) (io.ReadCloser, int64, error) {
	if strings.HasPrefix(path, "gs://") {
		if client == nil {
			return nil, 0, fmt.Errorf("%s: a google storage client is required for gs:// paths", path)
		}

		bucketName, pathName, err := SplitGSPath(path)
		if err != nil {
			return nil, 0, err
		}

		wrappedHandle := &GSReadCloser{
			ObjectHandle: client.Bucket(bucketName).Object(pathName),
			Context:      context.Background(),
		}

		// Make a hard call to get the filesize
		attrs, err := wrappedHandle.ObjectHandle.Attrs(wrappedHandle.Context)
		if err != nil {
			return nil, 0, pfx.Err(fmt.Errorf("%s: %s", path, err))
		}

		return wrappedHandle, attrs.Size, nil
	}

	f, err := os.Open(ExpandHome(path))
	if err != nil {
		return nil, 0, err
	}
	fstat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}

	return f, fstat.Size(), nil
}
