package eegmisc

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"
)

func TestMaybeDecompress(t *testing.T) {
	payload := []byte("0       patient record, not compressed at all")

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	if _, err := zw.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	for _, v := range []struct {
		Name     string
		Input    []byte
		Expected DataType
	}{
		{"plain", payload, DataTypeNoCompression},
		{"gzip", gz.Bytes(), DataTypeGzip},
	} {
		rc, dt, err := MaybeDecompress(bytes.NewReader(v.Input))
		if err != nil {
			t.Fatalf("%s: %v", v.Name, err)
		}
		if dt != v.Expected {
			t.Fatalf("%s: detected %s, expected %s", v.Name, dt, v.Expected)
		}

		got, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("%s: %v", v.Name, err)
		}
		rc.Close()

		if !bytes.Equal(got, payload) {
			t.Fatalf("%s: got %q, expected %q", v.Name, got, payload)
		}
	}
}

func TestMaybeDecompressShortStream(t *testing.T) {
	rc, dt, err := MaybeDecompress(bytes.NewReader([]byte{0x1f}))
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()

	if dt != DataTypeNoCompression {
		t.Fatalf("detected %s for a one-byte stream", dt)
	}
}

func TestSplitGSPath(t *testing.T) {
	bucket, object, err := SplitGSPath("gs://eeg-bucket/physionet/S001R04.edf")
	if err != nil {
		t.Fatal(err)
	}
	if bucket != "eeg-bucket" || object != "physionet/S001R04.edf" {
		t.Fatalf("got bucket %q object %q", bucket, object)
	}

	if _, _, err := SplitGSPath("gs://eeg-bucket"); err == nil {
		t.Fatal("expected an error for a path without an object")
	}
}
