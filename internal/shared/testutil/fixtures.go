package testutil

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// SampleReportCSV is a small specialization report export. In mode yes it
// cleans to one female completion; in mode no it cleans to the Bo row.
const SampleReportCSV = "Name,Email,External Id,Program Name,Completed,Removed From Program,University\n" +
	"Ana,a@x,1,Data Science (Female),Yes,No,Uni\n" +
	"Ana again,a@x,2,Data Science (Female),Yes,No,Uni\n" +
	"Bo,b@x,3,Data Science (Male),No,No,Uni\n"

// ZipEntry is one file placed in an archive built by BuildZip.
type ZipEntry struct {
	Name string
	Body string
	// Mode is applied to the header when non-zero, e.g. os.ModeSymlink.
	Mode os.FileMode
}

// BuildZip returns an in-memory archive with entries in the given order.
func BuildZip(t testing.TB, entries ...ZipEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.Name, Method: zip.Deflate}
		if e.Mode != 0 {
			hdr.SetMode(e.Mode)
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", e.Name, err)
		}
		if _, err := w.Write([]byte(e.Body)); err != nil {
			t.Fatalf("write zip entry %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// WriteZip writes BuildZip's output to dir/name and returns the path.
func WriteZip(t testing.TB, dir, name string, entries ...ZipEntry) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, BuildZip(t, entries...), 0644); err != nil {
		t.Fatalf("write zip: %v", err)
	}
	return path
}

// SampleReportZip wraps SampleReportCSV in a nested export directory next to
// an unrelated file.
func SampleReportZip(t testing.TB) []byte {
	return BuildZip(t,
		ZipEntry{Name: "export/readme.txt", Body: "generated"},
		ZipEntry{Name: "export/specialization-report-2024.csv", Body: SampleReportCSV},
	)
}
