package assetpack

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

var testLoader = Loader{Extensions: []string{".png", ".tga"}}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to create %s: %v", name, err)
	}
	return path
}

// zipBytes builds a ZIP archive holding the given name/content pairs.
func zipBytes(t *testing.T, files ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for i := 0; i+1 < len(files); i += 2 {
		fw, err := w.Create(files[i])
		if err != nil {
			t.Fatalf("Failed to create %s in zip: %v", files[i], err)
		}
		if _, err := fw.Write([]byte(files[i+1])); err != nil {
			t.Fatalf("Failed to write zip entry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Failed to write gzip: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close gzip: %v", err)
	}
	return buf.Bytes()
}

func tarBytes(t *testing.T, name string, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := tar.NewWriter(&buf)
	if err := w.WriteHeader(&tar.Header{Name: "readme.txt", Mode: 0644, Size: 2, Typeflag: tar.TypeReg}); err != nil {
		t.Fatal(err)
	}
	w.Write([]byte("hi"))
	if err := w.WriteHeader(&tar.Header{Name: name, Mode: 0644, Size: int64(len(data)), Typeflag: tar.TypeReg}); err != nil {
		t.Fatal(err)
	}
	w.Write(data)
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close tar: %v", err)
	}
	return buf.Bytes()
}

func TestLoad_Plain(t *testing.T) {
	path := writeFile(t, "bg.png", []byte{1, 2, 3})

	asset, err := testLoader.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if asset.Name != "bg.png" || !bytes.Equal(asset.Data, []byte{1, 2, 3}) {
		t.Errorf("Load = %q %v, want bg.png [1 2 3]", asset.Name, asset.Data)
	}
}

func TestLoad_ZIP(t *testing.T) {
	data := zipBytes(t, "readme.txt", "skip me", "themes/wood.TGA", "pixels")
	path := writeFile(t, "theme.zip", data)

	asset, err := testLoader.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if asset.Name != "wood.TGA" {
		t.Errorf("Name = %q, want wood.TGA", asset.Name)
	}
	if string(asset.Data) != "pixels" {
		t.Errorf("Data = %q, want pixels", asset.Data)
	}
}

func TestLoad_ZIPDetectedByMagic(t *testing.T) {
	data := zipBytes(t, "bg.png", "x")
	path := writeFile(t, "theme.dat", data)

	if _, err := testLoader.Load(path); err != nil {
		t.Errorf("Load of a zip without extension: %v", err)
	}
}

func TestLoad_ZIPNoMatch(t *testing.T) {
	path := writeFile(t, "theme.zip", zipBytes(t, "readme.txt", "nothing"))

	_, err := testLoader.Load(path)
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("Load error = %v, want ErrNoMatch", err)
	}
}

func TestLoad_Gzip(t *testing.T) {
	path := writeFile(t, "bg.png.gz", gzipBytes(t, []byte("compressed")))

	asset, err := testLoader.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if asset.Name != "bg.png" || string(asset.Data) != "compressed" {
		t.Errorf("Load = %q %q, want bg.png compressed", asset.Name, asset.Data)
	}
}

func TestLoad_GzipWrongInnerExtension(t *testing.T) {
	path := writeFile(t, "notes.txt.gz", gzipBytes(t, []byte("text")))

	if _, err := testLoader.Load(path); !errors.Is(err, ErrNoMatch) {
		t.Errorf("Load error = %v, want ErrNoMatch", err)
	}
}

func TestLoad_TarGz(t *testing.T) {
	data := gzipBytes(t, tarBytes(t, "art/bg.png", []byte("tarred")))
	path := writeFile(t, "theme.tar.gz", data)

	asset, err := testLoader.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if asset.Name != "bg.png" || string(asset.Data) != "tarred" {
		t.Errorf("Load = %q %q, want bg.png tarred", asset.Name, asset.Data)
	}
}

func TestLoad_TooLarge(t *testing.T) {
	l := Loader{Extensions: []string{".png"}, MaxSize: 8}

	plain := writeFile(t, "big.png", make([]byte, 9))
	if _, err := l.Load(plain); !errors.Is(err, ErrTooLarge) {
		t.Errorf("plain Load error = %v, want ErrTooLarge", err)
	}

	zipped := writeFile(t, "big.zip", zipBytes(t, "big.png", "0123456789"))
	if _, err := l.Load(zipped); !errors.Is(err, ErrTooLarge) {
		t.Errorf("zip Load error = %v, want ErrTooLarge", err)
	}

	exact := writeFile(t, "exact.png", make([]byte, 8))
	if _, err := l.Load(exact); err != nil {
		t.Errorf("Load at the size limit: %v", err)
	}
}

func TestLoad_Unsupported(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("plain text"))

	if _, err := testLoader.Load(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Load error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := testLoader.Load("/nonexistent/path/bg.png"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoad_InvalidArchives(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"fake.7z", []byte("not a 7z file")},
		{"magic.7z", append(append([]byte{}, magic7z...), 0, 4, 1, 2)},
		{"fake.rar", []byte("not a rar file")},
		{"empty.rar", []byte{}},
		{"magic.rar", append(append([]byte{}, magicRAR...), []byte("invalid")...)},
		{"bad.gz", []byte{0x1F, 0x8B, 0x00}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, tc.name, tc.data)

			defer func() {
				if r := recover(); r != nil {
					t.Logf("Library panicked on corrupted archive: %v", r)
				}
			}()
			if _, err := testLoader.Load(path); err == nil {
				t.Error("Expected error for invalid archive")
			}
		})
	}
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
		path   string
		want   container
	}{
		{"zip magic", magicZIP, "file.dat", containerZIP},
		{"empty zip magic", magicZIPEnd, "file.dat", containerZIP},
		{"7z magic", magic7z, "file.dat", container7z},
		{"gzip magic", magicGzip, "file.dat", containerGzip},
		{"rar magic", magicRAR, "file.dat", containerRAR},
		{"zip extension", nil, "file.ZIP", containerZIP},
		{"7z extension", nil, "file.7z", container7z},
		{"tgz extension", nil, "file.tgz", containerGzip},
		{"rar extension", nil, "file.Rar", containerRAR},
		{"wanted extension", nil, "bg.PNG", containerPlain},
		{"unknown", nil, "bg.bmp", containerUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := testLoader.sniff(tc.header, tc.path); got != tc.want {
				t.Errorf("sniff(%v, %q) = %d, want %d", tc.header, tc.path, got, tc.want)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"bg.png", true},
		{"bg.PNG", true},
		{"dir/bg.tga", true},
		{"bg.png.bak", false},
		{"png", false},
		{".png", true},
	}

	for _, tc := range tests {
		if got := testLoader.matches(tc.name); got != tc.want {
			t.Errorf("matches(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}
