package safefile

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestOpenRegular_Success(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")
	if err := os.WriteFile(path, []byte("test content"), 0644); err != nil {
		t.Fatal(err)
	}

	f, info, err := OpenRegular(path)
	if err != nil {
		t.Fatalf("OpenRegular() error = %v, want nil", err)
	}
	defer f.Close()

	if !info.Mode().IsRegular() {
		t.Error("expected regular file")
	}

	// Verify we can read from the file
	buf := make([]byte, 12)
	n, err := f.Read(buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(buf[:n]) != "test content" {
		t.Errorf("Read() = %q, want %q", string(buf[:n]), "test content")
	}
}

func TestOpenRegular_FileNotExist(t *testing.T) {
	_, _, err := OpenRegular("/nonexistent/path/file.txt")
	if err == nil {
		t.Error("OpenRegular() expected error for nonexistent file")
	}
	if !os.IsNotExist(err) {
		t.Errorf("OpenRegular() error = %v, want os.IsNotExist", err)
	}
}

func TestOpenRegular_RejectsSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink test requires Unix")
	}

	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	link := filepath.Join(dir, "link.txt")

	if err := os.WriteFile(target, []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}

	_, _, err := OpenRegular(link)
	if err == nil {
		t.Error("OpenRegular() expected error for symlink")
	}
	if !errors.Is(err, ErrNotRegularFile) {
		t.Errorf("OpenRegular() error = %v, want ErrNotRegularFile", err)
	}
}

func TestOpenRegular_RejectsDirectory(t *testing.T) {
	dir := t.TempDir()

	_, _, err := OpenRegular(dir)
	if err == nil {
		t.Error("OpenRegular() expected error for directory")
	}
	if !errors.Is(err, ErrNotRegularFile) {
		t.Errorf("OpenRegular() error = %v, want ErrNotRegularFile", err)
	}
}

func TestOpenRegular_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(path, []byte(""), 0644); err != nil {
		t.Fatal(err)
	}

	f, info, err := OpenRegular(path)
	if err != nil {
		t.Fatalf("OpenRegular() error = %v, want nil", err)
	}
	defer f.Close()

	if info.Size() != 0 {
		t.Errorf("Size() = %d, want 0", info.Size())
	}
}

func TestReadFrom(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "output_1")
	if err := os.WriteFile(path, []byte("first\nsecond\n"), 0644); err != nil {
		t.Fatal(err)
	}

	data, size, err := ReadFrom(path, 6)
	if err != nil {
		t.Fatalf("ReadFrom() error = %v", err)
	}
	if string(data) != "second\n" {
		t.Errorf("ReadFrom() data = %q, want %q", data, "second\n")
	}
	if size != 13 {
		t.Errorf("ReadFrom() size = %d, want 13", size)
	}
}

func TestReadFrom_AtEnd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "output_1")
	if err := os.WriteFile(path, []byte("abc\n"), 0644); err != nil {
		t.Fatal(err)
	}

	data, size, err := ReadFrom(path, 4)
	if err != nil {
		t.Fatalf("ReadFrom() error = %v", err)
	}
	if len(data) != 0 || size != 4 {
		t.Errorf("ReadFrom() = (%q, %d), want (\"\", 4)", data, size)
	}
}

func TestReadFrom_Shrunk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "output_1")
	if err := os.WriteFile(path, []byte("ab\n"), 0644); err != nil {
		t.Fatal(err)
	}

	data, size, err := ReadFrom(path, 100)
	if err != nil {
		t.Fatalf("ReadFrom() error = %v", err)
	}
	if data != nil || size != 3 {
		t.Errorf("ReadFrom() = (%q, %d), want (nil, 3)", data, size)
	}
}

func TestReadFrom_NegativeOffset(t *testing.T) {
	if _, _, err := ReadFrom("whatever", -1); err == nil {
		t.Error("ReadFrom() expected error for negative offset")
	}
}

func TestReadFrom_FileNotExist(t *testing.T) {
	_, _, err := ReadFrom("/nonexistent/path/file.txt", 0)
	if !os.IsNotExist(err) {
		t.Errorf("ReadFrom() error = %v, want os.IsNotExist", err)
	}
}
