// Package archive creates backup archives of repository folders. The
// archive is written next to the folder as <folder>.<extension> and
// entry names are slash-relative to the folder root.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/input-output-hk/catalyst-forge-libs/fs"
)

// Format selects the archive container and compression.
type Format string

const (
	FormatZip   Format = "zip"
	FormatTar   Format = "tar"
	FormatTarGz Format = "tar.gz"
)

// extension returns the file extension appended to the folder name.
func (f Format) extension() string {
	return string(f)
}

// ParseFormat maps user input onto a supported Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "zip":
		return FormatZip, nil
	case "tar":
		return FormatTar, nil
	case "tar.gz", "tgz":
		return FormatTarGz, nil
	default:
		return "", fmt.Errorf("unsupported archive format: %s", s)
	}
}

// Create archives folderPath on fsys and returns the archive path.
func Create(fsys fs.Filesystem, folderPath string, format Format) (string, error) {
	info, err := fsys.Stat(folderPath)
	if err != nil {
		return "", fmt.Errorf("failed to stat folder: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", folderPath)
	}

	outputPath := filepath.Join(filepath.Dir(folderPath),
		filepath.Base(folderPath)+"."+format.extension())

	out, err := fsys.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive file: %w", err)
	}
	defer out.Close()

	switch format {
	case FormatZip:
		err = writeZip(fsys, folderPath, out)
	case FormatTar:
		err = writeTar(fsys, folderPath, out)
	case FormatTarGz:
		gz := gzip.NewWriter(out)
		if err = writeTar(fsys, folderPath, gz); err == nil {
			err = gz.Close()
		}
	default:
		err = fmt.Errorf("unsupported archive format: %s", format)
	}
	if err != nil {
		_ = fsys.Remove(outputPath)
		return "", err
	}
	return outputPath, nil
}

func writeZip(fsys fs.Filesystem, folderPath string, out io.Writer) error {
	zw := zip.NewWriter(out)

	err := walkFiles(fsys, folderPath, func(path, name string, info os.FileInfo) error {
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = name
		header.Method = zip.Deflate

		w, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		return copyFile(fsys, path, w)
	})
	if err != nil {
		return err
	}
	return zw.Close()
}

func writeTar(fsys fs.Filesystem, folderPath string, out io.Writer) error {
	tw := tar.NewWriter(out)

	err := walkFiles(fsys, folderPath, func(path, name string, info os.FileInfo) error {
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = name

		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		return copyFile(fsys, path, tw)
	})
	if err != nil {
		return err
	}
	return tw.Close()
}

// walkFiles visits every regular file under folderPath, handing the
// callback the absolute path and the slash-relative entry name.
func walkFiles(fsys fs.Filesystem, folderPath string, visit func(path, name string, info os.FileInfo) error) error {
	return fsys.Walk(folderPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info == nil || info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(folderPath, path)
		if err != nil {
			return err
		}
		return visit(path, filepath.ToSlash(rel), info)
	})
}

func copyFile(fsys fs.Filesystem, path string, w io.Writer) error {
	f, err := fsys.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
