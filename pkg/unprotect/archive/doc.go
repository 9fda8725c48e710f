// Package archive unpacks and repacks the ZIP container of a workbook.
package archive

import (
	"errors"
	"io"

	"github.com/klauspost/compress/flate"
)

// ErrArchiveFormat indicates the input is not a usable ZIP container.
var ErrArchiveFormat = errors.New("invalid archive format")

// ErrEncryptedWorkbook indicates the input is a password-encrypted workbook.
// Such files are OLE compound documents rather than ZIP archives and cannot be
// opened without the password.
var ErrEncryptedWorkbook = errors.New("workbook is encrypted with a file-open password")

// ContentTypesEntry is written first in every archive produced by Build.
const ContentTypesEntry = "[Content_Types].xml"

func bestCompressor(w io.Writer) (io.WriteCloser, error) {
	return flate.NewWriter(w, flate.BestCompression)
}
