package archive

import (
	"bytes"
	"io"
	"os"

	"github.com/richardlehane/mscfb"
)

// cfbSignature opens every OLE compound file.
var cfbSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Stream names Office uses for an agile or standard encrypted package.
const (
	encryptedPackageStream = "EncryptedPackage"
	encryptionInfoStream   = "EncryptionInfo"
)

// DetectEncrypted reports whether the file at path is an OLE compound file
// wrapping an encrypted OOXML package.
func DetectEncrypted(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	sig := make([]byte, len(cfbSignature))
	if _, err := io.ReadFull(f, sig); err != nil {
		return false, nil
	}
	if !bytes.Equal(sig, cfbSignature) {
		return false, nil
	}

	doc, err := mscfb.New(f)
	if err != nil {
		return false, err
	}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		switch entry.Name {
		case encryptedPackageStream, encryptionInfoStream:
			return true, nil
		}
	}
	return false, nil
}
