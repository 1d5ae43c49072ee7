package linker

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/coldog/minipack/pkg/builderr"
	"github.com/coldog/minipack/pkg/logging"
	"github.com/coldog/minipack/pkg/util"
)

// HashPlaceholder in an output filename is replaced by a digest of the bundle.
const HashPlaceholder = "[hash]"

const hashLen = 16

// Output is where a bundle is written.
type Output struct {
	Path     string
	Filename string
}

// File returns the output file for bundle.
func (o Output) File(bundle []byte) string {
	name := o.Filename
	if strings.Contains(name, HashPlaceholder) {
		h := sha256.Sum256(bundle)
		name = strings.ReplaceAll(name, HashPlaceholder, hex.EncodeToString(h[:])[:hashLen])
	}
	return filepath.Join(o.Path, name)
}

// Write writes bundle to its output file and returns the file's path. The
// file is replaced atomically; on failure nothing is left behind.
func Write(o Output, bundle []byte) (string, error) {
	file := o.File(bundle)
	if err := util.WriteFileAtomic(file, bundle, 0o644); err != nil {
		return "", builderr.New(builderr.KindWrite).Path(file).Cause(err).Build()
	}
	logging.Logger().Info("bundle written", zap.String("file", file), zap.Int("bytes", len(bundle)))
	return file, nil
}
