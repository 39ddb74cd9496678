//go:build unix

package syncgate

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"driftclean/internal/logging"
)

// Extended attributes the cloud-sync agent sets while a transfer is pending.
const (
	xattrDownloadPending = "com.apple.icloud.itemDownloadPending"
	xattrUploadPending   = "com.apple.icloud.itemUploadPending"
)

// placeholderSuffix marks a dataless stand-in for a file still downloading.
const placeholderSuffix = ".icloud"

// XattrOracle inspects extended attributes to judge sync state.
type XattrOracle struct {
	logger *slog.Logger
}

func NewXattrOracle(logger *slog.Logger) *XattrOracle {
	return &XattrOracle{logger: logging.NewComponentLogger(logger, "syncoracle")}
}

func (o *XattrOracle) Check(ctx context.Context, path string) Status {
	if ctx.Err() != nil {
		return StatusUnknown
	}
	if _, err := os.Lstat(path); err != nil {
		return StatusUnknown
	}

	base := path[strings.LastIndexByte(path, '/')+1:]
	if strings.HasPrefix(base, ".") && strings.HasSuffix(base, placeholderSuffix) {
		return StatusSyncing
	}

	names, err := listxattr(path)
	if err != nil {
		o.logger.Debug("xattr read failed", logging.String(logging.FieldPath, path), logging.Error(err))
		return StatusUnknown
	}
	for _, name := range names {
		if name == xattrDownloadPending || name == xattrUploadPending {
			return StatusSyncing
		}
	}
	return StatusSynced
}

func listxattr(path string) ([]string, error) {
	size, err := unix.Llistxattr(path, nil)
	if err != nil {
		if errors.Is(err, unix.ENOTSUP) || errors.Is(err, unix.EOPNOTSUPP) {
			return nil, nil
		}
		return nil, err
	}
	if size == 0 {
		return nil, nil
	}

	buf := make([]byte, size)
	read, err := unix.Llistxattr(path, buf)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, name := range strings.Split(string(buf[:read]), "\x00") {
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
