package mirror

import "codeberg.org/mutker/dhtlogger/internal/errors"

const (
	ErrMirrorConnect = errors.ErrorCode("mirror_connect_failed")
	ErrMirrorPublish = errors.ErrorCode("mirror_publish_failed")
)
