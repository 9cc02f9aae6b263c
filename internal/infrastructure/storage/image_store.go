// Package storage 把 data URL 形式的图片落盘到静态目录
package storage

import (
	"context"
	"encoding/base64"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"pulse_chat_server/pkg/constants"
	"pulse_chat_server/pkg/errorx"
	"pulse_chat_server/pkg/util/random"

	"go.uber.org/zap"
)

// ImageStore 保存图片并返回可公开访问的 URL
type ImageStore interface {
	SaveDataURL(ctx context.Context, dataURL string) (string, error)
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// LocalImageStore 写入本地目录，由 gin Static 对外提供
type LocalImageStore struct {
	dir       string
	urlPrefix string
	maxSize   int
}

func NewLocalImageStore(dir, urlPrefix string) *LocalImageStore {
	return &LocalImageStore{dir: dir, urlPrefix: urlPrefix, maxSize: constants.FILE_MAX_SIZE}
}

// SaveDataURL 解码 data:image/...;base64,... 并按 magic bytes 校验类型
func (s *LocalImageStore) SaveDataURL(ctx context.Context, dataURL string) (string, error) {
	data, err := DecodeDataURL(dataURL)
	if err != nil {
		return "", err
	}
	if len(data) > s.maxSize {
		return "", errorx.New(errorx.CodeInvalidParam, "image is too large")
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return "", errorx.Newf(errorx.CodeInvalidParam, "invalid image type: %s", contentType)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", errorx.Wrap(err, errorx.CodeServerBusy, "create image dir")
	}
	name := random.TimestampedName(10) + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", errorx.Wrap(err, errorx.CodeServerBusy, "write image")
	}
	zap.L().Info("image stored", zap.String("file", name), zap.Int("size", len(data)))
	return path.Join(s.urlPrefix, name), nil
}

// DecodeDataURL 只接受 base64 编码的 image/* data URL
func DecodeDataURL(dataURL string) ([]byte, error) {
	header, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return nil, errorx.New(errorx.CodeInvalidParam, "image must be a base64 data URL")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.CodeInvalidParam, "image is not valid base64")
	}
	if len(data) == 0 {
		return nil, errorx.New(errorx.CodeInvalidParam, "image is empty")
	}
	return data, nil
}
