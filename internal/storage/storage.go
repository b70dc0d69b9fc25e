package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Store 갤러리 이미지 저장소
// key 는 업로드 루트 기준 "<room>/<file>" 형태의 상대 경로
type Store interface {
	Save(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

var (
	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
	spaces      = regexp.MustCompile(`\s+`)
)

// SecureFilename 경로 구분자와 비 ASCII 문자를 제거한 파일 이름
func SecureFilename(name string) string {
	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)
	name = strings.Join(spaces.Split(strings.TrimSpace(name), -1), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// UploadKey 미팅별 업로드 키 생성 ("<room>/<uuid>_<name>")
func UploadKey(roomID, originalName string) string {
	return SecureFilename(roomID) + "/" + SecureFilename(uuid.NewString()+"_"+originalName)
}

// LocalStore 업로드 디렉터리 아래에 저장하고 urlPrefix (/static/uploads) 로 제공
type LocalStore struct {
	root      string
	urlPrefix string
}

// NewLocalStore root 는 업로드 디렉터리 (UPLOAD_DIR)
func NewLocalStore(root, urlPrefix string) *LocalStore {
	return &LocalStore{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/")}
}

func (s *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

// Save 상위 디렉터리를 만들고 파일 기록
func (s *LocalStore) Save(_ context.Context, key, _ string, data []byte) (string, error) {
	path, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return s.URL(key), nil
}

// Delete 파일이 이미 없으면 성공으로 처리
func (s *LocalStore) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) URL(key string) string {
	return s.urlPrefix + "/" + strings.TrimLeft(key, "/")
}
