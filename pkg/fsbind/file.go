package fsbind

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/rebind-dev/rebind/pkg/binding"
)

// absentToken is the change UID of a binding whose file does not exist.
const absentToken = "absent"

// FileBinding exposes one file's content as a binding. The change UID
// is derived from the content, so a rewrite that leaves the bytes
// identical is not a change, no matter how many filesystem events it
// produced.
type FileBinding struct {
	uid  string
	path string

	mu        sync.RWMutex
	content   []byte
	exists    bool
	changeUID string

	listeners binding.Listeners
}

func newFileBinding(path string, content []byte, exists bool) *FileBinding {
	return &FileBinding{
		uid:       binding.NewUID(),
		path:      path,
		content:   content,
		exists:    exists,
		changeUID: contentToken(content, exists),
	}
}

func contentToken(content []byte, exists bool) string {
	if !exists {
		return absentToken
	}
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:12])
}

// UID returns the binding's stable identity.
func (fb *FileBinding) UID() string {
	return fb.uid
}

// ChangeUID returns the token for the current content generation.
func (fb *FileBinding) ChangeUID() string {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	return fb.changeUID
}

// Value returns the file content as []byte, or nil when the file is
// absent.
func (fb *FileBinding) Value() any {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	if !fb.exists {
		return nil
	}
	return fb.content
}

// Content returns the current content and whether the file exists.
func (fb *FileBinding) Content() ([]byte, bool) {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	return fb.content, fb.exists
}

// Text returns the content as a string, empty when absent.
func (fb *FileBinding) Text() string {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	if !fb.exists {
		return ""
	}
	return string(fb.content)
}

// Path returns the absolute path this binding follows.
func (fb *FileBinding) Path() string {
	return fb.path
}

// AddChangeListener registers fn to run after each content change and
// returns its remover.
func (fb *FileBinding) AddChangeListener(fn func()) binding.Remover {
	return fb.listeners.Add(fn)
}

// apply installs freshly read state. Listeners are notified only when
// the content token moved.
func (fb *FileBinding) apply(content []byte, exists bool) {
	token := contentToken(content, exists)

	fb.mu.Lock()
	if token == fb.changeUID {
		fb.mu.Unlock()
		return
	}
	fb.content = content
	fb.exists = exists
	fb.changeUID = token
	fb.mu.Unlock()

	fb.listeners.Notify()
}
