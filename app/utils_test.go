package app

import (
	"bytes"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/require"

	actx "go.hackfix.me/dbctl/app/context"
	"go.hackfix.me/dbctl/db"
	"go.hackfix.me/dbctl/db/dbtest"
)

var timeNow = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type mockTime struct{}

var _ actx.TimeSource = mockTime{}

func (mockTime) Now() time.Time {
	return timeNow
}

type testApp struct {
	*App
	stdin, stdout, stderr *safeBuffer
	env                   *mockEnv
	fs                    vfs.FileSystem
	exec                  *db.Executor
}

func newTestApp(t *testing.T, opts ...Option) *testApp {
	t.Helper()

	var (
		stdin, stdout, stderr = newSafeBuffer(), newSafeBuffer(), newSafeBuffer()
		env                   = &mockEnv{env: map[string]string{}}
		fs                    = memoryfs.New()
		pool                  = dbtest.NewPool(t)
	)

	opts = append([]Option{
		WithTimeSource(mockTime{}),
		WithEnv(env),
		WithDB(pool),
		WithContext(t.Context()),
		WithFDs(stdin, stdout, stderr),
		WithFS(fs),
		WithLogger(false),
	}, opts...)
	app, err := New("dbctl", "/config.json", opts...)
	require.NoError(t, err)

	return &testApp{
		App: app, stdin: stdin, stdout: stdout, stderr: stderr,
		env: env, fs: fs, exec: db.NewExecutor(pool),
	}
}

// Run resets the output buffers and runs the app with the given arguments.
func (ta *testApp) Run(args ...string) error {
	ta.stdout.Reset()
	ta.stderr.Reset()

	return ta.App.Run(args)
}

func (ta *testApp) writeFiles(t *testing.T, files map[string]string) {
	t.Helper()

	for path, content := range files {
		require.NoError(t, ta.fs.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, vfs.WriteFile(ta.fs, path, []byte(content), 0o644))
	}
}

type mockEnv struct {
	mx  sync.RWMutex
	env map[string]string
}

var _ actx.Environment = (*mockEnv)(nil)

func (me *mockEnv) Get(key string) string {
	me.mx.RLock()
	defer me.mx.RUnlock()
	return me.env[key]
}

func (me *mockEnv) Set(key, val string) error {
	me.mx.Lock()
	defer me.mx.Unlock()
	me.env[key] = val
	return nil
}

// safeBuffer is a thread-safe buffer.
type safeBuffer struct {
	mx  sync.RWMutex
	buf *bytes.Buffer
}

func newSafeBuffer() *safeBuffer {
	return &safeBuffer{buf: &bytes.Buffer{}}
}

func (b *safeBuffer) Read(p []byte) (n int, err error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.buf.Read(p)
}

func (b *safeBuffer) Write(p []byte) (n int, err error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) Reset() {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.buf.Reset()
}

func (b *safeBuffer) String() string {
	b.mx.RLock()
	defer b.mx.RUnlock()
	return b.buf.String()
}
