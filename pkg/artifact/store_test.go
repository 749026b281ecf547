package artifact

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	domainApod "github.com/AzielCF/az-apod/domains/apod"
	pkgError "github.com/AzielCF/az-apod/pkg/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type writeConverter struct {
	size  int
	err   error
	calls int
	paths []string
}

func (c *writeConverter) Convert(_ context.Context, _, _, outputPath string) error {
	c.calls++
	c.paths = append(c.paths, outputPath)
	if c.size > 0 {
		if err := os.WriteFile(outputPath, make([]byte, c.size), 0644); err != nil {
			return err
		}
	}
	return c.err
}

func newStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "img"))
	require.NoError(t, err)
	return s
}

func TestFileStore_MissThenMaterializeThenHit(t *testing.T) {
	s := newStore(t)
	mode := domainApod.ResolveMode("15")

	_, hit, err := s.Lookup("AP240101.G15", ExistencePolicy{})
	require.NoError(t, err)
	assert.False(t, hit)

	conv := &writeConverter{size: mode.Size()}
	a, err := s.Materialize(context.Background(), "AP240101.G15", mode, "https://example.test/a.jpg", conv)
	require.NoError(t, err)
	assert.Equal(t, int64(7684), a.Size)
	assert.Equal(t, 1, conv.calls)
	assert.Equal(t, ".G15", filepath.Ext(conv.paths[0]))
	assert.NotEqual(t, a.Path, conv.paths[0])

	got, hit, err := s.Lookup("AP240101.G15", ExistencePolicy{})
	require.NoError(t, err)
	require.True(t, hit)
	data, err := s.Read(got)
	require.NoError(t, err)
	assert.Len(t, data, 7684)

	_, statErr := os.Stat(conv.paths[0])
	assert.True(t, os.IsNotExist(statErr), "temp file must not survive")
}

func TestFileStore_NeverFreshAlwaysMisses(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.WriteFile("SAMPLE2.GR8", make([]byte, 7680)))

	_, hit, err := s.Lookup("SAMPLE2.GR8", NeverFresh{})
	require.NoError(t, err)
	assert.False(t, hit)

	_, hit, err = s.Lookup("SAMPLE2.GR8", ExistencePolicy{})
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestFileStore_MaxAgePolicy(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.WriteFile("AP240101.GR9", make([]byte, 7680)))

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, hit, _ := s.Lookup("AP240101.GR9", MaxAgePolicy{MaxAge: time.Hour})
	assert.False(t, hit)
	_, hit, _ = s.Lookup("AP240101.GR9", MaxAgePolicy{MaxAge: 3 * time.Hour})
	assert.True(t, hit)
	_, hit, _ = s.Lookup("AP240101.GR9", MaxAgePolicy{})
	assert.True(t, hit)
}

func TestFileStore_ConverterLeavesNothing(t *testing.T) {
	s := newStore(t)
	_, err := s.Materialize(context.Background(), "AP240101.GR9", domainApod.DefaultMode, "u", &writeConverter{})

	var conv pkgError.ConversionError
	require.True(t, errors.As(err, &conv))
	_, hit, _ := s.Lookup("AP240101.GR9", ExistencePolicy{})
	assert.False(t, hit)
}

func TestFileStore_ConverterErrorIsConversionFailure(t *testing.T) {
	s := newStore(t)
	_, err := s.Materialize(context.Background(), "AP240101.GR9", domainApod.DefaultMode, "u",
		&writeConverter{size: 7680, err: errors.New("exit status 1")})

	var conv pkgError.ConversionError
	require.True(t, errors.As(err, &conv))
	_, hit, _ := s.Lookup("AP240101.GR9", ExistencePolicy{})
	assert.False(t, hit)
}

func TestFileStore_ConverterTimeoutKeepsKind(t *testing.T) {
	s := newStore(t)
	_, err := s.Materialize(context.Background(), "AP240101.GR9", domainApod.DefaultMode, "u",
		&writeConverter{err: pkgError.TimeoutError("converter timed out")})

	var timeout pkgError.TimeoutError
	assert.True(t, errors.As(err, &timeout))
}

func TestFileStore_WrongSizeIsNotPublished(t *testing.T) {
	s := newStore(t)
	_, err := s.Materialize(context.Background(), "AP240101.G15", domainApod.ResolveMode("15"), "u", &writeConverter{size: 7680})

	var integrity pkgError.IntegrityError
	require.True(t, errors.As(err, &integrity))
	files, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFileStore_DescriptionFileRoundTrip(t *testing.T) {
	s := newStore(t)
	_, ok, err := s.ReadFile(DescriptionFile)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.WriteFile(DescriptionFile, []byte("abc\x9b")))
	data, ok, err := s.ReadFile(DescriptionFile)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("abc\x9b"), data)
}

func TestFileStore_ListSkipsTempAndDescription(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.WriteFile("AP240101.GR9", make([]byte, 10)))
	require.NoError(t, s.WriteFile(DescriptionFile, []byte("x")))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), ".tmp-abc-AP240102.GR9"), []byte("x"), 0644))

	files, err := s.List()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "AP240101.GR9", files[0].Name)
}

func TestFileStore_RemoveStaleTemps(t *testing.T) {
	s := newStore(t)
	stale := filepath.Join(s.Dir(), ".tmp-abc-AP240102.GR9")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0644))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	assert.Equal(t, 1, s.RemoveStaleTemps(time.Hour))
	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_Evict(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.WriteFile("AP240101.GR9", make([]byte, 10)))
	require.NoError(t, s.Evict("AP240101.GR9"))
	require.NoError(t, s.Evict("AP240101.GR9"))
	_, hit, _ := s.Lookup("AP240101.GR9", ExistencePolicy{})
	assert.False(t, hit)
}
