package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"vehicle-intelligence/internal/errors"
)

func TestPathPolicy_RejectsTraversal(t *testing.T) {
	base := t.TempDir()
	policy, err := NewPathPolicy([]string{base})
	require.NoError(t, err)

	for _, path := range []string{
		"../../etc/passwd",
		"/etc/passwd",
		filepath.Join(base, "..", "..", "etc", "passwd"),
		filepath.Join(base, "videos", "..", "..", "outside.mp4"),
	} {
		_, err := policy.Resolve(path)
		require.Error(t, err, path)
		require.True(t, errors.Is(err, errors.ErrValidation), path)
	}
}

func TestPathPolicy_AcceptsMissingDescendant(t *testing.T) {
	base := t.TempDir()
	policy, err := NewPathPolicy([]string{base})
	require.NoError(t, err)

	resolved, err := policy.Resolve(filepath.Join(base, "videos", "missing.mp4"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(policy.Bases()[0], "videos", "missing.mp4"), resolved)
}

func TestPathPolicy_ResolvesMissingFileUnderSymlinkedBase(t *testing.T) {
	target := t.TempDir()
	link := filepath.Join(t.TempDir(), "uploads")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks are not supported: %v", err)
	}

	policy, err := NewPathPolicy([]string{link})
	require.NoError(t, err)

	resolved, err := policy.Resolve(filepath.Join(link, "gone.mp4"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(policy.Bases()[0], "gone.mp4"), resolved)

	resolved, err = policy.Resolve(filepath.Join(link, "videos", "nested", "gone.mp4"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(policy.Bases()[0], "videos", "nested", "gone.mp4"), resolved)
}

func TestPathPolicy_RejectsSymlinkEscape(t *testing.T) {
	base := t.TempDir()
	outside := t.TempDir()
	target := filepath.Join(outside, "secret.mp4")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	link := filepath.Join(base, "link.mp4")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks are not supported: %v", err)
	}

	policy, err := NewPathPolicy([]string{base})
	require.NoError(t, err)

	_, err = policy.Resolve(link)
	require.True(t, errors.Is(err, errors.ErrValidation))
}

func TestPathPolicy_MultipleBases(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	policy, err := NewPathPolicy([]string{first, " ", second})
	require.NoError(t, err)
	require.Len(t, policy.Bases(), 2)

	_, err = policy.Resolve(filepath.Join(second, "clip.mp4"))
	require.NoError(t, err)
}

func TestPathPolicy_RequiresBase(t *testing.T) {
	_, err := NewPathPolicy([]string{"", "  "})
	require.Error(t, err)
}

func TestLayout_Relative(t *testing.T) {
	root := t.TempDir()
	layout, err := NewLayout(root)
	require.NoError(t, err)

	frame := filepath.Join(layout.FramesDir("insp-1"), "frame_0001.jpg")
	require.Equal(t, "frames/insp-1/frame_0001.jpg", layout.Relative(frame))
	require.Equal(t, "damage/insp-1", layout.Relative(layout.DamageDir("insp-1")))
	require.Equal(t, "", layout.Relative(""))
	require.Equal(t, "", layout.Relative("/etc/passwd"))
	require.Equal(t, "", layout.Relative(filepath.Join(layout.Root(), "..", "sibling.jpg")))
}

func TestLayout_Import(t *testing.T) {
	layout, err := NewLayout(t.TempDir())
	require.NoError(t, err)

	inside := filepath.Join(layout.Root(), "images", "odo.jpg")
	require.NoError(t, os.MkdirAll(filepath.Dir(inside), 0o755))
	require.NoError(t, os.WriteFile(inside, []byte("inside"), 0o644))
	got, err := layout.Import("insp-3", inside)
	require.NoError(t, err)
	require.Equal(t, inside, got)

	outside := filepath.Join(t.TempDir(), "odo.jpg")
	require.NoError(t, os.WriteFile(outside, []byte("outside"), 0o644))
	got, err = layout.Import("insp-3", outside)
	require.NoError(t, err)
	require.Equal(t, "odometer/insp-3/odo.jpg", layout.Relative(got))
	data, err := os.ReadFile(got)
	require.NoError(t, err)
	require.Equal(t, "outside", string(data))

	_, err = layout.Import("insp-3", filepath.Join(t.TempDir(), "missing.jpg"))
	require.Error(t, err)
}

func TestLayout_Ensure(t *testing.T) {
	layout, err := NewLayout(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, layout.Ensure("insp-2"))

	for _, dir := range []string{layout.FramesDir("insp-2"), layout.DamageDir("insp-2"), layout.ExhaustDir("insp-2")} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		require.True(t, info.IsDir())
	}
}

func TestObjectKey(t *testing.T) {
	require.Equal(t, "frames/a/frame_0001.jpg", objectKey("frames/a/frame_0001.jpg"))
	require.Equal(t, "damage/a/x.jpg", objectKey("/damage/a/x.jpg"))
	require.Equal(t, "", objectKey("../etc/passwd"))
	require.Equal(t, "image/jpeg", contentType("a/b.JPG"))
}
