package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/gobeaver/bucketkit"
)

func newTestBucket(t *testing.T, cfg ...Config) (*bucketkit.Provider, *bucketkit.Bucket) {
	t.Helper()

	provider, err := bucketkit.NewProvider(bucketkit.ProviderConfig{
		Name: "mem",
		Type: "memory",
	}, New(cfg...))
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if err := provider.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	bucket, err := provider.AddBucket(context.Background(), "test", nil)
	if err != nil {
		t.Fatalf("AddBucket: %v", err)
	}
	return provider, bucket
}

func mustPut(t *testing.T, b *bucketkit.Bucket, path, content string, opts ...bucketkit.Option) {
	t.Helper()
	if _, err := b.PutFile(context.Background(), bucketkit.Path(path), strings.NewReader(content), opts...); err != nil {
		t.Fatalf("PutFile(%s): %v", path, err)
	}
}

func TestPutAndRead(t *testing.T) {
	_, bucket := newTestBucket(t)
	ctx := context.Background()

	mustPut(t, bucket, "docs/readme.md", "# hello")

	resp, err := bucket.GetFileContents(ctx, bucketkit.Path("docs/readme.md"))
	if err != nil {
		t.Fatalf("GetFileContents: %v", err)
	}
	if string(resp.Result) != "# hello" {
		t.Errorf("content = %q", resp.Result)
	}

	entry, err := bucket.GetFile(ctx, bucketkit.Path("docs/readme.md"))
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if entry.Result.ContentType != "text/markdown" {
		t.Errorf("detected content type = %q, want text/markdown", entry.Result.ContentType)
	}
	if entry.Result.Size != int64(len("# hello")) {
		t.Errorf("size = %d", entry.Result.Size)
	}
}

func TestPutOverwrite(t *testing.T) {
	_, bucket := newTestBucket(t)
	ctx := context.Background()

	mustPut(t, bucket, "a.txt", "one")

	_, err := bucket.PutFile(ctx, bucketkit.Path("a.txt"), strings.NewReader("two"))
	if !bucketkit.IsDuplicatedElement(err) {
		t.Fatalf("overwrite without flag error = %v, want DuplicatedElement", err)
	}

	mustPut(t, bucket, "a.txt", "two", bucketkit.WithOverwrite(true))
	resp, err := bucket.GetFileContents(ctx, bucketkit.Path("a.txt"))
	if err != nil {
		t.Fatalf("GetFileContents: %v", err)
	}
	if string(resp.Result) != "two" {
		t.Errorf("content after overwrite = %q", resp.Result)
	}
}

func TestOpenMissing(t *testing.T) {
	_, bucket := newTestBucket(t)

	_, err := bucket.GetFileStream(context.Background(), bucketkit.Path("absent.txt"))
	if !bucketkit.IsNotFound(err) {
		t.Errorf("open missing error = %v, want NotFound", err)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	_, bucket := newTestBucket(t)
	ctx := context.Background()

	mustPut(t, bucket, "a.txt", "x")

	resp, err := bucket.DeleteFile(ctx, bucketkit.Path("a.txt"))
	if err != nil || !resp.Result {
		t.Fatalf("first delete = %v, %v", resp, err)
	}

	// Deleting again succeeds; the file is already gone.
	resp, err = bucket.DeleteFile(ctx, bucketkit.Path("a.txt"))
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if resp.Result {
		t.Error("second delete reported a removal")
	}
}

func TestListLevelSorted(t *testing.T) {
	_, bucket := newTestBucket(t)
	ctx := context.Background()

	mustPut(t, bucket, "b.txt", "x")
	mustPut(t, bucket, "a.txt", "x")
	mustPut(t, bucket, "sub/c.txt", "x")

	resp, err := bucket.ListFiles(ctx, bucketkit.Path(""))
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	got := make([]string, len(resp.Result))
	for i, r := range resp.Result {
		got[i] = r.URI
	}
	// Non-recursive: only top-level files, sorted; sub/ itself is a
	// directory entry and excluded from file results.
	want := []string{"mem://test/a.txt", "mem://test/b.txt"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("listing = %v, want %v", got, want)
	}
}

func TestListPagination(t *testing.T) {
	_, bucket := newTestBucket(t, Config{PageSize: 2})
	ctx := context.Background()

	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt"} {
		mustPut(t, bucket, name, "x")
	}

	// The engine drains continuation tokens transparently.
	resp, err := bucket.ListFiles(ctx, bucketkit.Path(""))
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(resp.Result) != 5 {
		t.Errorf("paged listing returned %d entries, want 5", len(resp.Result))
	}
}

func TestNativeCopyAndMove(t *testing.T) {
	_, bucket := newTestBucket(t)
	ctx := context.Background()

	mustPut(t, bucket, "src/a.txt", "payload")

	if _, err := bucket.CopyFile(ctx, bucketkit.Path("src/a.txt"), bucketkit.Path("dst/a.txt")); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	for _, p := range []string{"src/a.txt", "dst/a.txt"} {
		if ok, _ := bucket.FileExists(ctx, bucketkit.Path(p)); !ok {
			t.Errorf("%s missing after copy", p)
		}
	}

	if _, err := bucket.MoveFile(ctx, bucketkit.Path("dst/a.txt"), bucketkit.Path("moved/a.txt")); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if ok, _ := bucket.FileExists(ctx, bucketkit.Path("dst/a.txt")); ok {
		t.Error("source still present after move")
	}
	resp, err := bucket.GetFileContents(ctx, bucketkit.Path("moved/a.txt"))
	if err != nil || string(resp.Result) != "payload" {
		t.Errorf("moved content = %q, %v", resp.Result, err)
	}
}

func TestNativePath(t *testing.T) {
	_, bucket := newTestBucket(t)

	got, err := bucket.NativePath(bucketkit.Path("a/b.txt"))
	if err != nil {
		t.Fatalf("NativePath: %v", err)
	}
	if got != "mem://test/a/b.txt" {
		t.Errorf("NativePath = %q", got)
	}
}

func TestBucketContainers(t *testing.T) {
	provider, _ := newTestBucket(t)
	ctx := context.Background()

	if _, err := provider.AddBucket(ctx, "other", nil); err != nil {
		t.Fatalf("AddBucket: %v", err)
	}

	unregistered, err := provider.ListUnregisteredBuckets(ctx)
	if err != nil {
		t.Fatalf("ListUnregisteredBuckets: %v", err)
	}
	if len(unregistered) != 0 {
		t.Errorf("unregistered = %v, want none", unregistered)
	}

	if err := provider.RemoveBucket(ctx, "other"); err != nil {
		t.Fatalf("RemoveBucket: %v", err)
	}
	unregistered, err = provider.ListUnregisteredBuckets(ctx)
	if err != nil {
		t.Fatalf("ListUnregisteredBuckets: %v", err)
	}
	if len(unregistered) != 1 || unregistered[0] != "other" {
		t.Errorf("unregistered after remove = %v, want [other]", unregistered)
	}
}

func TestDestroyBucket(t *testing.T) {
	provider, bucket := newTestBucket(t)
	ctx := context.Background()

	mustPut(t, bucket, "a.txt", "x")

	if err := provider.DestroyBucket(ctx, "test"); err != nil {
		t.Fatalf("DestroyBucket: %v", err)
	}
	if _, ok := provider.GetBucket("test"); ok {
		t.Error("bucket still registered after destroy")
	}

	containers, err := New().ListBucketContainers(ctx)
	if err != nil || len(containers) != 0 {
		t.Errorf("fresh backend containers = %v, %v", containers, err)
	}
}

func TestRemoveDirRejectsNonEmpty(t *testing.T) {
	_, bucket := newTestBucket(t)
	ctx := context.Background()

	mustPut(t, bucket, "dir/a.txt", "x")

	backend := bucket.Provider().Backend().(*Backend)
	err := backend.RemoveDir(ctx, bucket, "dir")
	if !bucketkit.IsInvalidParams(err) {
		t.Errorf("RemoveDir on non-empty dir = %v, want InvalidParams", err)
	}
}
