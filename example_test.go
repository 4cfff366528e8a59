package bucketkit_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/gobeaver/bucketkit"
	"github.com/gobeaver/bucketkit/driver/memory"
)

func ExampleSession() {
	ctx := context.Background()

	session := bucketkit.NewSession(nil)
	provider, _ := session.AddProviderFromURI(ctx, "memory://store")
	bucket, _ := provider.AddBucket(ctx, "assets", nil)

	// Paths are normalized on every call: spaces become dashes, case is
	// folded.
	resp, _ := bucket.PutFile(ctx, bucketkit.Path("My Images/Logo Final.PNG"), strings.NewReader("png bytes"))
	fmt.Println(resp.Result.URI)

	// The same file is addressable by its canonical URI.
	data, _ := session.GetFile(ctx, "store://assets/my-images/logo-final.png")
	fmt.Println(data.Result.Size)
	// Output:
	// store://assets/my-images/logo-final.png
	// 9
}

func ExampleBucket_copyFiles() {
	ctx := context.Background()

	provider, _ := bucketkit.NewProvider(bucketkit.ProviderConfig{
		Name: "mem",
		Type: "memory",
	}, memory.New())
	_ = provider.Init(ctx)
	bucket, _ := provider.AddBucket(ctx, "data", nil)

	for _, p := range []string{"src/a.txt", "src/sub/b.txt", "src/sub/c.png"} {
		_, _ = bucket.PutFile(ctx, bucketkit.Path(p), strings.NewReader("x"))
	}

	// Copy only text files, preserving relative sub-paths.
	results, _ := bucket.CopyFiles(ctx, bucketkit.Path("src"), bucketkit.Path("backup"), "**/*.txt")
	for _, r := range results.Result {
		fmt.Println(r.URI)
	}
	// Output:
	// mem://data/backup/sub/b.txt
}

func ExampleBucket_copyFiles_matchAll() {
	ctx := context.Background()

	provider, _ := bucketkit.NewProvider(bucketkit.ProviderConfig{
		Name: "mem",
		Type: "memory",
	}, memory.New())
	_ = provider.Init(ctx)
	bucket, _ := provider.AddBucket(ctx, "data", nil)

	_, _ = bucket.PutFile(ctx, bucketkit.Path("src/a.txt"), strings.NewReader("x"))
	_, _ = bucket.PutFile(ctx, bucketkit.Path("src/sub/b.txt"), strings.NewReader("x"))

	results, _ := bucket.CopyFiles(ctx, bucketkit.Path("src"), bucketkit.Path("backup"), "**")
	for _, r := range results.Result {
		fmt.Println(r.URI)
	}
	// Output:
	// mem://data/backup/a.txt
	// mem://data/backup/sub/b.txt
}
