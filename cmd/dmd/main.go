package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	get "github.com/hashicorp/go-getter"

	"github.com/OCharnyshevich/voxel-server/internal/server/world/block"
)

// dmd downloads a block registry file and checks that it parses before
// putting it in place.
func main() {
	var (
		src = flag.String("src", "", "registry source, any go-getter url (https, git::, s3::, gcs::, local path)")
		out = flag.String("o", "./data/blocks.yaml", "output file path")
	)
	flag.Parse()

	if *src == "" {
		panic("registry source required")
	}

	if *out == "" {
		panic("output file path required")
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		panic(err)
	}

	tmp := *out + ".download"
	if err := os.RemoveAll(tmp); err != nil {
		panic(err)
	}

	log.Default().Printf("start downloading registry %s", *src)

	if err := get.GetFile(tmp, *src); err != nil {
		panic(err)
	}

	reg, err := block.Load(tmp)
	if err != nil {
		os.Remove(tmp)
		panic(err)
	}

	if err := os.Rename(tmp, *out); err != nil {
		panic(err)
	}

	log.Default().Printf("done downloading registry %s (%d blocks)", *out, len(reg.All()))
}
