package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/klauspost/compress/zstd"
	"github.com/urfave/cli/v2"

	"github.com/OCharnyshevich/voxel-server/internal/server/world/chunk"
	"github.com/OCharnyshevich/voxel-server/internal/server/world/nw1"
)

// openExisting opens the store named by the first argument. nw1.Open would
// create a missing file, which an inspection tool must not do.
func openExisting(c *cli.Context) (*nw1.Store, error) {
	path := c.Args().First()
	if path == "" {
		return nil, errors.New("missing store path")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return nw1.Open(path, nw1.Options{PageSize: c.Int("page-size")})
}

func infoCmd(c *cli.Context) error {
	s, err := openExisting(c)
	if err != nil {
		return err
	}
	defer s.Close()

	w := c.App.Writer
	fmt.Fprintf(w, "path:      %s\n", s.Path())
	fmt.Fprintf(w, "page size: %d\n", s.PageSize())
	fmt.Fprintf(w, "pages:     %d\n", s.Pages())
	fmt.Fprintf(w, "chunks:    %d\n", len(s.Chunks()))
	return nil
}

func lsCmd(c *cli.Context) error {
	s, err := openExisting(c)
	if err != nil {
		return err
	}
	defer s.Close()

	entries := s.Chunks()
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Pos.X != entries[j].Pos.X {
			return entries[i].Pos.X < entries[j].Pos.X
		}
		return entries[i].Pos.Z < entries[j].Pos.Z
	})

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CX\tCZ\tFIRST PAGE\tENTRY OFFSET")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\n", e.Pos.X, e.Pos.Z, e.FirstPage, e.Offset)
	}
	return tw.Flush()
}

func showCmd(c *cli.Context) error {
	if c.NArg() != 3 {
		return fmt.Errorf("usage: show %s", c.Command.ArgsUsage)
	}
	cx, err := strconv.ParseInt(c.Args().Get(1), 10, 32)
	if err != nil {
		return fmt.Errorf("parse cx: %w", err)
	}
	cz, err := strconv.ParseInt(c.Args().Get(2), 10, 32)
	if err != nil {
		return fmt.Errorf("parse cz: %w", err)
	}

	s, err := openExisting(c)
	if err != nil {
		return err
	}
	defer s.Close()

	ch, err := s.LoadChunk(chunk.Pos{X: int32(cx), Z: int32(cz)})
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "chunk %s bitmap %016b\n", ch.Pos(), ch.Bitmap())
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SECTION\tNON-AIR\tPALETTE\tBITS")
	for i := 0; i < chunk.SectionCount; i++ {
		sec := ch.Section(i)
		if sec == nil {
			continue
		}
		p := chunk.NewPalette(&sec.IDs)
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\n", i, ch.CountNonAir(i), p.Len(), chunk.BitsPerBlock(p.Len()))
	}
	return tw.Flush()
}

func checkCmd(c *cli.Context) error {
	s, err := openExisting(c)
	if err != nil {
		return err
	}
	defer s.Close()

	r, err := s.Check()
	if err != nil {
		return err
	}
	w := c.App.Writer
	fmt.Fprintf(w, "pages %d: header 1, directory %d, live %d, slack %d, dead %d\n",
		r.Pages, r.Directory, r.Live, r.Slack, r.Dead)
	fmt.Fprintf(w, "chunks %d, corrupt %d\n", r.Chunks, len(r.Corrupt))
	for pos, cerr := range r.Corrupt {
		fmt.Fprintf(w, "  %s: %v\n", pos, cerr)
	}
	if len(r.Corrupt) > 0 {
		return fmt.Errorf("%d corrupt chunks", len(r.Corrupt))
	}
	return nil
}

func backupCmd(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: backup %s", c.Command.ArgsUsage)
	}
	// refuse to back up something that is not a readable store
	s, err := openExisting(c)
	if err != nil {
		return err
	}
	if err := s.Close(); err != nil {
		return err
	}

	src, err := os.Open(c.Args().Get(0))
	if err != nil {
		return err
	}
	defer src.Close()

	out := c.Args().Get(1)
	dst, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		dst.Close()
		return err
	}
	n, err := io.Copy(enc, src)
	if err == nil {
		err = enc.Close()
	} else {
		enc.Close()
	}
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(out)
		return fmt.Errorf("write backup: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "backed up %d bytes to %s\n", n, out)
	return nil
}

func restoreCmd(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: restore %s", c.Command.ArgsUsage)
	}
	in, target := c.Args().Get(0), c.Args().Get(1)

	src, err := os.Open(in)
	if err != nil {
		return err
	}
	defer src.Close()
	dec, err := zstd.NewReader(src)
	if err != nil {
		return err
	}
	defer dec.Close()

	tmp := target + ".tmp"
	dst, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	n, err := io.Copy(dst, dec)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("decompress backup: %w", err)
	}

	// the restored file must open as a store before it replaces anything
	s, err := nw1.Open(tmp, nw1.Options{PageSize: c.Int("page-size")})
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("verify backup: %w", err)
	}
	chunks := len(s.Chunks())
	s.Close()

	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "restored %d bytes, %d chunks to %s\n", n, chunks, target)
	return nil
}
