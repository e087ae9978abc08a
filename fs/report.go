/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Fri Mar  8 17:02:45 2019 mstenber
 * Last modified: Tue Mar 12 16:31:09 2019 mstenber
 * Edit time:     21 min
 *
 */

package fs

import (
	"fmt"
	"io"
	"time"

	"github.com/fingon/go-blockfs/util"
)

const timeFormat = "2006-01-02 15:04:05"

func formatTime(t int64) string {
	return time.Unix(t, 0).Format(timeFormat)
}

func formatId(id BlockId) string {
	if id == NoId {
		return "-"
	}
	return fmt.Sprint(uint16(id))
}

// FormatList writes one line per entry: id, type, link count, size,
// creation and modification time, and name.
func FormatList(w io.Writer, entries []Entry) {
	for _, e := range entries {
		in := &e.Inode
		fmt.Fprintf(w, "%4d  %4s %2d  %4s  %s %s  %s\n",
			in.Id, in.Type, in.LinkCount, util.ReadableSize(int64(in.Size)),
			formatTime(in.CreatedAt), formatTime(in.ModifiedAt), e.Name)
	}
}

func FormatStat(w io.Writer, path string, in *Inode) {
	fmt.Fprintf(w, "File: %s\n", path)
	fmt.Fprintf(w, "------------------- INode Info -------------------\n")
	fmt.Fprintf(w, "INode ID:\t\t%d\n", in.Id)
	fmt.Fprintf(w, "File Type:\t\t%s\n", in.Type)
	fmt.Fprintf(w, "File Size:\t\t%s\n", util.ReadableSize(int64(in.Size)))
	fmt.Fprintf(w, "Create Time:\t\t%s\n", formatTime(in.CreatedAt))
	fmt.Fprintf(w, "Modify Time:\t\t%s\n", formatTime(in.ModifiedAt))
	fmt.Fprintf(w, "Link Count:\t\t%d\n", in.LinkCount)
	fmt.Fprintf(w, "Direct Addr:\t\t")
	for _, id := range in.Direct {
		fmt.Fprintf(w, "%s ", formatId(id))
	}
	fmt.Fprintf(w, "\nIndirect Addr:\t\t%s \n", formatId(in.Indirect))
	fmt.Fprintf(w, "Double Indirect Addr:\t%s \n", formatId(in.DoubleIndirect))
	fmt.Fprintf(w, "--------------------------------------------------\n")
}

func FormatUsage(w io.Writer, u *Usage) {
	fmt.Fprintf(w, "------------ SuperBlock Info -------------\n")
	fmt.Fprintf(w, "Filesystem Size:\t%s\n", util.ReadableSize(u.ImageSize))
	fmt.Fprintf(w, "Block Size:\t\t%d Byte\n", u.BlockSize)
	fmt.Fprintf(w, "Block Num:\t\t%d\n", u.ImageBlocks)
	fmt.Fprintf(w, "Data Block Num:\t\t%d\n", u.DataBlocks)
	fmt.Fprintf(w, "INode Size:\t\t%d Byte\n", u.InodeSize)
	fmt.Fprintf(w, "INode Num:\t\t%d\n", u.TotalInodes)
	fmt.Fprintf(w, "------------------------------------------\n")
	fmt.Fprintf(w, "Used Space:\t\t%s\n", util.ReadableSize(u.UsedSpace()))
	fmt.Fprintf(w, "Available Space:\t%s\n", util.ReadableSize(u.AvailableSpace()))
	fmt.Fprintf(w, "Used Block Num:\t\t%d\n", u.UsedBlocks)
	fmt.Fprintf(w, "Available Block Num:\t%d\n", u.AvailableBlocks)
	fmt.Fprintf(w, "Used INode Num:\t\t%d\n", u.UsedInodes)
	fmt.Fprintf(w, "Available INode Num:\t%d\n", u.AvailableInodes)
	fmt.Fprintf(w, "------------------------------------------\n")
}
