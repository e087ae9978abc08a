/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Tue Mar 12 10:02:44 2019 mstenber
 * Last modified: Thu Mar 14 17:05:13 2019 mstenber
 * Edit time:     58 min
 *
 */

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fingon/go-blockfs/fs"
	"github.com/fingon/go-blockfs/mlog"
)

var errExit = errors.New("exit")

// usageError is shown as-is, followed by the usage line.
type usageError struct {
	cmd, usage string
}

func (self *usageError) Error() string {
	return fmt.Sprintf("%s: invalid arguments\nUsage: %s", self.cmd, self.usage)
}

type command struct {
	usage, help string
	run         func(f *fs.Fs, w io.Writer, args []string) error
}

var commands map[string]*command

var aliases = map[string]string{
	"l":          "ls",
	"bm":         "bitmap",
	"createFile": "touch",
	"createDir":  "mkdir",
}

func init() {
	commands = map[string]*command{
		"ls":     {"ls [path]", "List directory", runList},
		"cd":     {"cd [path]", "Change working directory", runChangeDir},
		"cat":    {"cat [filename]", "Show file content", runCat},
		"touch":  {"touch [filename] [filesize_kb]", "Create a file", runTouch},
		"mkdir":  {"mkdir [-p] [dirname1] [dirname2] ...", "Create a directory", runMkdir},
		"rm":     {"rm [-r] [filename1] [filename2] ...", "Remove a file or directory", runRemove},
		"cp":     {"cp [-r] [src] [dst]", "Copy a file or directory", runCopy},
		"ln":     {"ln [src] [dst]", "Create a hard link", runLink},
		"stat":   {"stat [filename]", "Show file inode info", runStat},
		"sum":    {"sum", "Show filesystem summary", runSum},
		"bitmap": {"bitmap", "Show allocated blocks and inodes", runBitmap},
		"check":  {"check", "Check filesystem consistency", runCheck},
		"erase":  {"erase", "Erase filesystem", runErase},
		"cmd":    {"cmd", "Show available commands", runHelp},
		"exit":   {"exit", "Exit", func(*fs.Fs, io.Writer, []string) error { return errExit }},
	}
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for k := range commands {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func lookupCommand(name string) (*command, bool) {
	if a, ok := aliases[name]; ok {
		name = a
	}
	c, ok := commands[name]
	return c, ok
}

// splitFlags removes leading dash arguments and reports which of the
// given option letters were present.
func splitFlags(args []string, letters string) (rest []string, set map[byte]bool) {
	set = make(map[byte]bool)
	for _, arg := range args {
		if len(arg) > 1 && arg[0] == '-' {
			for i := 1; i < len(arg); i++ {
				if strings.IndexByte(letters, arg[i]) >= 0 {
					set[arg[i]] = true
				}
			}
			continue
		}
		rest = append(rest, arg)
	}
	return
}

// Dispatch runs one command line. Engine errors are returned as-is so
// that the caller can print them.
func Dispatch(f *fs.Fs, w io.Writer, args []string) error {
	if len(args) == 0 {
		return nil
	}
	c, ok := lookupCommand(args[0])
	if !ok {
		return fmt.Errorf("command not found: %s\nType 'cmd' to see all available commands", args[0])
	}
	mlog.Printf2("cmd/blockfs/commands", "Dispatch %v", args)
	err := c.run(f, w, args[1:])
	if _, ok := err.(*usageError); ok {
		return &usageError{cmd: args[0], usage: c.usage}
	}
	return err
}

// Shell reads command lines from r until EOF or exit. Failing commands
// print their diagnostic and the loop continues.
func Shell(f *fs.Fs, r io.Reader, w io.Writer, prompt bool) error {
	scanner := bufio.NewScanner(r)
	for {
		if prompt {
			fmt.Fprintf(w, "%s$ ", f.Cwd())
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		err := Dispatch(f, w, strings.Fields(scanner.Text()))
		if err == errExit {
			return nil
		}
		if err != nil {
			fmt.Fprintln(w, err)
		}
	}
}

var errUsage = &usageError{}

func runList(f *fs.Fs, w io.Writer, args []string) error {
	if len(args) > 1 {
		return errUsage
	}
	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	entries, err := f.List(path)
	if err != nil {
		return err
	}
	fs.FormatList(w, entries)
	return nil
}

func runChangeDir(f *fs.Fs, w io.Writer, args []string) error {
	switch len(args) {
	case 0:
		return nil
	case 1:
		return f.ChangeDir(args[0])
	}
	return errors.New("cd: too many arguments")
}

func runCat(f *fs.Fs, w io.Writer, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	b, err := f.ReadFile(args[0])
	if err != nil {
		return err
	}
	w.Write(b)
	fmt.Fprintln(w)
	return nil
}

func runTouch(f *fs.Fs, w io.Writer, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	size, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return fmt.Errorf("touch: invalid filesize %q", args[1])
	}
	return f.CreateFile(args[0], uint32(size))
}

// eachPath runs op on every path, continuing past failures; the first
// error is returned.
func eachPath(w io.Writer, paths []string, op func(string) error) (first error) {
	for i, p := range paths {
		err := op(p)
		if err == nil {
			continue
		}
		if first == nil {
			first = err
		}
		if i < len(paths)-1 {
			fmt.Fprintln(w, err)
		}
	}
	return
}

func runMkdir(f *fs.Fs, w io.Writer, args []string) error {
	paths, set := splitFlags(args, "p")
	if len(paths) == 0 {
		return errUsage
	}
	return eachPath(w, paths, func(p string) error {
		return f.CreateDir(p, set['p'])
	})
}

func runRemove(f *fs.Fs, w io.Writer, args []string) error {
	paths, set := splitFlags(args, "rR")
	if len(paths) == 0 {
		return errUsage
	}
	return eachPath(w, paths, func(p string) error {
		return f.Remove(p, set['r'] || set['R'])
	})
}

func runCopy(f *fs.Fs, w io.Writer, args []string) error {
	paths, set := splitFlags(args, "rR")
	if len(paths) != 2 {
		return errUsage
	}
	return f.Copy(paths[0], paths[1], set['r'] || set['R'])
}

func runLink(f *fs.Fs, w io.Writer, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	return f.HardLink(args[0], args[1])
}

func runStat(f *fs.Fs, w io.Writer, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	inode, path, err := f.Stat(args[0])
	if err != nil {
		return err
	}
	fs.FormatStat(w, path, &inode)
	return nil
}

func runSum(f *fs.Fs, w io.Writer, args []string) error {
	u := f.UsageSummary()
	fs.FormatUsage(w, &u)
	return nil
}

func runBitmap(f *fs.Fs, w io.Writer, args []string) error {
	fmt.Fprintf(w, "Blocks: %v\n", f.AllocatedBlocks())
	fmt.Fprintf(w, "Inodes: %v\n", f.AllocatedInodes())
	return nil
}

func runCheck(f *fs.Fs, w io.Writer, args []string) error {
	if err := f.Check(); err != nil {
		return err
	}
	fmt.Fprintln(w, "OK")
	return nil
}

func runErase(f *fs.Fs, w io.Writer, args []string) error {
	f.Erase()
	fmt.Fprintln(w, "[Erase] Filesystem erased")
	return nil
}

func runHelp(f *fs.Fs, w io.Writer, args []string) error {
	fmt.Fprintln(w, "Available commands:")
	for _, name := range commandNames() {
		c := commands[name]
		fmt.Fprintf(w, "\t%s\n\t\t%s\n", c.usage, c.help)
	}
	return nil
}
