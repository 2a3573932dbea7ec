/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Fri Oct 16 10:02:31 2026 mstenber
 * Last modified: Mon Oct 19 14:31:48 2026 mstenber
 * Edit time:     37 min
 *
 */

// nufsctl manipulates a filesystem image without mounting it.
package main

import (
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/fingon/go-nufs/fs"
	"github.com/fingon/go-nufs/storage"
	"github.com/fingon/go-nufs/storage/factory"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type command struct {
	args  int
	usage string
	run   func(u *fs.FSUser, f *fs.Fs, out io.Writer, args []string) error
}

var commands = map[string]command{
	"info": {0, "", info},
	"ls":   {1, "PATH", ls},
	"cat":  {1, "PATH", cat},
	"put":  {2, "LOCALFILE PATH", put},
	"mkdir": {1, "PATH", func(u *fs.FSUser, f *fs.Fs, out io.Writer, args []string) error {
		return u.MkdirAll(args[0], 0755)
	}},
	"rm": {1, "PATH", func(u *fs.FSUser, f *fs.Fs, out io.Writer, args []string) error {
		return u.Remove(args[0])
	}},
	"mv": {2, "FROM TO", func(u *fs.FSUser, f *fs.Fs, out io.Writer, args []string) error {
		return u.Rename(args[0], args[1])
	}},
	"ln": {2, "FROM TO", func(u *fs.FSUser, f *fs.Fs, out io.Writer, args []string) error {
		return u.Link(args[0], args[1])
	}},
	"stat": {1, "PATH", stat},
}

func info(u *fs.FSUser, f *fs.Fs, out io.Writer, args []string) error {
	st := f.Store()
	sfs := f.StatFs()
	fmt.Fprintf(out, "uuid:     %v\n", st.UUID())
	fmt.Fprintf(out, "geometry: %v\n", st.Geometry())
	fmt.Fprintf(out, "pages:    %d/%d free\n", sfs.Bfree, sfs.Blocks)
	fmt.Fprintf(out, "inodes:   %d/%d free\n", sfs.Ffree, sfs.Files)
	fmt.Fprintf(out, "backend:  %d bytes used, %d available\n",
		sfs.BackendBytesUsed, sfs.BackendBytesAvail)
	return nil
}

func ls(u *fs.FSUser, f *fs.Fs, out io.Writer, args []string) error {
	fis, err := u.ReadDir(args[0])
	if err != nil {
		return err
	}
	for _, fi := range fis {
		attr := fi.Sys().(fs.Attr)
		fmt.Fprintf(out, "%v %3d %10d %s %s\n", fi.Mode(), attr.Nlink, fi.Size(),
			fi.ModTime().Format("2006-01-02 15:04"), fi.Name())
	}
	return nil
}

func cat(u *fs.FSUser, f *fs.Fs, out io.Writer, args []string) error {
	data, err := u.ReadFile(args[0])
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

func put(u *fs.FSUser, f *fs.Fs, out io.Writer, args []string) error {
	data, err := ioutil.ReadFile(args[0])
	if err != nil {
		return err
	}
	return u.WriteFile(args[1], data, 0644)
}

func stat(u *fs.FSUser, f *fs.Fs, out io.Writer, args []string) error {
	fi, err := u.Lstat(args[0])
	if err != nil {
		return err
	}
	attr := fi.Sys().(fs.Attr)
	fmt.Fprintf(out, "inode:  %d\n", attr.Ino)
	fmt.Fprintf(out, "mode:   %v (%o)\n", fi.Mode(), attr.Mode)
	fmt.Fprintf(out, "size:   %d\n", attr.Size)
	fmt.Fprintf(out, "blocks: %d\n", attr.Blocks)
	fmt.Fprintf(out, "links:  %d\n", attr.Nlink)
	fmt.Fprintf(out, "atime:  %v\n", attr.Atime)
	fmt.Fprintf(out, "mtime:  %v\n", attr.Mtime)
	fmt.Fprintf(out, "ctime:  %v\n", attr.Ctime)
	if fi.Mode()&os.ModeSymlink != 0 {
		target, err := u.Readlink(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "target: %s\n", target)
	}
	return nil
}

// run executes command name against an open filesystem.
func run(f *fs.Fs, out io.Writer, name string, args []string) error {
	cmd, ok := commands[name]
	if !ok {
		return errors.Errorf("unknown command %q", name)
	}
	if len(args) != cmd.args {
		return errors.Errorf("usage: %s %s", name, cmd.usage)
	}
	return cmd.run(fs.NewFSUser(f), f, out, args)
}

func usage() {
	names := []string{}
	for name, cmd := range commands {
		names = append(names, strings.TrimSpace(name+" "+cmd.usage))
	}
	fmt.Fprintf(os.Stderr, "Usage:\n\n%s [flags] STORAGEDIR COMMAND [ARGS]\n\nCommands: %s\n\n",
		os.Args[0], strings.Join(names, ", "))
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	password := flag.String("password", "", "Password")
	salt := flag.String("salt", factory.DefaultSalt, "Salt")
	backendp := flag.String("backend", factory.DefaultBackend,
		fmt.Sprintf("Backend to use (possible: %v)", factory.List()))
	compression := flag.String("compression", "none", "Page compression (none, snappy, lz4, zstd)")
	verify := flag.Bool("verify", false, "Authenticate pages when not encrypting")
	flag.Parse()
	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(1)
	}

	conf := factory.StorageConfiguration{
		BackendConfiguration: storage.BackendConfiguration{Directory: flag.Arg(0)},
		BackendName:          *backendp,
		Password:             *password,
		Salt:                 *salt,
		Compression:          *compression,
		Verify:               *verify,
	}
	st, err := factory.NewStore(conf)
	if err != nil {
		log.WithError(err).Fatal("unable to open storage")
	}
	f, err := fs.NewFs(st, fs.Configuration{FlushInterval: -1})
	if err != nil {
		st.Close()
		log.WithError(err).Fatal("unable to initialize filesystem")
	}
	err = run(f, os.Stdout, flag.Arg(1), flag.Args()[2:])
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		log.WithError(err).Fatal(flag.Arg(1))
	}
}
