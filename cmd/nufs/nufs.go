/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2026 Markus Stenberg
 *
 * Created:       Thu Oct 15 13:18:26 2026 mstenber
 * Last modified: Mon Oct 19 14:10:57 2026 mstenber
 * Edit time:     41 min
 *
 */

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	"github.com/fingon/go-nufs/fs"
	"github.com/fingon/go-nufs/fusefs"
	"github.com/fingon/go-nufs/mlog"
	"github.com/fingon/go-nufs/storage"
	"github.com/fingon/go-nufs/storage/factory"
	"github.com/hanwen/go-fuse/fuse/nodefs"
	"github.com/hanwen/go-fuse/fuse/pathfs"
	log "github.com/sirupsen/logrus"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n\n%s MOUNTDIR STORAGEDIR\n", os.Args[0])
		flag.PrintDefaults()
	}
	password := flag.String("password", "", "Password (pages are encrypted if set)")
	salt := flag.String("salt", factory.DefaultSalt, "Salt")
	iterations := flag.Int("iterations", factory.DefaultIterations, "Key derivation iterations")
	backendp := flag.String("backend", factory.DefaultBackend,
		fmt.Sprintf("Backend to use (possible: %v)", factory.List()))
	compression := flag.String("compression", "none", "Page compression (none, snappy, lz4, zstd)")
	verify := flag.Bool("verify", false, "Authenticate pages when not encrypting")
	pages := flag.Uint64("pages", storage.DefaultPageCount, "Number of pages when formatting")
	inodes := flag.Uint64("inodes", storage.DefaultInodeCount, "Number of inodes when formatting")
	flush := flag.Duration("flush", fs.DefaultFlushInterval, "Background flush interval (negative disables)")
	cpuprofile := flag.String("cpuprofile", "", "CPU profile file")
	memprofile := flag.String("memprofile", "", "Memory profile file")
	flag.Parse()

	mountpoint := flag.Arg(0)
	storedir := flag.Arg(1)
	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(1)
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	conf := factory.StorageConfiguration{
		BackendConfiguration: storage.BackendConfiguration{Directory: storedir},
		BackendName:          *backendp,
		Password:             *password,
		Salt:                 *salt,
		Iterations:           *iterations,
		Compression:          *compression,
		Verify:               *verify,
		Geometry:             storage.Geometry{PageCount: *pages, InodeCount: *inodes},
	}
	st, err := factory.NewStore(conf)
	if err != nil {
		log.WithError(err).Fatal("unable to open storage")
	}
	myfs, err := fs.NewFs(st, fs.Configuration{FlushInterval: *flush})
	if err != nil {
		st.Close()
		log.WithError(err).Fatal("unable to initialize filesystem")
	}
	log.WithFields(log.Fields{
		"backend":  *backendp,
		"storage":  storedir,
		"geometry": st.Geometry(),
		"uuid":     st.UUID(),
	}).Info("filesystem ready")

	pnfs := pathfs.NewPathNodeFs(fusefs.New(myfs), nil)
	opts := nodefs.NewOptions()
	opts.Debug = mlog.IsEnabled()
	server, _, err := nodefs.MountRoot(mountpoint, pnfs.Root(), opts)
	if err != nil {
		myfs.Close()
		log.WithError(err).Fatal("mount failed")
	}
	log.WithField("mountpoint", mountpoint).Info("mounted")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.WithField("signal", sig).Info("unmounting")
		if err := server.Unmount(); err != nil {
			log.WithError(err).Error("unmount failed")
		}
	}()

	// loop is here
	server.Serve()

	// myfs will take care of backend clearing as well
	if err := myfs.Close(); err != nil {
		log.WithError(err).Error("close failed")
	}

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.WriteHeapProfile(f)
		f.Close()
	}
}
