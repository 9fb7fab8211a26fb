// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command stackwalk prints the mapped images and a frame-pointer
// backtrace of one thread of a running process.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/aclements/profkit/procwalk"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("stackwalk: ")

	var (
		flagPid = flag.Int("pid", 0, "process ID to inspect")
		flagTid = flag.Int("tid", 0, "thread ID to walk (defaults to -pid)")
	)
	flag.Parse()
	if *flagPid == 0 {
		flag.Usage()
		os.Exit(2)
	}
	tid := *flagTid
	if tid == 0 {
		tid = *flagPid
	}

	images, err := procwalk.ListImages(*flagPid)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%d mapped images:\n", len(images))
	for _, img := range images {
		fmt.Printf("  %#016x +%#x %s %s\n", img.Address, img.Size, img.BuildID, img.File)
	}

	mem := procwalk.NewForeignMemory(*flagPid)
	frames, err := procwalk.Backtrace(*flagPid, tid, mem)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("\nbacktrace (%d frames, caller-first):\n", len(frames))
	for _, pc := range frames {
		fmt.Printf("  %#016x\n", pc)
	}
}
