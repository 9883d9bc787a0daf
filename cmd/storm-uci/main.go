package main

import (
	"flag"
	"log"
	"os"
	"runtime/pprof"

	"github.com/stormchess/storm/internal/engine"
	"github.com/stormchess/storm/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	bookPath   = flag.String("book", "", "opening book file (Storm native .sbk format)")
	hashMB     = flag.Int("hash", 64, "transposition table size in MB")
)

func main() {
	flag.Parse()

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	// Create engine with the requested hash table size.
	// Multi-threaded search enabled (Lazy SMP).
	eng := engine.NewEngine(*hashMB)

	if *bookPath != "" {
		if err := eng.LoadBook(*bookPath); err != nil {
			log.Printf("Warning: failed to load opening book %s: %v", *bookPath, err)
		} else {
			log.Printf("Opening book loaded from %s", *bookPath)
		}
	}

	// Create and run UCI protocol handler
	protocol := uci.New(eng)
	protocol.Run()
}
