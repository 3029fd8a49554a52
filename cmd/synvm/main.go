// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/tliron/commonlog"
	"github.com/tliron/commonlog/simple"

	"github.com/ezrec/synvm/config"
	"github.com/ezrec/synvm/emulator"
	"github.com/ezrec/synvm/translate"
	"github.com/ezrec/synvm/vm"
)

func main() {
	var configFile string
	var program string
	var compile string
	var save string
	var memsize int
	var disassemble string
	var breakpoints string
	var delay time.Duration
	var dump string
	var snapshot string
	var lang string
	var batch bool
	var verbose bool

	flag.StringVar(&configFile, "config", "", "synvm.toml configuration file")
	flag.StringVar(&program, "program", "", "Program image to load")
	flag.StringVar(&compile, "c", "", "Assembly source to compile and load")
	flag.StringVar(&save, "o", "", "Save the compiled image, do not execute")
	flag.IntVar(&memsize, "memsize", vm.MEMORY_SIZE, "Memory size, in words")
	flag.StringVar(&disassemble, "disassemble", "", "Write the program listing, do not execute")
	flag.StringVar(&breakpoints, "bp", "", "Comma separated breakpoint addresses")
	flag.DurationVar(&delay, "delay", 0, "Delay between instructions")
	flag.StringVar(&dump, "dump", "", "Disassembly written on fault")
	flag.StringVar(&snapshot, "snapshot", "", "CBOR snapshot written on fault")
	flag.StringVar(&lang, "locale", "", "Message language")
	flag.BoolVar(&batch, "batch", false, "Run to completion, stdin is program input")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	cfg := config.Default()
	if len(configFile) != 0 {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			log.Fatalf("%v: %v", configFile, err)
		}
	}

	// Explicit flags override the configuration file.
	var bad_bp error
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "program":
			cfg.Program = program
		case "memsize":
			cfg.MemorySize = memsize
		case "bp":
			cfg.Breakpoints = nil
			for _, text := range strings.Split(breakpoints, ",") {
				bp, err := strconv.ParseUint(strings.TrimSpace(text), 0, 16)
				if err != nil {
					bad_bp = errors.Join(bad_bp, err)
					continue
				}
				cfg.Breakpoints = append(cfg.Breakpoints, int(bp))
			}
		case "delay":
			cfg.StepDelay = delay
		case "dump":
			cfg.Dump = dump
		case "snapshot":
			cfg.Snapshot = snapshot
		case "locale":
			cfg.Locale = lang
		case "v":
			cfg.Verbose = verbose
		}
	})
	if bad_bp != nil {
		log.Fatalf("-bp: %v", bad_bp)
	}

	err := cfg.Validate()
	if err != nil {
		log.Fatal(err)
	}

	if len(cfg.Locale) != 0 {
		err = translate.Use(cfg.Locale)
		if err != nil {
			log.Fatalf("%v: %v", cfg.Locale, err)
		}
	}

	backend := simple.NewBackend()
	backend.Buffered = false
	commonlog.SetBackend(backend)
	verbosity := 0
	if cfg.Verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	var emu *emulator.Emulator
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		emu, err = emulator.NewFromSource(inf, cfg)
		inf.Close()
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}

		if len(save) != 0 {
			err = os.WriteFile(save, emu.Program.Bytes(), 0o644)
			if err != nil {
				log.Fatalf("%v: %v", save, err)
			}
			return
		}
	} else {
		if len(cfg.Program) == 0 {
			log.Fatalf("%v: no program, use -program or -c", os.Args[0])
		}
		image, err := os.ReadFile(cfg.Program)
		if err != nil {
			log.Fatalf("%v: %v", cfg.Program, err)
		}
		emu = emulator.New(image, cfg)
	}

	if len(disassemble) != 0 {
		err = emu.Disassemble(disassemble)
		if err != nil {
			log.Fatalf("%v: %v", disassemble, err)
		}
		return
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	ctx := context.Background()

	err = emu.Start(ctx)
	if err != nil {
		log.Fatal(err)
	}

	con := &Console{
		Emulator: emu,
		Output:   os.Stderr,
	}

	if batch {
		go func() {
			_, _ = io.Copy(InputWriter{Emulator: emu}, os.Stdin)
		}()
	} else {
		err = con.Session(ctx, os.Stdin, interrupt)
		if err != nil {
			log.Print(err)
		}
	}

	go func() {
		for range interrupt {
			emu.Stop()
		}
	}()

	err = emu.Wait()
	if err != nil && !errors.Is(err, vm.ErrStopped) {
		log.Fatal(err)
	}
}
