package main

import (
	"fmt"
	"os"
	"strconv"

	cli "github.com/urfave/cli/v2"

	"github.com/sidreloc/sidreloc/internal/config"
	"github.com/sidreloc/sidreloc/internal/cpu6502"
	"github.com/sidreloc/sidreloc/internal/disasm"
	"github.com/sidreloc/sidreloc/internal/kickasm"
	"github.com/sidreloc/sidreloc/internal/logging"
	"github.com/sidreloc/sidreloc/internal/plan"
	"github.com/sidreloc/sidreloc/internal/psid"
	"github.com/sidreloc/sidreloc/internal/relocate"
)

func relocateOne(src, dst string, newBase int64, sidOffset int64) error {
	raw, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	job, err := psid.Parse(raw)
	if err != nil {
		return err
	}

	p := relocate.Plan{
		OriginalBase: job.Base,
		NewBase:      uint16(newBase),
		SIDOffset:    uint8(sidOffset),
		DataEnd:      job.DataEnd,
		EntryPoints:  job.EntryPoints,
	}
	res, err := relocate.Relocate(job.Bytes, p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, res.Bytes, 0o644); err != nil {
		return err
	}
	logging.Infof("relocated %s -> %s: base %#04x -> %#04x, %d reloc, %d sid patches, %d data hi-bytes",
		src, dst, job.Base, p.NewBase, res.Stats.RelocCount, res.Stats.SIDPatchCount, res.Stats.DataHiBPatches)
	for _, line := range res.Log {
		logging.Debugf("%s", line)
	}
	return nil
}

func runPlan(planPath string, workers int) error {
	p, err := plan.Load(planPath)
	if err != nil {
		return err
	}
	results := plan.Run(p, workers)

	var tunes []kickasm.Tune
	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			logging.Errorf("%s: %v", r.Entry.Name, r.Err)
			continue
		}
		tunes = append(tunes, r.Tune)
	}
	if failed > 0 {
		return fmt.Errorf("relocate: %d of %d tunes failed", failed, len(results))
	}

	if p.IncludePath != "" {
		f, err := os.Create(p.IncludePath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := kickasm.WriteInclude(f, tunes); err != nil {
			return err
		}
	}
	return nil
}

func inspectFile(src string) error {
	raw, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	job, err := psid.Parse(raw)
	if err != nil {
		return err
	}
	fmt.Printf("Name        %s\n", job.Header.Name)
	fmt.Printf("Author      %s\n", job.Header.Author)
	fmt.Printf("Released    %s\n", job.Header.Released)
	fmt.Printf("Load addr   %#04x\n", job.Base)
	fmt.Printf("Data end    %#04x\n", job.DataEnd)
	fmt.Printf("Init addr   %#04x\n", job.Header.InitAddress)
	fmt.Printf("Play addr   %#04x\n", job.Header.PlayAddress)
	fmt.Printf("Songs       %d (default %d)\n", job.Header.Songs, job.Header.StartSong)

	scan := cpu6502.Scan(job.Bytes, job.Base, job.EntryPoints)
	fmt.Printf("Code bytes  %d\n", len(scan.CodeOffsets))
	fmt.Printf("Data bytes  %d\n", len(job.Bytes)-len(scan.CodeOffsets))
	return nil
}

func disassembleFile(src, dst string) error {
	raw, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	job, err := psid.Parse(raw)
	if err != nil {
		return err
	}

	out := os.Stdout
	if dst != "" && dst != "-" {
		f, err := os.Create(dst)
		if err != nil {
			return err
		}
		defer f.Close()
		return disasm.Write(f, job.Bytes, job.Base, job.EntryPoints)
	}
	return disasm.Write(out, job.Bytes, job.Base, job.EntryPoints)
}

func main() {
	app := cli.NewApp()
	app.Name = "sidreloc"
	app.Usage = "relocate C64 PSID/RSID tunes onto new base addresses and SID register pages"
	app.Action = func(c *cli.Context) error {
		cli.ShowAppHelp(c)
		return nil
	}
	app.Before = func(c *cli.Context) error {
		logging.Init(os.Stderr, c.Bool("debug"))
		return nil
	}
	app.Flags = []cli.Flag{
		&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
		&cli.StringFlag{Name: "config", Usage: "path to a YAML config file"},
	}
	app.Commands = []*cli.Command{
		{
			Name:      "inspect",
			Aliases:   []string{"i"},
			Usage:     "Print a PSID/RSID header and a static code/data byte count",
			ArgsUsage: "file.sid",
			Action: func(c *cli.Context) error {
				if c.Args().Len() < 1 {
					return cli.Exit("missing file argument", 1)
				}
				if err := inspectFile(c.Args().First()); err != nil {
					return cli.Exit(err, 1)
				}
				return nil
			},
		},
		{
			Name:      "disasm",
			Aliases:   []string{"d"},
			Usage:     "Dump a textual disassembly of one tune for inspection",
			ArgsUsage: "file.sid [output.asm]",
			Action: func(c *cli.Context) error {
				if c.Args().Len() < 1 {
					return cli.Exit("missing file argument", 1)
				}
				if err := disassembleFile(c.Args().Get(0), c.Args().Get(1)); err != nil {
					return cli.Exit(err, 1)
				}
				return nil
			},
		},
		{
			Name:      "relocate",
			Aliases:   []string{"r"},
			Usage:     "Relocate tunes to new base addresses and SID offsets",
			ArgsUsage: "plan.yaml | file.sid output.bin --newbase 0x3000 --sidoffset 0x20",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "parallel", Value: 1, Usage: "worker goroutines in plan mode, 0 for runtime.NumCPU()"},
				&cli.StringFlag{Name: "newbase", Usage: "new base address, e.g. 0x3000 (switches to single-file mode)"},
				&cli.StringFlag{Name: "sidoffset", Value: "0x00", Usage: "SID register page offset: 0x00, 0x20, 0x40 or 0x60 (single-file mode)"},
			},
			Action: func(c *cli.Context) error {
				if c.IsSet("newbase") {
					args := c.Args()
					if args.Len() < 2 {
						return cli.Exit("expected file.sid and output.bin", 1)
					}
					newBase, err := strconv.ParseInt(c.String("newbase"), 0, 32)
					if err != nil {
						return cli.Exit("could not parse --newbase", 1)
					}
					sidOffset, err := strconv.ParseInt(c.String("sidoffset"), 0, 16)
					if err != nil {
						return cli.Exit("could not parse --sidoffset", 1)
					}
					if err := relocateOne(args.Get(0), args.Get(1), newBase, sidOffset); err != nil {
						return cli.Exit(err, 1)
					}
					return nil
				}

				if c.Args().Len() < 1 {
					return cli.Exit("missing plan file argument", 1)
				}
				workers := c.Int("parallel")
				if cfgPath := c.String("config"); cfgPath != "" {
					cfg, err := config.Load(cfgPath)
					if err != nil {
						return cli.Exit(err, 1)
					}
					if !c.IsSet("parallel") {
						workers = cfg.Parallel
					}
				}
				if err := runPlan(c.Args().First(), workers); err != nil {
					return cli.Exit(err, 1)
				}
				return nil
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
