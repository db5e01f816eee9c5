// Package plan loads a batch relocation plan from YAML and runs it
// across a bounded worker pool, grounded on the same fixed-size
// goroutine-per-worker, channel-of-tasks shape this project's search
// tooling ancestor used for distributing independent units of work.
package plan

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/sidreloc/sidreloc/internal/kickasm"
	"github.com/sidreloc/sidreloc/internal/logging"
	"github.com/sidreloc/sidreloc/internal/psid"
	"github.com/sidreloc/sidreloc/internal/relocate"
)

// TuneEntry is one line of a batch plan: a source SID file, its new
// base address, the SID register page offset it should be patched to,
// and where the flat relocated image should be written.
type TuneEntry struct {
	Name       string `yaml:"name"`
	Source     string `yaml:"source"`
	NewBase    uint16 `yaml:"new_base"`
	SIDOffset  uint8  `yaml:"sid_offset"`
	OutputPath string `yaml:"output_path"`
}

// BatchPlan is the top-level YAML document: a list of tune entries
// plus the path of the KickAssembler include file generated once all
// of them have been relocated.
type BatchPlan struct {
	IncludePath string      `yaml:"include_path"`
	Tunes       []TuneEntry `yaml:"tunes"`
}

// Load reads and validates a batch plan file.
func Load(path string) (BatchPlan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return BatchPlan{}, fmt.Errorf("plan: read %s: %w", path, err)
	}
	var p BatchPlan
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return BatchPlan{}, fmt.Errorf("plan: parse %s: %w", path, err)
	}
	if len(p.Tunes) == 0 {
		return BatchPlan{}, fmt.Errorf("plan: %s names no tunes", path)
	}
	for i, t := range p.Tunes {
		if t.Source == "" || t.OutputPath == "" {
			return BatchPlan{}, fmt.Errorf("plan: tune %d (%s) missing source or output_path", i, t.Name)
		}
	}
	return p, nil
}

// TuneResult is the outcome of relocating one plan entry.
type TuneResult struct {
	Entry  TuneEntry
	Job    psid.RelocationJob
	Result relocate.Result
	Tune   kickasm.Tune
	Err    error
}

// Run relocates every tune in p across workers goroutines (runtime.NumCPU()
// when workers <= 0) and writes each patched image to its OutputPath.
// A failure on one tune does not stop the others; it is reported in
// that entry's TuneResult.Err.
func Run(p BatchPlan, workers int) []TuneResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(p.Tunes) {
		workers = len(p.Tunes)
	}

	tasks := make(chan int, len(p.Tunes))
	results := make([]TuneResult, len(p.Tunes))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range tasks {
				results[idx] = runOne(p.Tunes[idx])
			}
		}()
	}
	for i := range p.Tunes {
		tasks <- i
	}
	close(tasks)
	wg.Wait()

	return results
}

func runOne(entry TuneEntry) TuneResult {
	raw, err := os.ReadFile(entry.Source)
	if err != nil {
		return TuneResult{Entry: entry, Err: fmt.Errorf("plan: read %s: %w", entry.Source, err)}
	}

	job, err := psid.Parse(raw)
	if err != nil {
		return TuneResult{Entry: entry, Err: fmt.Errorf("plan: parse %s: %w", entry.Source, err)}
	}

	relocPlan := relocate.Plan{
		OriginalBase: job.Base,
		NewBase:      entry.NewBase,
		SIDOffset:    entry.SIDOffset,
		DataEnd:      job.DataEnd,
		EntryPoints:  job.EntryPoints,
	}
	res, err := relocate.Relocate(job.Bytes, relocPlan)
	if err != nil {
		return TuneResult{Entry: entry, Job: job, Err: fmt.Errorf("plan: relocate %s: %w", entry.Source, err)}
	}

	if err := os.WriteFile(entry.OutputPath, res.Bytes, 0o644); err != nil {
		return TuneResult{Entry: entry, Job: job, Result: res, Err: fmt.Errorf("plan: write %s: %w", entry.OutputPath, err)}
	}

	name := entry.Name
	if name == "" {
		name = job.Header.Name
	}
	tune := kickasm.Tune{
		Name:        name,
		OriginalSID: entry.Source,
		NewBase:     entry.NewBase,
		InitAddress: job.Header.InitAddress - job.Base + entry.NewBase,
		PlayAddress: job.Header.PlayAddress - job.Base + entry.NewBase,
		SIDBase:     0xD400 + uint16(entry.SIDOffset),
		Songs:       job.Header.Songs,
		StartSong:   job.Header.StartSong,
	}

	logging.Infof("relocated %s: %s base %#04x -> %#04x, sid offset %#02x, %d bytes",
		entry.Source, name, job.Base, entry.NewBase, entry.SIDOffset, len(res.Bytes))

	return TuneResult{Entry: entry, Job: job, Result: res, Tune: tune}
}
