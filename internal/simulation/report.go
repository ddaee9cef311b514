package simulation

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	gojson "github.com/goccy/go-json"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/ajitpratap0/genpool/pkg/poolerrors"
)

// Report summarizes one run.
type Report struct {
	Ticks         int    `json:"ticks"`
	Spawned       int    `json:"spawned"`
	Released      int    `json:"released"`
	Owned         int    `json:"owned"`
	Invalidated   int    `json:"invalidated"`
	StaleLookups  int    `json:"stale_lookups"`
	Kills         int    `json:"kills"`
	EventsApplied uint64 `json:"events_applied"`
	Reuses        uint64 `json:"reuses"`
	Live          int    `json:"live"`
	Slots         int    `json:"slots"`
	MaxGeneration uint32 `json:"max_generation"`
	// Leaked is what stayed in the pool after every host handle was released
	Leaked      int    `json:"leaked"`
	RSSBytes    uint64 `json:"rss_bytes"`
	NumThreads  int32  `json:"num_threads"`
	Interrupted bool   `json:"interrupted"`
}

// sampleProcess fills in resource usage of the current process. Failures are
// ignored; some platforms do not expose these numbers.
func (r *Report) sampleProcess() {
	proc, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // pid fits in int32
	if err != nil {
		return
	}
	if memInfo, err := proc.MemoryInfo(); err == nil {
		r.RSSBytes = memInfo.RSS
	}
	r.NumThreads, _ = proc.NumThreads()
}

// Encode writes the report in format, "text" or "json".
func (r *Report) Encode(w io.Writer, format string) error {
	switch format {
	case "json":
		enc := gojson.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return poolerrors.Wrap(err, poolerrors.ErrorTypeInternal, "failed to encode report")
		}
		return nil
	case "text", "":
		return r.writeText(w)
	default:
		return poolerrors.New(poolerrors.ErrorTypeValidation, "unknown report format").
			WithDetail("format", format)
	}
}

func (r *Report) writeText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := []struct {
		label string
		value interface{}
	}{
		{"ticks", r.Ticks},
		{"spawned", r.Spawned},
		{"released", r.Released},
		{"owned", r.Owned},
		{"invalidated", r.Invalidated},
		{"stale lookups", r.StaleLookups},
		{"kills", r.Kills},
		{"events applied", r.EventsApplied},
		{"slot reuses", r.Reuses},
		{"live", r.Live},
		{"slots", r.Slots},
		{"max generation", r.MaxGeneration},
		{"leaked", r.Leaked},
		{"rss bytes", r.RSSBytes},
		{"threads", r.NumThreads},
		{"interrupted", r.Interrupted},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(tw, "%s:\t%v\n", row.label, row.value); err != nil {
			return poolerrors.Wrap(err, poolerrors.ErrorTypeInternal, "failed to write report")
		}
	}
	if err := tw.Flush(); err != nil {
		return poolerrors.Wrap(err, poolerrors.ErrorTypeInternal, "failed to write report")
	}
	return nil
}
