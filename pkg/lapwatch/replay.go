package lapwatch

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/lapwatch/lapwatch-go/internal/safefile"
	"github.com/lapwatch/lapwatch-go/internal/tailer"
)

// ReplayFile applies every line of a finished log file to r, in order.
// fn, if non-nil, is called with each line whose result is not ignored.
// Line failures are reported through fn and do not stop the replay.
// Lines have no length limit; the final line need not end in a newline.
//
// Example:
//
//	rec := lapwatch.NewReconciler(db)
//	err := lapwatch.ReplayFile(ctx, rec, "output_2024_01_15.log", func(line string, res lapwatch.Result) {
//	    for _, o := range res.Outcomes {
//	        fmt.Println(o.Kind, o.Player, o.Track)
//	    }
//	})
func ReplayFile(ctx context.Context, r *Reconciler, path string, fn func(line string, res Result)) error {
	f, _, err := safefile.OpenRegular(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, readErr := br.ReadString('\n')
		if line := tailer.CleanLine(raw); line != "" {
			res := r.Apply(ctx, line)
			if fn != nil && res.Status != StatusIgnored {
				fn(line, res)
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("reading %s: %w", path, readErr)
		}
	}
}
