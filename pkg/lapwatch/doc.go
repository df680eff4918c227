// Package lapwatch turns dedicated-server session logs into stored lap times.
//
// Log lines are classified into typed events (track and layout hints, car
// requests, driver assignments, lap and cuts reports) and applied to a
// [Reconciler], which correlates events arriving in any order into fully
// resolved laps: player, car, canonical track key and lap time. Laps with
// cuts are discarded; laps whose driver has no car yet are held until the
// car is known.
//
// # Basic Usage
//
// To watch a server log directory and record laps:
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	outcomes, errs, err := lapwatch.WatchWithOptions(ctx, db,
//	    lapwatch.WithLogDir("/srv/acserver/logs/session"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for {
//	    select {
//	    case o, ok := <-outcomes:
//	        if !ok {
//	            return
//	        }
//	        fmt.Printf("%s %s %s %d\n", o.Kind, o.Player, o.Track, o.LapMs)
//	    case err, ok := <-errs:
//	        if !ok {
//	            return
//	        }
//	        log.Printf("error: %v", err)
//	    }
//	}
//
// To apply lines directly:
//
//	rec := lapwatch.NewReconciler(db)
//	res := rec.Apply(ctx, "LAP Alice 1:23.456")
//
// # Track Keys
//
// Track identity is gathered from several log conventions (TRACK= and
// CONFIG= lines, JSON fragments, content/tracks paths and track= query
// parameters) and normalized into "track" or "track-layout".
package lapwatch
