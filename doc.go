// Package genpool provides a generational-index object pool: a slot table of
// values addressed by (slot, generation) pairs, with reference-counted strong
// handles, non-owning weak handles and a deferred reference-count queue that
// the owner drains at a point of its choosing.
//
// # Architecture
//
// Items live inline in a single slice of entries. Each Add takes the lowest
// free slot, stamps it with a fresh pool-wide generation and returns a strong
// handle. Handles never touch the pool when they are cloned or released; they
// push "new" and "drop" events into a FIFO queue instead. SyncRefCounts
// applies those events in order and reports every slot whose count reached
// zero to a hook, which usually invalidates the slot so it can be reused.
//
// A weak handle remembers the generation it was created for. Once its slot is
// invalidated and reused, the generation no longer matches and lookups through
// the weak handle fail instead of returning the new occupant.
//
// # Quick Start
//
//	import "github.com/ajitpratap0/genpool/pkg/pool"
//
//	monsters := pool.New[Monster](pool.WithName("monsters"))
//
//	goblin := monsters.Add(Monster{Name: "goblin"})
//	target := goblin.Weak()
//
//	goblin.Release()
//	monsters.Sync() // goblin's slot is free again
//
//	if _, ok := monsters.Get(target); !ok {
//		// the goblin is gone
//	}
//
// # Key Packages
//
//	pkg/pool          - Slot table, handles, reference-count synchronization
//	pkg/smpsc         - FIFO event queue shared by a pool and its handles
//	pkg/tree          - Intrusive forest stored in a pool
//	pkg/poolerrors    - Typed errors and panic values
//	pkg/metrics       - Prometheus collector for pool activity
//	pkg/observability - OpenTelemetry tracing and host metrics
//	pkg/config        - YAML configuration with environment substitution
//	pkg/logger        - Global zap logger
//	internal/simulation - Deterministic entity workload
//	cmd/genpool       - Command line entry point
//
// # Concurrency
//
// None. A pool, its handles and its event queue belong to one goroutine;
// hosts that need parallelism shard their data across pools.
package genpool
