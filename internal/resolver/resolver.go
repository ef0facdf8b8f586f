// Package resolver implements a parallel worker pool that computes the
// resolved set over the transitive closure of a manifest's root
// requirements, using a greedy "highest-satisfying" selection. This is not
// a SAT solver: it never backtracks, and an unsatisfiable name is dropped
// rather than reported as a conflict.
package resolver

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/sdboyer/constext"

	"github.com/tylerdiaz/supergemlock/internal/catalog"
	"github.com/tylerdiaz/supergemlock/internal/manifest"
	"github.com/tylerdiaz/supergemlock/internal/version"
)

// ResolvedLibrary is one entry of a Resolution's ordered sequence.
type ResolvedLibrary struct {
	Name            string
	Version         version.Version
	Source          manifest.Source
	DependencyNames []string
}

// Resolution couples the authoritative name->version map with the ordered
// sequence the emitters walk; the two always agree on names and versions.
type Resolution struct {
	Map      map[string]version.Version
	Sequence []ResolvedLibrary
}

// Stats carries timing and soft-failure telemetry: captured for logging,
// never serialized, never part of the resolution's contract.
type Stats struct {
	Duration time.Duration
	Dropped  []string // names with no catalog entry or no satisfying version
}

// Resolve computes the Resolution for roots against cache. Only
// requirements with no Groups are placed in the resolver's work set;
// grouped requirements are metadata-only in this version. A name is
// checked only against the constraints its root requirements declare; the
// constraints a catalog entry places on its dependencies are not applied,
// and an already-selected version is never re-validated.
func Resolve(ctx context.Context, roots []manifest.RootRequirement, cache *catalog.Cache) (*Resolution, Stats, error) {
	start := time.Now()

	var active []manifest.RootRequirement
	for _, r := range roots {
		if len(r.Groups) == 0 {
			active = append(active, r)
		}
	}

	rootConstraints := map[string][]version.Constraint{}
	rootSource := map[string]manifest.Source{}
	for _, r := range active {
		rootConstraints[r.Name] = append(rootConstraints[r.Name], r.Constraints...)
		if _, ok := rootSource[r.Name]; !ok {
			rootSource[r.Name] = r.Source
		}
	}

	res := &resolverState{
		ctx:             ctx,
		cache:           cache,
		rootConstraints: rootConstraints,
		rootSource:      rootSource,
		resolution: Resolution{
			Map: make(map[string]version.Version),
		},
	}

	for name := range rootConstraints {
		res.enqueue(name)
	}

	workers := workerCount(len(rootConstraints))
	if workers <= 1 {
		res.runSingleThreaded()
	} else {
		res.runParallel(workers)
	}

	sort.Slice(res.resolution.Sequence, func(i, j int) bool {
		return res.resolution.Sequence[i].Name < res.resolution.Sequence[j].Name
	})

	return &res.resolution, Stats{Duration: time.Since(start), Dropped: res.dropped}, nil
}

// workerCount is min(available_parallelism, |root_requirements|); falls
// back to a single-threaded path when that minimum is 1.
func workerCount(rootCount int) int {
	n := runtime.GOMAXPROCS(0)
	if rootCount < n {
		n = rootCount
	}
	if n < 1 {
		n = 1
	}
	return n
}

// resolverState holds the shared mutable state for one Resolve call: the
// resolution structure and the work queue, each behind its own mutex.
type resolverState struct {
	ctx   context.Context
	cache *catalog.Cache

	rootConstraints map[string][]version.Constraint
	rootSource      map[string]manifest.Source

	queueMu sync.Mutex
	queue   []string // LIFO: push/pop at the end

	resMu      sync.Mutex
	resolution Resolution
	dropped    []string
}

func (r *resolverState) enqueue(name string) {
	r.queueMu.Lock()
	r.queue = append(r.queue, name)
	r.queueMu.Unlock()
}

func (r *resolverState) pop() (string, bool) {
	r.queueMu.Lock()
	defer r.queueMu.Unlock()
	n := len(r.queue)
	if n == 0 {
		return "", false
	}
	name := r.queue[n-1]
	r.queue = r.queue[:n-1]
	return name, true
}

func (r *resolverState) queueLen() int {
	r.queueMu.Lock()
	defer r.queueMu.Unlock()
	return len(r.queue)
}

// runSingleThreaded drains the queue directly; used when parallelism would
// buy nothing.
func (r *resolverState) runSingleThreaded() {
	for {
		name, ok := r.pop()
		if !ok {
			return
		}
		r.resolveOne(name)
	}
}

// runParallel composes a cancellation-scoped context from the caller's
// context and a fresh background one, and runs workers until the queue
// drains.
func (r *resolverState) runParallel(workers int) {
	runCtx, cancel := constext.Cons(r.ctx, context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.worker(runCtx)
		}()
	}
	wg.Wait()
}

// worker runs a drain-detection loop: bounded spin, then a short sleep;
// after a bounded number of consecutive empty observations it exits,
// relying on the invariant that every enqueue follows an insertion into
// the resolution map, so once no worker is inserting, no worker is
// enqueuing, and the queue monotonically drains.
func (r *resolverState) worker(ctx context.Context) {
	const (
		spinAttempts = 32
		maxIdleSleep = 8
	)

	idle := 0
	for {
		if ctx.Err() != nil {
			return
		}

		name, ok := r.pop()
		if ok {
			idle = 0
			r.resolveOne(name)
			continue
		}

		found := false
		for i := 0; i < spinAttempts; i++ {
			if name, ok := r.pop(); ok {
				r.resolveOne(name)
				found = true
				break
			}
		}
		if found {
			idle = 0
			continue
		}

		idle++
		if idle > maxIdleSleep && r.queueLen() == 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
}

// resolveOne resolves a single name to its highest satisfying version,
// records it, and enqueues its dependencies.
func (r *resolverState) resolveOne(name string) {
	r.resMu.Lock()
	if _, done := r.resolution.Map[name]; done {
		r.resMu.Unlock()
		return
	}
	r.resMu.Unlock()

	src := r.rootSource[name] // manifest.Source zero value is SourceRegistry

	if src.Kind != manifest.SourceRegistry {
		r.resolvePassThrough(name, src)
		return
	}

	constraints := r.rootConstraints[name]

	entries := r.cache.VersionsFor(name)
	if len(entries) == 0 {
		r.recordDropped(name)
		return
	}

	var candidates []version.Version
	byVersion := make(map[uint64]catalog.Entry, len(entries))
	for _, e := range entries {
		if _, seen := byVersion[e.Version.Pack()]; !seen {
			byVersion[e.Version.Pack()] = e
			if version.SatisfiesAll(e.Version, constraints) {
				candidates = append(candidates, e.Version)
			}
		}
	}

	best, ok := version.Max(candidates)
	if !ok {
		r.recordDropped(name)
		return
	}
	entry := byVersion[best.Pack()]

	depNames := make([]string, 0, len(entry.Dependencies))
	for _, d := range entry.Dependencies {
		depNames = append(depNames, d.Name)
	}

	lib := ResolvedLibrary{
		Name:            name,
		Version:         entry.Version,
		Source:          src,
		DependencyNames: depNames,
	}

	r.resMu.Lock()
	if _, done := r.resolution.Map[name]; done {
		r.resMu.Unlock()
		return
	}
	r.resolution.Map[name] = entry.Version
	r.resolution.Sequence = append(r.resolution.Sequence, lib)
	r.resMu.Unlock()

	for _, depName := range depNames {
		r.enqueue(depName)
	}
}

// resolvePassThrough inserts a vcs/path-sourced requirement directly,
// bypassing the catalog entirely: only the registry source feeds the
// catalog lookup, per manifest.Source's documented kinds. There is no
// catalog entry to carry a real version or dependency list, so the
// library is recorded with the placeholder version "0.0.0" and no
// dependencies; the GIT/PATH lock-file sections print that version as-is.
func (r *resolverState) resolvePassThrough(name string, src manifest.Source) {
	lib := ResolvedLibrary{
		Name:    name,
		Version: version.MustParse("0.0.0"),
		Source:  src,
	}

	r.resMu.Lock()
	if _, done := r.resolution.Map[name]; done {
		r.resMu.Unlock()
		return
	}
	r.resolution.Map[name] = lib.Version
	r.resolution.Sequence = append(r.resolution.Sequence, lib)
	r.resMu.Unlock()
}

func (r *resolverState) recordDropped(name string) {
	r.resMu.Lock()
	r.dropped = append(r.dropped, name)
	r.resMu.Unlock()
}
