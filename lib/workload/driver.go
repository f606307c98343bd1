package workload

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/ValentinKolb/kvbench/lib/util"
	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/lni/dragonboat/v4/logger"
	"golang.org/x/exp/rand"
)

var log = logger.GetLogger("workload")

// ctxCheckMask sets how often long phases poll the context (every 4096 ops).
const ctxCheckMask = 4096 - 1

// --------------------------------------------------------------------------
// Driver
// --------------------------------------------------------------------------

// Driver runs the phases Setup, Write, Read, Scan, Verify and Teardown of one
// benchmark run against a store created by its factory. A driver can be run
// several times; every run generates a fresh dataset in a fresh directory.
type Driver struct {
	cfg     Config
	codec   KeyCodec
	pool    *Pool
	factory store.Factory
	ws      *Workspace
}

// NewDriver validates cfg and returns a driver. pool may be nil for runs with
// deterministic values; random runs without a pool get one seeded from
// cfg.Seed. ws may be nil to use the system temp directory.
func NewDriver(cfg Config, pool *Pool, factory store.Factory, ws *Workspace) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, store.ConfigError("store factory must not be nil")
	}
	codec, err := cfg.Codec()
	if err != nil {
		return nil, err
	}
	if cfg.RandomVals && pool == nil {
		if pool, err = NewPool(DefaultPoolSize, cfg.Seed); err != nil {
			return nil, err
		}
	}
	if ws == nil {
		ws = NewWorkspace(nil, cfg.TmpDir)
	}
	return &Driver{cfg: cfg, codec: codec, pool: pool, factory: factory, ws: ws}, nil
}

// Config returns the run configuration.
func (d *Driver) Config() Config { return d.cfg }

// run is the state of a single Run call.
type run struct {
	arena  *KeyArena
	values *ValueGenerator
	st     store.Store
	dir    string
	result *RunResult
	// firstKey is the key returned by First during the scan phase
	firstKey []byte
}

// Run executes one benchmark run. Teardown runs on every exit path and its
// errors are joined with the run error.
func (d *Driver) Run(ctx context.Context) (res *RunResult, err error) {
	r, err := d.setup()
	if err != nil {
		return nil, err
	}
	defer func() {
		if tErr := d.teardown(r); tErr != nil {
			err = errors.Join(err, tErr)
		}
		if err != nil {
			res = nil
		}
	}()

	features := r.st.Features()
	steps := []struct {
		phase    Phase
		enabled  bool
		required store.Feature
		fn       func(context.Context, *run) error
	}{
		{PhaseWrite, true, store.FeaturePut, d.write},
		{PhaseRead, true, store.FeatureGet, d.read},
		{PhaseScan, d.cfg.Scan, store.FeatureScan, d.scan},
		{PhaseVerify, d.cfg.Verify, store.FeatureScan, d.verify},
	}

	for _, step := range steps {
		if !step.enabled {
			continue
		}
		if !features.Has(step.required) {
			log.Infof("%s: skipping %s phase, store lacks feature %s", d.cfg.Store, step.phase, step.required)
			r.result.Skipped = append(r.result.Skipped, step.phase)
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Debugf("%s: starting %s phase", d.cfg.Store, step.phase)
		if err := step.fn(ctx, r); err != nil {
			log.Errorf("%s: %s phase failed: %v", d.cfg.Store, step.phase, err)
			return nil, err
		}
	}
	return r.result, nil
}

// --------------------------------------------------------------------------
// Setup / Teardown
// --------------------------------------------------------------------------

func (d *Driver) setup() (*run, error) {
	seed := util.SeedOrRandom(d.cfg.Seed)
	rng := rand.New(rand.NewSource(seed))

	keys, err := GenerateKeys(d.cfg.Entries, d.cfg.Sequential, d.codec.Space(), rng)
	if err != nil {
		return nil, err
	}
	values, err := NewValueGenerator(d.pool, d.cfg.ValueSize, d.cfg.RandomVals, d.codec)
	if err != nil {
		return nil, err
	}

	dir, err := d.ws.Create(d.cfg.Store)
	if err != nil {
		return nil, err
	}
	st, err := d.factory(d.cfg.Options(dir, d.codec))
	if err != nil {
		_ = d.ws.Remove(dir)
		return nil, err
	}
	log.Debugf("%s: opened store in %s (seed %d)", d.cfg.Store, dir, seed)

	return &run{
		arena:  NewKeyArena(d.codec, keys),
		values: values,
		st:     st,
		dir:    dir,
		result: &RunResult{Store: st.Info(), Entries: len(keys)},
	}, nil
}

func (d *Driver) teardown(r *run) error {
	var errs []error
	if err := r.st.Close(); err != nil {
		errs = append(errs, store.EngineError("close", err))
	}
	usage, err := d.ws.Usage(r.dir)
	if err != nil {
		errs = append(errs, err)
	}
	r.result.DiskBytes = usage
	if err := d.ws.Remove(r.dir); err != nil {
		errs = append(errs, err)
	}
	log.Debugf("%s: removed %s (%s on disk)", d.cfg.Store, r.dir, humanize.IBytes(uint64(usage)))
	return errors.Join(errs...)
}

// --------------------------------------------------------------------------
// Phases
// --------------------------------------------------------------------------

// latency records per-operation latencies when enabled.
type latency struct {
	hist *hdrhistogram.Histogram
}

func (d *Driver) newLatency() latency {
	if !d.cfg.TrackLatency {
		return latency{}
	}
	return latency{hist: NewLatencyHistogram()}
}

func (l latency) start() time.Time {
	if l.hist == nil {
		return time.Time{}
	}
	return time.Now()
}

func (l latency) stop(t0 time.Time) {
	if l.hist != nil {
		_ = l.hist.RecordValue(time.Since(t0).Nanoseconds())
	}
}

func checkCtx(ctx context.Context, i int) error {
	if i&ctxCheckMask == 0 {
		return ctx.Err()
	}
	return nil
}

func (d *Driver) write(ctx context.Context, r *run) error {
	lat := d.newLatency()
	crc, xxh := NewCRC32(), NewXXH64Sum()
	r.values.Reset()

	start := time.Now()
	txn, err := r.st.WriteTxn()
	if err != nil {
		return store.EngineError("begin write transaction", err)
	}
	defer txn.Abort()

	for i := 0; i < r.arena.Len(); i++ {
		if err := checkCtx(ctx, i); err != nil {
			return err
		}
		key := r.arena.Key(i)
		value := r.values.Next(r.arena.Int(i))
		t0 := lat.start()
		if err := txn.Put(key, value); err != nil {
			return store.EngineError("put", err)
		}
		lat.stop(t0)
		crc.Add(key, value)
		xxh.Add(key, value)
	}
	if err := txn.Commit(); err != nil {
		return store.EngineError("commit", err)
	}
	duration := time.Since(start)

	r.result.Checksums.WriteCRC = crc.Sum64()
	r.result.Checksums.WriteXXH64 = xxh.Sum64()
	r.result.Phases = append(r.result.Phases, PhaseResult{Phase: PhaseWrite, Ops: r.arena.Len(), Duration: duration, Latency: lat.hist})
	log.Infof("%s: wrote %s entries in %v", d.cfg.Store, humanize.Comma(int64(r.arena.Len())), duration)
	return nil
}

func (d *Driver) read(ctx context.Context, r *run) error {
	lat := d.newLatency()
	crc, xxh := NewCRC32(), NewXXH64Sum()

	start := time.Now()
	txn, err := r.st.ReadTxn()
	if err != nil {
		return store.EngineError("begin read transaction", err)
	}
	defer txn.Close()

	for i := 0; i < r.arena.Len(); i++ {
		if err := checkCtx(ctx, i); err != nil {
			return err
		}
		key := r.arena.Key(i)
		t0 := lat.start()
		value, err := txn.Get(key)
		if err != nil {
			return store.EngineError("get", err)
		}
		lat.stop(t0)
		crc.Add(key, value)
		xxh.Add(key, value)
	}
	txn.Close()
	duration := time.Since(start)

	r.result.Checksums.ReadCRC = crc.Sum64()
	r.result.Checksums.ReadXXH64 = xxh.Sum64()
	r.result.Phases = append(r.result.Phases, PhaseResult{Phase: PhaseRead, Ops: r.arena.Len(), Duration: duration, Latency: lat.hist})

	if r.result.Checksums.ReadCRC != r.result.Checksums.WriteCRC {
		return store.IntegrityError("read CRC %08x does not match write CRC %08x",
			r.result.Checksums.ReadCRC, r.result.Checksums.WriteCRC)
	}
	if r.result.Checksums.ReadXXH64 != r.result.Checksums.WriteXXH64 {
		return store.IntegrityError("read XXH64 sum %016x does not match write sum %016x",
			r.result.Checksums.ReadXXH64, r.result.Checksums.WriteXXH64)
	}
	log.Infof("%s: read %s entries in %v", d.cfg.Store, humanize.Comma(int64(r.arena.Len())), duration)
	return nil
}

func (d *Driver) scan(ctx context.Context, r *run) error {
	features := r.st.Features()
	txn, err := r.st.ReadTxn()
	if err != nil {
		return store.EngineError("begin read transaction", err)
	}
	defer txn.Close()

	// an empty store has no first entry to position on
	if features.Has(store.FeatureFirst) && r.arena.Len() > 0 {
		start := time.Now()
		key, _, err := txn.First()
		if err != nil {
			return store.EngineError("first", err)
		}
		r.result.Phases = append(r.result.Phases, PhaseResult{Phase: PhaseFirst, Ops: 1, Duration: time.Since(start)})
		r.firstKey = bytes.Clone(key)
	} else if !features.Has(store.FeatureFirst) {
		r.result.Skipped = append(r.result.Skipped, PhaseFirst)
	}

	dirs := []struct {
		phase   Phase
		dir     store.Direction
		feature store.Feature
	}{
		{PhaseScan, store.Forward, store.FeatureScan},
		{PhaseScanReverse, store.Reverse, store.FeatureReverseScan},
	}
	for _, sd := range dirs {
		if !features.Has(sd.feature) {
			r.result.Skipped = append(r.result.Skipped, sd.phase)
			continue
		}
		lat := d.newLatency()
		n := 0
		start := time.Now()
		t0 := lat.start()
		err := txn.Scan(sd.dir, func(_, _ []byte) error {
			lat.stop(t0)
			if err := checkCtx(ctx, n); err != nil {
				return err
			}
			n++
			t0 = lat.start()
			return nil
		})
		duration := time.Since(start)
		if err != nil {
			return scanError(ctx, string(sd.phase), err)
		}
		if n != r.arena.Len() {
			return store.IntegrityError("%s visited %d entries, expected %d", sd.phase, n, r.arena.Len())
		}
		r.result.Phases = append(r.result.Phases, PhaseResult{Phase: sd.phase, Ops: n, Duration: duration, Latency: lat.hist})
		log.Infof("%s: %s over %s entries in %v", d.cfg.Store, sd.phase, humanize.Comma(int64(n)), duration)
	}
	return nil
}

// entry is one visited pair of the verify phase, the value is kept as hash.
type entry struct {
	key   []byte
	value uint64
}

func (d *Driver) verify(ctx context.Context, r *run) error {
	sums := &r.result.Checksums
	txn, err := r.st.ReadTxn()
	if err != nil {
		return store.EngineError("begin read transaction", err)
	}
	defer txn.Close()

	start := time.Now()
	crc, xxh := NewCRC32(), NewXXH64Sum()
	entries := make([]entry, 0, r.arena.Len())
	err = txn.Scan(store.Forward, func(key, value []byte) error {
		if err := checkCtx(ctx, len(entries)); err != nil {
			return err
		}
		crc.Add(key, value)
		xxh.Add(key, value)
		entries = append(entries, entry{key: bytes.Clone(key), value: xxhash.Sum64(value)})
		return nil
	})
	if err != nil {
		return scanError(ctx, "verify scan", err)
	}
	sums.CursorCRC = crc.Sum64()
	sums.CursorXXH64 = xxh.Sum64()
	duration := time.Since(start)

	if len(entries) != r.arena.Len() {
		return store.IntegrityError("cursor visited %d entries, expected %d", len(entries), r.arena.Len())
	}
	if sums.CursorXXH64 != sums.WriteXXH64 {
		return store.IntegrityError("cursor XXH64 sum %016x does not match write sum %016x", sums.CursorXXH64, sums.WriteXXH64)
	}
	if r.firstKey != nil && len(entries) > 0 && !bytes.Equal(r.firstKey, entries[0].key) {
		return store.IntegrityError("first key %x does not match first scanned key %x", r.firstKey, entries[0].key)
	}

	if d.cfg.Sequential && d.codec.OrderPreserving() {
		// ascending cursor order equals insertion order
		if sums.CursorCRC != sums.WriteCRC {
			return store.IntegrityError("cursor CRC %08x does not match write CRC %08x", sums.CursorCRC, sums.WriteCRC)
		}
	} else {
		again := NewCRC32()
		if _, err := ChecksumStore(txn, again); err != nil {
			return scanError(ctx, "verify scan", err)
		}
		if again.Sum64() != sums.CursorCRC {
			return store.IntegrityError("cursor CRC is not reproducible: %08x then %08x", sums.CursorCRC, again.Sum64())
		}
	}

	if r.st.Features().Has(store.FeatureReverseScan) {
		i := len(entries)
		err = txn.Scan(store.Reverse, func(key, value []byte) error {
			i--
			if i < 0 {
				return store.IntegrityError("reverse scan visited more than %d entries", len(entries))
			}
			if !bytes.Equal(key, entries[i].key) || xxhash.Sum64(value) != entries[i].value {
				return store.IntegrityError("reverse scan entry %d (key %x) differs from forward scan", len(entries)-1-i, key)
			}
			return nil
		})
		if err != nil {
			return scanError(ctx, "verify reverse scan", err)
		}
		if i != 0 {
			return store.IntegrityError("reverse scan visited %d entries, expected %d", len(entries)-i, len(entries))
		}
	}

	r.result.Phases = append(r.result.Phases, PhaseResult{Phase: PhaseVerify, Ops: len(entries), Duration: time.Since(start)})
	log.Infof("%s: verified %s entries (crc %08x, xxh64 %016x) in %v", d.cfg.Store,
		humanize.Comma(int64(len(entries))), sums.CursorCRC, sums.CursorXXH64, duration)
	return nil
}

// scanError keeps context and integrity errors and wraps everything else as
// an engine error.
func scanError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil || store.IsCode(err, store.RetCIntegrity) {
		return err
	}
	return store.EngineError(op, err)
}
