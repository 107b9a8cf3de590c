package main

import (
	"flag"
	"fmt"
	randv2 "math/rand/v2"
	"os"
	"runtime"
	"strconv"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xsplay/lib/tree"
)

func newConsoleLogger(verbose bool) *zap.Logger {
	lvl := zapcore.InfoLevel
	if verbose {
		lvl = zapcore.DebugLevel
	}
	config := zapcore.EncoderConfig{
		MessageKey:  "msg",
		LevelKey:    "lvl",
		EncodeLevel: zapcore.CapitalColorLevelEncoder,
		TimeKey:     "ts",
		EncodeTime:  zapcore.ISO8601TimeEncoder,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(config), zapcore.Lock(os.Stdout), lvl)
	return zap.New(core)
}

func fmtIdx(idx int64) string {
	if idx == tree.SplayNilIdx {
		return "none"
	}
	return strconv.FormatInt(idx, 10)
}

func dump(logger *zap.Logger, st tree.SplayTree) {
	snap := st.Snapshot()
	logger.Info("tree state", zap.Int64("root", snap.Root), zap.Int64("nodes", st.Len()))
	lines := lo.Map(snap.Nodes, func(node tree.SplayNodeLinks, i int) string {
		return fmt.Sprintf("value: %d, parent: %s, left: %s, right: %s",
			i, fmtIdx(node.Parent), fmtIdx(node.Left), fmtIdx(node.Right))
	})
	for _, line := range lines {
		logger.Info(line)
	}
}

func exercise(seed uint64) error {
	rng := randv2.New(randv2.NewPCG(seed, seed<<1))
	n := rng.Int64N(63) + 1
	st, err := tree.NewSplayTree(n)
	if err != nil {
		return err
	}
	for i := 0; i < 128; i++ {
		idx := rng.Int64N(n)
		if err = st.Splay(idx); err != nil {
			return fmt.Errorf("tree %d: %w", seed, err)
		}
		if st.Root() != idx {
			return fmt.Errorf("tree %d: root is %d after splaying %d", seed, st.Root(), idx)
		}
		if err = tree.InvariantValidate(st); err != nil {
			return fmt.Errorf("tree %d: %w", seed, err)
		}
	}
	return nil
}

// runStress validates many independent trees concurrently. Each tree is
// owned by exactly one task, the tree itself stays single-threaded.
func runStress(trees int) error {
	pool, err := ants.NewPool(runtime.GOMAXPROCS(0), ants.WithPreAlloc(true))
	if err != nil {
		return err
	}
	defer pool.Release()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		merr error
	)
	for i := 0; i < trees; i++ {
		seed := uint64(i + 1)
		wg.Add(1)
		if err = pool.Submit(func() {
			defer wg.Done()
			if err := exercise(seed); err != nil {
				mu.Lock()
				merr = multierr.Append(merr, err)
				mu.Unlock()
			}
		}); err != nil {
			wg.Done()
			return err
		}
	}
	wg.Wait()
	return merr
}

func main() {
	var (
		size    int64
		target  int64
		stress  int
		verbose bool
	)
	flag.Int64Var(&size, "size", 10, "node count of the demo tree")
	flag.Int64Var(&target, "splay", 5, "node to splay in the demo tree")
	flag.IntVar(&stress, "stress", 0, "number of random trees to validate concurrently")
	flag.BoolVar(&verbose, "verbose", false, "log every splay step")
	flag.Parse()

	logger := newConsoleLogger(verbose)
	defer func() { _ = logger.Sync() }()

	st, err := tree.NewSplayTree(size, tree.WithSplayTreeLogger(logger))
	if err != nil {
		logger.Fatal("construct failed", zap.Int64("size", size), zap.Error(err))
	}
	dump(logger, st)

	logger.Info("splaying", zap.Int64("node", target))
	if err = st.Splay(target); err != nil {
		logger.Fatal("splay failed", zap.Int64("node", target), zap.Error(err))
	}
	dump(logger, st)

	stats := st.Stats()
	logger.Info("stats",
		zap.Int64("splays", stats.Splays),
		zap.Int64("steps", stats.Steps),
		zap.Int64("rotations", stats.Rotations),
	)

	if stress > 0 {
		if err = runStress(stress); err != nil {
			logger.Fatal("stress validation failed", zap.Error(err))
		}
		logger.Info("stress validation passed", zap.Int("trees", stress))
	}
}
