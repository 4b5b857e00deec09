// Command svm-storage-bench drives an App Storage with pseudo-random page
// slice writes and prints the resulting state roots, one commit per round.
//
// Grounded on the teacher's own flag-driven driver
// (examples/trie_bench/main.go, trie_bench/main.go): neither the teacher nor
// this module reaches for a CLI framework, just the standard flag package.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/cdyfng/svm"
	"github.com/cdyfng/svm/appstorage"
	"github.com/cdyfng/svm/hashing"
	"github.com/cdyfng/svm/kv"
	"github.com/cdyfng/svm/kv/badgerkv"
	"github.com/cdyfng/svm/kv/memkv"
	"go.uber.org/zap"
)

var (
	pageCount = flag.Int("pages", 16, "number of pages the contract storage spans")
	rounds    = flag.Int("rounds", 10, "number of write+commit rounds to run")
	writes    = flag.Int("writes", 8, "page slice writes per round")
	seed      = flag.Int64("seed", 1, "PRNG seed")
	dbDir     = flag.String("db", "", "Badger database directory; empty uses an in-memory store")
	addrSeed  = flag.Uint("addr", 0x11223344, "contract address, as the low 32 bits of a 20-byte address")
)

func must(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "svm-storage-bench:", err)
		os.Exit(1)
	}
}

func main() {
	flag.Parse()

	logger, err := zap.NewDevelopment()
	must(err)
	defer logger.Sync() //nolint:errcheck

	var store kv.Store
	if *dbDir == "" {
		store = memkv.New()
	} else {
		bs, err := badgerkv.Open(*dbDir)
		must(err)
		defer bs.Close() //nolint:errcheck
		store = bs
	}

	builder := appstorage.NewBuilder(store, hashing.Blake2b256{}, hashing.Blake2b256{}, logger)
	addr := svm.AddressFromUint32(uint32(*addrSeed))

	rnd := rand.New(rand.NewSource(*seed))
	state := svm.Empty()

	for round := 0; round < *rounds; round++ {
		st, err := builder(addr, state, appstorage.Settings{PageCount: uint16(*pageCount)})
		must(err)

		for w := 0; w < *writes; w++ {
			idx := svm.PageIndex(rnd.Intn(*pageCount))
			offset := uint32(rnd.Intn(svm.PageSize - 32))
			length := uint32(1 + rnd.Intn(32))
			if offset+length > svm.PageSize {
				length = svm.PageSize - offset
			}
			data := make([]byte, length)
			rnd.Read(data)
			must(st.WritePageSlice(svm.Layout{PageIndex: idx, Offset: offset, Length: length}, data))
		}

		state, err = st.Commit()
		must(err)
		fmt.Printf("round %d: state=%s\n", round, state)
	}
}
