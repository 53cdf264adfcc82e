/*
Copyright 2025 Codenotary Inc. All rights reserved.

SPDX-License-Identifier: BUSL-1.1
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	https://mariadb.com/bsl11/

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/


package main

import (
	"bytes"
	"encoding/binary"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/treehaus/treebase/embedded/logger"
	"github.com/treehaus/treebase/embedded/store"
)

func main() {
	dataDir := flag.String("dataDir", "data", "data directory")

	nodeSize := flag.Int("nodeSize", 32, "maximum number of keys per node of a new store")
	cacheSize := flag.Int("cacheSize", 100, "number of clean nodes kept in memory")
	synced := flag.Bool("synced", false, "strict sync mode - no data lost")

	writers := flag.Int("writers", 4, "number of concurrent writers")
	commitCount := flag.Int("commitCount", 100, "number of commits per writer")
	kvCount := flag.Int("kvCount", 100, "number of kv entries per commit")
	keySpace := flag.Int("keySpace", 1_000, "number of distinct keys per writer, keys are rewritten once exhausted")
	vLen := flag.Int("vLen", 32, "value length (bytes)")
	commitDelay := flag.Int("commitDelay", 0, "delay (millis) between commits")
	printAfter := flag.Int("printAfter", 10, "print a dot '.' after specified number of commits")
	reopen := flag.Bool("reopen", true, "reopen the store and verify every key after all writers ended")

	flag.Parse()

	opts := store.DefaultOptions().
		WithLogger(logger.NewSimpleLoggerWithLevel("stress ", os.Stderr, logger.LogWarn)).
		WithNodeSize(*nodeSize).
		WithCacheSize(*cacheSize).
		WithSynced(*synced)

	fmt.Println("Opening store...")

	st, err := store.Open(*dataDir, opts)
	exitOnErr(err)

	stats, err := st.Stats()
	exitOnErr(err)

	fmt.Printf("Store with %d keys successfully opened!\r\n", stats.Meta.KeyCount)

	expected := make([]map[string][]byte, *writers)

	wg := &sync.WaitGroup{}
	wg.Add(*writers)

	start := time.Now()

	for w := 0; w < *writers; w++ {
		expected[w] = make(map[string][]byte)

		go func(id int, latest map[string][]byte) {
			defer wg.Done()

			rnd := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))

			n := 0

			for c := 0; c < *commitCount; c++ {
				for i := 0; i < *kvCount; i++ {
					k := make([]byte, 9)
					k[0] = byte(id)
					binary.BigEndian.PutUint64(k[1:], uint64(n%*keySpace))
					n++

					v := make([]byte, *vLen)
					rnd.Read(v)

					exitOnErr(st.Set(k, v))

					latest[string(k)] = v
				}

				_, err := st.Commit()
				exitOnErr(err)

				if *printAfter > 0 && c%*printAfter == 0 {
					fmt.Print(".")
				}

				time.Sleep(time.Duration(*commitDelay) * time.Millisecond)
			}

			verify(st, latest)

			fmt.Printf("\r\nWriter %d successfully ended!\r\n", id)
		}(w, expected[w])
	}

	wg.Wait()

	elapsed := time.Since(start)
	total := *writers * *commitCount * *kvCount

	fmt.Printf("\r\n%d entries written in %s (%.0f entries/s)\r\n", total, elapsed, float64(total)/elapsed.Seconds())

	exitOnErr(st.Close())

	if !*reopen {
		return
	}

	st, err = store.Open(*dataDir, opts.WithReadOnly(true))
	exitOnErr(err)

	defer st.Close()

	for _, latest := range expected {
		verify(st, latest)
	}

	report, err := st.Verify(nil)
	exitOnErr(err)

	fmt.Printf("All keys verified after reopening, %d records in %d bytes checked!\r\n", recordCount(report), report.Bytes)
}

func verify(st *store.Store, latest map[string][]byte) {
	for k, v := range latest {
		val, err := st.Get([]byte(k))
		exitOnErr(err)

		if !bytes.Equal(v, val) {
			exitOnErr(fmt.Errorf("value of key %x does not match the last written one", k))
		}
	}
}

func recordCount(report *store.VerifyReport) int {
	n := 0
	for _, c := range report.Records {
		n += c
	}
	return n
}

func exitOnErr(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "\r\nError: %v\r\n", err)
		os.Exit(1)
	}
}
