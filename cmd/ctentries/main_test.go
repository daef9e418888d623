// Copyright (C) 2025 Opsmate, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla
// Public License, v. 2.0. If a copy of the MPL was not distributed
// with this file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// This software is distributed WITHOUT A WARRANTY OF ANY KIND.
// See the Mozilla Public License for details.

package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/cryptobyte"
	"software.sslmate.com/src/ctentries/cttypes"
)

func rawEntry(index uint64, malformed bool) cttypes.RawLogEntry {
	var leaf cryptobyte.Builder
	leaf.AddValue(cttypes.MerkleTreeLeafForCert(1700000000000+index, nil, cttypes.ASN1Cert(fmt.Sprintf("cert %d", index))))
	extraData := []byte{0, 0, 0}
	if malformed {
		extraData = extraData[:2]
	}
	return cttypes.RawLogEntry{
		LeafInput: base64.StdEncoding.EncodeToString(leaf.BytesOrPanic()),
		ExtraData: base64.StdEncoding.EncodeToString(extraData),
	}
}

// newTestServer serves entries [0, size) in pages of at most 3, with the
// entry at index malformed carrying truncated extra_data.
func newTestServer(size uint64, malformed uint64) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start, _ := strconv.ParseUint(req.URL.Query().Get("start"), 10, 64)
		end, _ := strconv.ParseUint(req.URL.Query().Get("end"), 10, 64)
		end = min(end, size-1, start+2)
		var response cttypes.GetEntriesResponse
		for i := start; i <= end; i++ {
			response.Entries = append(response.Entries, rawEntry(i, i == malformed))
		}
		json.NewEncoder(w).Encode(&response)
	}))
	DeferCleanup(server.Close)
	return server
}

func tempDir() string {
	dir, err := os.MkdirTemp("", "ctentries")
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(os.RemoveAll, dir)
	return dir
}

func unsetenv(key string) {
	if value, ok := os.LookupEnv(key); ok {
		os.Unsetenv(key)
		DeferCleanup(os.Setenv, key, value)
	}
}

func setenv(key, value string) {
	unsetenv(key)
	os.Setenv(key, value)
	DeferCleanup(os.Unsetenv, key)
}

var _ = Describe("loadConfig", func() {
	BeforeEach(func() {
		for _, key := range []string{"LOG", "INPUT", "START", "END", "BATCH_SIZE", "PARALLEL_FETCH", "DECODE_WORKERS", "RATE", "MALFORMED_DIR", "VERBOSE"} {
			unsetenv("CTENTRIES_" + key)
		}
	})

	It("reads flags and fills in defaults", func() {
		config, err := loadConfig([]string{"--log", "https://ct.example/", "--start", "5", "--end", "9", "--rate", "2.5"})
		Expect(err).NotTo(HaveOccurred())
		Expect(config.LogURL).To(Equal("https://ct.example/"))
		Expect(config.Start).To(Equal(uint64(5)))
		Expect(config.End).To(Equal(uint64(9)))
		Expect(config.RequestRate).To(Equal(2.5))
		Expect(config.BatchSize).To(Equal(uint64(1000)))
		Expect(config.ParallelFetch).To(Equal(2))
		Expect(config.DecodeWorkers).To(Equal(1))
		Expect(config.Verbose).To(BeFalse())
		Expect(newLimiter(config.RequestRate)).NotTo(BeNil())
		Expect(newLimiter(0)).To(BeNil())
	})

	It("reads the environment", func() {
		setenv("CTENTRIES_LOG", "https://env.example/")
		setenv("CTENTRIES_BATCH_SIZE", "64")
		config, err := loadConfig([]string{"--end", "3"})
		Expect(err).NotTo(HaveOccurred())
		Expect(config.LogURL).To(Equal("https://env.example/"))
		Expect(config.BatchSize).To(Equal(uint64(64)))
	})

	It("lets flags override the config file", func() {
		filename := filepath.Join(tempDir(), "ctentries.yaml")
		Expect(os.WriteFile(filename, []byte("log: https://file.example/\ndecode_workers: 8\nend: 100\n"), 0666)).To(Succeed())
		config, err := loadConfig([]string{"--config", filename, "--end", "50", "-v"})
		Expect(err).NotTo(HaveOccurred())
		Expect(config.LogURL).To(Equal("https://file.example/"))
		Expect(config.DecodeWorkers).To(Equal(8))
		Expect(config.End).To(Equal(uint64(50)))
		Expect(config.Verbose).To(BeTrue())
	})

	It("ranks the config file above the environment", func() {
		setenv("CTENTRIES_DECODE_WORKERS", "3")
		setenv("CTENTRIES_PARALLEL_FETCH", "5")
		filename := filepath.Join(tempDir(), "ctentries.yaml")
		Expect(os.WriteFile(filename, []byte("log: https://file.example/\ndecode_workers: 8\n"), 0666)).To(Succeed())
		config, err := loadConfig([]string{"--config", filename})
		Expect(err).NotTo(HaveOccurred())
		Expect(config.DecodeWorkers).To(Equal(8))
		Expect(config.ParallelFetch).To(Equal(5))

		config, err = loadConfig([]string{"--config", filename, "--decode_workers", "2"})
		Expect(err).NotTo(HaveOccurred())
		Expect(config.DecodeWorkers).To(Equal(2))
	})

	It("rejects an end whose successor wraps", func() {
		config := &Config{LogURL: "https://ct.example/", End: math.MaxUint64, BatchSize: 1, ParallelFetch: 1}
		Expect(config.validate()).To(MatchError(ContainSubstring("end must be less than")))
		config.End = math.MaxUint64 - 1
		Expect(config.validate()).To(Succeed())
	})

	DescribeTable("rejects invalid configurations",
		func(args []string) {
			_, err := loadConfig(args)
			Expect(err).To(HaveOccurred())
		},
		Entry("no log or input", []string{}),
		Entry("inverted range", []string{"--log", "https://ct.example/", "--start", "10", "--end", "9"}),
		Entry("zero batch size", []string{"--input", "entries.json", "--batch_size", "0"}),
		Entry("non-numeric start", []string{"--log", "https://ct.example/", "--start", "five"}),
		Entry("negative end", []string{"--log", "https://ct.example/", "--end", "-1"}),
		Entry("unknown flag", []string{"--frobnicate"}),
		Entry("end at the largest index", []string{"--log", "https://ct.example/", "--end", "18446744073709551615"}),
	)
})

var _ = Describe("formatTimestamp", func() {
	DescribeTable("formats",
		func(timestamp uint64, expected string) {
			Expect(formatTimestamp(&cttypes.TimestampedEntry{Timestamp: timestamp})).To(Equal(expected))
		},
		Entry("the epoch", uint64(0), "1970-01-01T00:00:00Z"),
		Entry("an ordinary time", uint64(1700000000000), "2023-11-14T22:13:20Z"),
		Entry("the last representable second", uint64(maxRFC3339Millis), "9999-12-31T23:59:59Z"),
		Entry("year 10000", uint64(maxRFC3339Millis+1), "253402300800000"),
		Entry("beyond int64", uint64(1<<63), "9223372036854775808"),
	)
})

var _ = Describe("makeBatches", func() {
	It("splits a range into batches", func() {
		batches := makeBatches(10, 33, 10)
		Expect(batches).To(HaveLen(3))
		for i, expected := range [][2]uint64{{10, 20}, {20, 30}, {30, 33}} {
			Expect([2]uint64{batches[i].begin, batches[i].end}).To(Equal(expected))
		}
	})

	It("returns nothing for an empty range", func() {
		Expect(makeBatches(5, 5, 10)).To(BeEmpty())
	})
})

var _ = Describe("downloadLog", func() {
	It("prints every entry in order", func() {
		server := newTestServer(50, 1000)
		config := &Config{LogURL: server.URL, Start: 4, End: 40, BatchSize: 7, ParallelFetch: 4, DecodeWorkers: 2}
		var out bytes.Buffer
		Expect(downloadLog(context.Background(), config, &out)).To(Succeed())
		lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
		Expect(lines).To(HaveLen(37))
		for i, line := range lines {
			fields := strings.Split(line, "\t")
			Expect(fields).To(HaveLen(6))
			Expect(fields[0]).To(Equal(fmt.Sprint(4 + i)))
			Expect(fields[1]).To(Equal("X509"))
			Expect(fields[5]).To(Equal("0"))
		}
	})

	It("stops at the first malformed entry and saves it", func() {
		server := newTestServer(50, 23)
		malformedDir := tempDir()
		config := &Config{LogURL: server.URL, Start: 0, End: 49, BatchSize: 5, ParallelFetch: 8, MalformedDir: malformedDir}
		var out bytes.Buffer
		err := downloadLog(context.Background(), config, &out)
		var batchErr *cttypes.BatchDecodeError
		Expect(err).To(MatchError(ContainSubstring("entries 20-24")))
		Expect(errors.As(err, &batchErr)).To(BeTrue())
		Expect(batchErr.Index).To(Equal(3))
		Expect(strings.Count(out.String(), "\n")).To(Equal(20))

		var saved cttypes.RawLogEntry
		Expect(readJSONFile(filepath.Join(malformedDir, "23.json"), &saved)).To(Succeed())
		Expect(saved).To(Equal(rawEntry(23, true)))
		text, err := os.ReadFile(filepath.Join(malformedDir, "23.txt"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(text)).To(ContainSubstring("truncated certificate_chain"))
	})
})

var _ = Describe("decodeFile", func() {
	var (
		dir      string
		filename string
		response cttypes.GetEntriesResponse
	)

	BeforeEach(func() {
		dir = tempDir()
		filename = filepath.Join(dir, "entries.json")
		response = cttypes.GetEntriesResponse{Entries: []cttypes.RawLogEntry{rawEntry(0, false), rawEntry(1, false)}}
	})

	It("numbers entries from start", func() {
		Expect(writeJSONFile(filename, &response, 0666)).To(Succeed())
		var out bytes.Buffer
		Expect(decodeFile(&Config{InputFile: filename, Start: 100}, &out)).To(Succeed())
		Expect(out.String()).To(HavePrefix("100\tX509\t2023-11-14T22:13:20Z\t"))
		Expect(strings.Count(out.String(), "\n")).To(Equal(2))
	})

	It("writes nothing when an entry is malformed", func() {
		response.Entries[1].LeafInput = "%%%"
		Expect(writeJSONFile(filename, &response, 0666)).To(Succeed())
		var out bytes.Buffer
		err := decodeFile(&Config{InputFile: filename, MalformedDir: dir}, &out)
		var encodingErr *cttypes.EncodingError
		Expect(errors.As(err, &encodingErr)).To(BeTrue())
		Expect(encodingErr.Field).To(Equal("leaf_input"))
		Expect(out.Len()).To(BeZero())
		Expect(filepath.Join(dir, "1.txt")).To(BeAnExistingFile())
	})
})
