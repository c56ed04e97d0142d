package codec

import (
	"testing"
)

type benchSection struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type benchInfo struct {
	ID       uint64            `json:"id"`
	Codec    string            `json:"codec"`
	Created  string            `json:"created"`
	Symbols  []string          `json:"symbols"`
	Counts   map[string]int    `json:"counts"`
	Flags    []bool            `json:"flags"`
	Sections []benchSection    `json:"sections"`
	Attrs    map[string]string `json:"attrs"`
}

func benchmarkCodecMarshal(b *testing.B, c Codec, v any) {
	b.Helper()
	b.ReportAllocs()

	warm, err := c.Marshal(v)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(warm)))

	var sink []byte
	b.ResetTimer()
	for b.Loop() {
		out, err := c.Marshal(v)
		if err != nil {
			b.Fatal(err)
		}
		sink = out
	}
	_ = sink
}

func benchmarkCodecUnmarshal[T any](b *testing.B, c Codec, data []byte, dst *T) {
	b.Helper()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))

	var v T
	b.ResetTimer()
	for b.Loop() {
		if err := c.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
	if dst != nil {
		*dst = v
	}
}

func benchInfoFixture() benchInfo {
	return benchInfo{
		ID:      42,
		Codec:   "go-json",
		Created: "2026-01-02T15:04:05Z",
		Symbols: []string{"x", "y", "z", "succ", "zero", "plus", "omega"},
		Counts: map[string]int{
			"variables":    128,
			"abstractions": 64,
			"applications": 96,
			"declarations": 12,
			"evaluations":  4,
		},
		Flags: []bool{true, false, true, true, false, false, true},
		Sections: []benchSection{
			{Name: "symbols", Count: 7},
			{Name: "terms", Count: 288},
			{Name: "stmts", Count: 16},
		},
		Attrs: map[string]string{
			"compression": "lz4",
			"source":      "bench",
		},
	}
}

func BenchmarkCodec_Marshal_Info(b *testing.B) {
	info := benchInfoFixture()

	b.Run("stdlib", func(b *testing.B) { benchmarkCodecMarshal(b, JSON{}, info) })
	b.Run("go-json", func(b *testing.B) { benchmarkCodecMarshal(b, GoJSON{}, info) })
}

func BenchmarkCodec_Unmarshal_Info(b *testing.B) {
	jsonData := MustMarshal(JSON{}, benchInfoFixture())

	b.Run("stdlib", func(b *testing.B) {
		var sink benchInfo
		benchmarkCodecUnmarshal(b, JSON{}, jsonData, &sink)
		_ = sink
	})
	b.Run("go-json", func(b *testing.B) {
		var sink benchInfo
		benchmarkCodecUnmarshal(b, GoJSON{}, jsonData, &sink)
		_ = sink
	})
}
