package parser

import (
	"strings"
	"testing"
)

var sampleQueries = map[string]string{
	"short":     "quick brown fox",
	"keywords":  `intitle:"distributed search" -insource:/shard[0-9]+/ incategory:Databases|Indexes prefer-recent:`,
	"operators": `search AND (engine OR index) NOT "full text"~2 tokeniz* fuzzy~1 wild?card`,
	"long":      strings.Repeat(`information retrieval "inverted index" bm25 -stemming `, 5),
}

func BenchmarkParse(b *testing.B) {
	p := newTestParser(b, DefaultConfig())
	for name, q := range sampleQueries {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(q)))
			for i := 0; i < b.N; i++ {
				pq, err := p.Parse(q)
				if err != nil {
					b.Fatal(err)
				}
				_ = pq
			}
		})
	}
}

func BenchmarkParseParallel(b *testing.B) {
	p := newTestParser(b, DefaultConfig())
	q := sampleQueries["keywords"]
	b.ReportAllocs()
	b.SetBytes(int64(len(q)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			pq, err := p.Parse(q)
			if err != nil {
				b.Error(err)
				return
			}
			_ = pq
		}
	})
}
