package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tripweave/go-itinerary-extraction/internal/api/extraction"
	"github.com/tripweave/go-itinerary-extraction/internal/api/geocode"
	"github.com/tripweave/go-itinerary-extraction/internal/api/itinerary"
	api "github.com/tripweave/go-itinerary-extraction/internal/router"
)

// buildItineraryMarkdown produces a multi-day document with tables, the
// shape a benchmark run should chew through.
func buildItineraryMarkdown(days, rowsPerDay int) string {
	var b strings.Builder
	b.WriteString("# 北京三日游\n\n")
	for d := 1; d <= days; d++ {
		fmt.Fprintf(&b, "## 第%d天\n\n", d)
		b.WriteString("| 序号 | 时间 | 名称 | 地址 | 类型 | 费用 |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for r := 1; r <= rowsPerDay; r++ {
			fmt.Fprintf(&b, "| %d | %02d:00 | 景点%d号 | 北京市某区某街%d号 | 景点 | ¥%d |\n", r, 8+r, r, r, r*20)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func BenchmarkParse(b *testing.B) {
	content := buildItineraryMarkdown(5, 10)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		result := itinerary.Parse(content)
		if len(result.Days) != 5 {
			b.Fatalf("expected 5 days, got %d", len(result.Days))
		}
	}
}

func BenchmarkDetectCity(b *testing.B) {
	content := buildItineraryMarkdown(3, 5)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if city := itinerary.DetectCity(content); city != "北京" {
			b.Fatalf("unexpected city %q", city)
		}
	}
}

func BenchmarkExtractEndpoint(b *testing.B) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// disabled provider: every lookup is a local miss, so the benchmark
	// measures parsing and pipeline overhead, not network
	provider := geocode.NewAmapClient("", "", logger)
	resolver := geocode.NewResolver(provider, nil, 1000, 100, 8, time.Minute, logger)
	service := extraction.NewService(resolver, nil, time.Minute, logger)
	handler := extraction.NewHandler(service, logger)

	srv := httptest.NewServer(api.SetupRouter(&api.Config{ExtractionHandler: handler}))
	defer srv.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// unique content per iteration defeats the content-hash cache
		payload, _ := json.Marshal(map[string]string{
			"content": buildItineraryMarkdown(3, 8) + fmt.Sprintf("\n<!-- %d -->\n", i),
		})
		resp, err := http.Post(srv.URL+"/api/v1/itinerary/extract?geocode=false", "application/json", bytes.NewReader(payload))
		if err != nil {
			b.Fatal(err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b.Fatalf("unexpected status %d", resp.StatusCode)
		}
	}
}
