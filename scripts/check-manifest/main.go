// check-manifest: fetches every metadata URI of a manifest through an IPFS
// gateway in parallel and prints one row per token, flagging records that
// fail to load or have no image. Requests are paced so public gateways do
// not answer 429.
//
// Run from the module root:
//
//	go run ./scripts/check-manifest ~/.nftmint/metadataURIs.json
//	go run ./scripts/check-manifest metadataURIs.json https://example.mypinata.cloud
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/Mohsinsiddi/nftmint/internal/metadata"
	"github.com/Mohsinsiddi/nftmint/internal/pinning"
	"golang.org/x/time/rate"
)

// ── config ────────────────────────────────────────────────────────────────────

const (
	defaultGateway = "https://gateway.pinata.cloud"
	fetchTimeout   = 20 * time.Second
	workers        = 8
	requestsPerSec = 5
)

// ── types ─────────────────────────────────────────────────────────────────────

type result struct {
	tokenID uint64
	uri     string
	name    string
	image   string
	err     string
}

// ── main ──────────────────────────────────────────────────────────────────────

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: check-manifest <manifest.json> [gateway-url]")
		os.Exit(2)
	}
	gateway := defaultGateway
	if len(os.Args) > 2 {
		gateway = os.Args[2]
	}

	m, err := metadata.LoadManifest(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if m.Len() == 0 {
		fmt.Println("manifest is empty")
		return
	}

	gw := pinning.NewGateway(gateway)
	ids := m.IDs()
	limiter := rate.NewLimiter(rate.Limit(requestsPerSec), workers)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []result
		jobs    = make(chan uint64)
	)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				uri, _ := m.Get(id)
				r := check(gw, limiter, id, uri)
				mu.Lock()
				results = append(results, r)
				mu.Unlock()
			}
		}()
	}
	for _, id := range ids {
		jobs <- id
	}
	close(jobs)
	wg.Wait()

	failed := printTable(results)
	if gaps := gapsIn(ids); len(gaps) > 0 {
		fmt.Printf("\nmissing token ids: %s\n", strings.Join(gaps, ", "))
	}
	if failed > 0 {
		fmt.Printf("\n%d of %d records failed\n", failed, len(results))
		os.Exit(1)
	}
}

func check(gw *pinning.Gateway, limiter *rate.Limiter, id uint64, uri string) result {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	r := result{tokenID: id, uri: uri}
	if err := limiter.Wait(ctx); err != nil {
		r.err = shortErr(err)
		return r
	}
	rec, err := gw.FetchMetadata(ctx, uri)
	if err != nil {
		r.err = shortErr(err)
		return r
	}
	r.name = rec.Name
	r.image = rec.Image
	if rec.Image == "" {
		r.err = "no image"
	} else if _, err := metadata.CIDFromURI(rec.Image); err != nil {
		r.err = "image is not an ipfs URI"
	}
	return r
}

// ── output ────────────────────────────────────────────────────────────────────

func printTable(results []result) (failed int) {
	sort.Slice(results, func(i, j int) bool { return results[i].tokenID < results[j].tokenID })

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "TOKEN\tNAME\tIMAGE\tNOTE")
	fmt.Fprintln(w, strings.Repeat("-", 6)+"\t"+
		strings.Repeat("-", 20)+"\t"+
		strings.Repeat("-", 24)+"\t"+
		strings.Repeat("-", 12))

	for _, r := range results {
		note := "ok"
		if r.err != "" {
			note = r.err
			failed++
		}
		fmt.Fprintf(w, "#%d\t%s\t%s\t%s\n", r.tokenID, orDash(r.name), shortURI(r.image), note)
	}
	w.Flush()
	return failed
}

// ── helpers ───────────────────────────────────────────────────────────────────

func gapsIn(ids []uint64) []string {
	var out []string
	for i := 1; i < len(ids); i++ {
		for missing := ids[i-1] + 1; missing < ids[i]; missing++ {
			out = append(out, fmt.Sprint(missing))
		}
	}
	return out
}

func shortURI(uri string) string {
	if uri == "" {
		return "—"
	}
	if len(uri) > 24 {
		return uri[:14] + "…" + uri[len(uri)-8:]
	}
	return uri
}

func shortErr(err error) string {
	s := err.Error()
	if len(s) > 40 {
		return s[:40] + "…"
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
